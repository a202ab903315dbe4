package apis

import "fmt"

type DataMapping struct {
	Kind          string         `json:"kind" yaml:"kind"`
	Version       string         `json:"version" yaml:"version"`
	Metadata      Metadata       `json:"metadata" yaml:"metadata"`
	Endpoint      string         `json:"endpoint" yaml:"endpoint"`
	FieldMappings []FieldMapping `json:"fieldMappings" yaml:"fieldMappings"`
}

type Metadata struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type FieldMapping struct {
	Source   string `json:"source" yaml:"source"`
	Target   string `json:"target" yaml:"target"`
	Required bool   `json:"required" yaml:"required"`
}

func (dm *DataMapping) Validate() error {
	if dm.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if dm.Version == "" {
		return fmt.Errorf("version is required")
	}
	if dm.Metadata.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if dm.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if len(dm.FieldMappings) == 0 {
		return fmt.Errorf("at least one field mapping is required")
	}
	for i, fm := range dm.FieldMappings {
		if fm.Source == "" {
			return fmt.Errorf("fieldMappings[%d] must have source defined", i)
		}
		if fm.Target == "" {
			return fmt.Errorf("fieldMappings[%d] must have target defined", i)
		}
	}
	return nil
}

// SourceFields returns the upstream field names in mapping order; the
// GraphQL selection set is built from these.
func (dm *DataMapping) SourceFields() []string {
	fields := make([]string, 0, len(dm.FieldMappings))
	for _, fm := range dm.FieldMappings {
		fields = append(fields, fm.Source)
	}
	return fields
}

type MappingError struct {
	Message string `json:"message"`
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping error: %s", e.Message)
}
