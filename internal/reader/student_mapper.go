package reader

import (
	"fmt"

	"github.com/DjordjeVuckovic/student-sync/internal/domain"
	"github.com/DjordjeVuckovic/student-sync/pkg/apis"
)

// Student field targets accepted in a field mapping.
const (
	TargetNIM          = "nim"
	TargetStudyProgram = "studyProgram"
)

// StudentMapper maps a raw upstream record onto a domain.Student
// according to a DataMapping loaded from YAML. The upstream field
// names are deployment-specific; the targets are fixed.
type StudentMapper struct {
	cfg *apis.DataMapping
}

func NewStudentMapper(cfg *apis.DataMapping) *StudentMapper {
	return &StudentMapper{
		cfg: cfg,
	}
}

func (m *StudentMapper) Map(record map[string]any) (domain.Student, error) {
	student := domain.Student{}

	for _, fm := range m.cfg.FieldMappings {
		raw, ok := record[fm.Source]
		if !ok || raw == nil {
			if fm.Required {
				return domain.Student{}, &apis.MappingError{Message: "missing source field: " + fm.Source}
			}
			continue
		}

		value, ok := raw.(string)
		if !ok {
			if fm.Required {
				return domain.Student{}, &apis.MappingError{Message: fmt.Sprintf("field %s is not a string", fm.Source)}
			}
			continue
		}

		switch fm.Target {
		case TargetNIM:
			student.NIM = value
		case TargetStudyProgram:
			student.StudyProgram = value
		default:
			return domain.Student{}, &apis.MappingError{Message: "unknown target field: " + fm.Target}
		}
	}

	if !student.Valid() {
		return domain.Student{}, &apis.MappingError{Message: "record has no natural key (nim)"}
	}

	return student, nil
}
