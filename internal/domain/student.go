package domain

import "time"

type Student struct {
	NIM          string          `json:"nim"`
	StudyProgram string          `json:"studyProgram"`
	Metadata     StudentMetadata `json:"metadata"`
}

type StudentMetadata struct {
	// Essential source tracking
	SourceOffset int `json:"sourceOffset"`

	// System metadata
	ImportedAt time.Time `json:"importedAt,omitempty"`
}

// Valid reports whether the record carries its natural key. Records
// without a NIM cannot be upserted and are rejected before the sink.
func (s Student) Valid() bool {
	return s.NIM != ""
}
