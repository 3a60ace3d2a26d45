package models

// ImportRowError reports a row that was not persisted
type ImportRowError struct {
	Row   int               `json:"row"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

// DuplicateResolution reports a row that matched an existing student and was
// persisted anyway under a newly allocated index number.
type DuplicateResolution struct {
	Row    int    `json:"row"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportWarning is a non-fatal issue on a persisted row
type ImportWarning struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportOutcome aggregates the result of one import call.
// Success + Failed always equals the number of data rows.
type ImportOutcome struct {
	Success            int                   `json:"success"`
	Failed             int                   `json:"failed"`
	Errors             []ImportRowError      `json:"errors"`
	SuccessfulStudents []Student             `json:"successfulStudents"`
	SkippedDuplicates  []DuplicateResolution `json:"skippedDuplicates"`
	Warnings           []ImportWarning       `json:"warnings"`
}

// NewImportOutcome returns an outcome with empty, non-nil lists
func NewImportOutcome() *ImportOutcome {
	return &ImportOutcome{
		Errors:             []ImportRowError{},
		SuccessfulStudents: []Student{},
		SkippedDuplicates:  []DuplicateResolution{},
		Warnings:           []ImportWarning{},
	}
}

// DuplicateGroup is a set of students sharing one identity tuple, oldest first.
type DuplicateGroup struct {
	Key      string    `json:"key"`
	Students []Student `json:"students"`
}

// DuplicateCleanup reports what a duplicate removal did
type DuplicateCleanup struct {
	Groups  int      `json:"groups"`
	Removed int      `json:"removed"`
	Failed  int      `json:"failed"`
	Kept    []string `json:"kept"`
	DryRun  bool     `json:"dryRun"`
}
