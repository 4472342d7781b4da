package loader

import (
	"errors"
	"fmt"

	"github.com/upysusa/csvinjector/internal/importer"
)

// Step names the part of a table load that failed.
type Step string

const (
	StepRead     Step = "read"
	StepDetect   Step = "detect"
	StepParse    Step = "parse"
	StepConnect  Step = "connect"
	StepValidate Step = "validate"
	StepInsert   Step = "insert"
)

// TableError reports the table and step at which a run stopped.
type TableError struct {
	Tier  int
	Table string
	Step  Step
	Err   error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("tier %d, table %s: %s failed: %v", e.Tier, e.Table, e.Step, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// parseStep maps an importer failure onto the matching load step.
func parseStep(err error) Step {
	var pe *importer.ParseError
	if !errors.As(err, &pe) {
		return StepParse
	}
	switch pe.Stage {
	case importer.StageRead:
		return StepRead
	case importer.StageDetect:
		return StepDetect
	default:
		return StepParse
	}
}
