package autotable

import (
	"errors"
	"fmt"

	"github.com/TonyLiu0329/Autotable/pkg/autotable/docx"
	"github.com/TonyLiu0329/Autotable/pkg/autotable/knowledge"
)

// ErrFileNotFound indicates an input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrNotDocx indicates the template or source is not a genuine .docx file.
var ErrNotDocx = docx.ErrNotDocx

// ErrUnsupportedKnowledge indicates a knowledge file that is neither .xlsx
// nor .json.
var ErrUnsupportedKnowledge = knowledge.ErrUnsupportedFormat

// ErrNoDocument indicates that no template path was given.
var ErrNoDocument = errors.New("no template document given")

// ErrNoKnowledge indicates that neither a knowledge file nor a Word source
// was given.
var ErrNoKnowledge = errors.New("no knowledge source given")

// Pipeline stages.
const (
	StageLoadKnowledge = "load-knowledge"
	StageLoadTemplate  = "load-template"
	StageFill          = "fill"
	StageSave          = "save"
)

// StageError represents a fatal error in one pipeline stage.
type StageError struct {
	Stage string // one of the Stage constants
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError.
func NewStageError(stage, path string, err error) *StageError {
	return &StageError{
		Stage: stage,
		Path:  path,
		Err:   err,
	}
}
