package extract

import "fmt"

// ChunkError represents a failure to extract one chunk of a document.
type ChunkError struct {
	Index int // 1-based
	Total int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("extraction error in chunk %d/%d: %v", e.Index, e.Total, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
