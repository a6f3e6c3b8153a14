// Package identity tracks which knowledge entities a document run has
// already filled, so repeated blocks are asked for a different one.
package identity

import "strings"

// Tracker is an append-only, ordered list of identities. The zero value is
// ready to use. It is owned by a single run and is not safe for concurrent
// use.
type Tracker struct {
	used []string
}

// Record appends id. Blank ids are ignored. It reports whether id was
// recorded.
func (t *Tracker) Record(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	t.used = append(t.used, id)
	return true
}

// Used returns a copy of the recorded identities in record order.
func (t *Tracker) Used() []string {
	out := make([]string, len(t.used))
	copy(out, t.used)
	return out
}

// Len returns the number of recorded identities.
func (t *Tracker) Len() int {
	return len(t.used)
}
