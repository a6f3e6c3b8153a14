// Package history keeps copies of recently filled documents.
package history

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxRecords is used when Store.MaxRecords is not positive.
const DefaultMaxRecords = 20

const ext = ".docx"

// Entry is one retained document.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Store is a directory of retained documents, capped at MaxRecords files.
type Store struct {
	Dir        string
	MaxRecords int
	Logger     *zap.Logger
}

// New creates a store.
func New(dir string, maxRecords int, log *zap.Logger) *Store {
	return &Store{Dir: dir, MaxRecords: maxRecords, Logger: log}
}

func (s *Store) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func (s *Store) limit() int {
	if s.MaxRecords > 0 {
		return s.MaxRecords
	}
	return DefaultMaxRecords
}

// Save copies src into the store under its base name and prunes the oldest
// entries. Pruning problems are logged and never fail the save.
func (s *Store) Save(src string) (Entry, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return Entry{}, fmt.Errorf("create history dir: %w", err)
	}
	dst := filepath.Join(s.Dir, filepath.Base(src))
	if err := copyFile(src, dst); err != nil {
		return Entry{}, fmt.Errorf("copy to history: %w", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		return Entry{}, err
	}
	if _, err := s.Prune(); err != nil {
		s.log().Warn("history prune failed", zap.Error(err))
	}
	return Entry{Name: info.Name(), Path: dst, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// List returns the retained documents, newest first. A missing directory
// yields no entries.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, de := range dirEntries {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), ext) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    de.Name(),
			Path:    filepath.Join(s.Dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].Name > out[j].Name
		}
		return out[i].ModTime.After(out[j].ModTime)
	})
	return out, nil
}

// Prune deletes the oldest documents beyond MaxRecords and returns the names
// it removed. A file that cannot be removed is logged and skipped.
func (s *Store) Prune() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	limit := s.limit()
	if len(entries) <= limit {
		return nil, nil
	}
	var removed []string
	for _, e := range entries[limit:] {
		if err := os.Remove(e.Path); err != nil {
			s.log().Error("failed to delete old history file", zap.String("file", e.Name), zap.Error(err))
			continue
		}
		s.log().Info("deleted old history file", zap.String("file", e.Name))
		removed = append(removed, e.Name)
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
