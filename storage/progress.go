package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gmb-scraper/models"
	"gmb-scraper/utils"
)

// ProgressStore remembers finished keywords in an append-only text file,
// one keyword per line. It assumes a single writer.
type ProgressStore struct {
	path string
	log  *utils.Logger
}

func NewProgressStore(path string, log *utils.Logger) *ProgressStore {
	return &ProgressStore{path: path, log: log}
}

// Load reads every recorded keyword. A missing file yields an empty set.
func (s *ProgressStore) Load() (models.KeywordSet, error) {
	completed := models.NewKeywordSet()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Info("No progress file at %s, starting fresh", s.path)
		return completed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open progress file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		completed.Add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read progress file: %w", err)
	}

	s.log.Info("Loaded %d completed keywords from progress file", completed.Len())
	return completed, nil
}

// Save appends keyword and syncs the file so the line survives a crash.
func (s *ProgressStore) Save(keyword string) error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create progress dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open progress file: %w", err)
	}

	if _, err := f.WriteString(keyword + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append progress: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync progress file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close progress file: %w", err)
	}

	s.log.Info("Saved '%s' to progress file", keyword)
	return nil
}
