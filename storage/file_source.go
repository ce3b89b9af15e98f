package storage

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"gmb-scraper/utils"
)

// FileSource reads keywords from a local text file, one per line.
// Blank lines and lines starting with '#' are skipped.
type FileSource struct {
	path string
	log  *utils.Logger
}

func NewFileSource(path string, log *utils.Logger) *FileSource {
	return &FileSource{path: path, log: log}
}

func (s *FileSource) Keywords(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open keywords file: %w", err)
	}
	defer f.Close()

	var keywords []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}

	s.log.Info("Fetched %d keywords from %s", len(keywords), s.path)
	return keywords, nil
}
