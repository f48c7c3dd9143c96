package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LogStorage saves step output to files under a base directory.
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a log storage handler.
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// SaveLog writes the output of one step and returns the file path.
// File names are job_step_timestamp.log with unsafe characters stripped.
func (ls *LogStorage) SaveLog(job, step, output string) (string, error) {
	if err := os.MkdirAll(ls.BaseDir, 0775); err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102_150405.000000000")
	filename := fmt.Sprintf("%s_%s_%s.log", sanitize(job), sanitize(step), timestamp)
	filePath := filepath.Join(ls.BaseDir, filename)

	if err := os.WriteFile(filePath, []byte(output), 0644); err != nil {
		return "", err
	}
	return filePath, nil
}

// sanitize strips characters that are unsafe in file names.
func sanitize(name string) string {
	clean := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		return "step"
	}
	return string(clean)
}
