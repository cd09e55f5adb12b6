package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// InitDir creates the parent directory of path (after env expansion).
func InitDir(path string, mode fs.FileMode) error {
	expanded := os.ExpandEnv(path)
	return os.MkdirAll(filepath.Dir(expanded), mode)
}

// FirstNonEmpty returns the first argument that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
