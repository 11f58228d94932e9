package subtitle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes a rendered document as UTF-8, creating parent
// directories as needed.
func WriteFile(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// WriteNew writes content next to input with the extension of kind and
// returns the path. Existing files are never overwritten: base.srt,
// base_1.srt, base_2.srt... Each candidate is created exclusively, so
// concurrent writers for the same input never share a file.
func WriteNew(input string, kind OutputKind, content string) (string, error) {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	ext := kind.Extension()
	if err := ensureDir(base + ext); err != nil {
		return "", err
	}

	for counter := 0; ; counter++ {
		path := numbered(base, ext, counter)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}

		_, writeErr := file.WriteString(content)
		if err := errors.Join(writeErr, file.Close()); err != nil {
			_ = os.Remove(path)
			return "", err
		}
		return path, nil
	}
}

// base.ext for 0, base_N.ext after that
func numbered(base, ext string, counter int) string {
	if counter == 0 {
		return base + ext
	}
	return fmt.Sprintf("%s_%d%s", base, counter, ext)
}

// subtitle output kind based on file extension
func KindFromExtension(path string) OutputKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text":
		return KindText
	default:
		return KindSRT
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
