package keywords

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const bom = "\ufeff"

// ErrEmpty is returned when the input holds no keywords
var ErrEmpty = errors.New("no keywords found")

// Load reads keywords from r
func Load(r io.Reader) ([]string, error) {
	var keywords []string

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		if kw := strings.TrimSpace(line); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keywords: %w", err)
	}

	if len(keywords) == 0 {
		return nil, ErrEmpty
	}
	return keywords, nil
}

// LoadFile reads keywords from the file at path
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keywords file: %w", err)
	}
	defer f.Close()

	keywords, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return keywords, nil
}
