package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadList parses one DOI per line. Blank lines and lines starting with '#'
// are ignored. A '#' preceded by whitespace starts a trailing comment; a '#'
// inside a DOI suffix is kept.
func ReadList(r io.Reader) ([]string, error) {
	var dois []string
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(stripComment(scanner.Text()))
		if text == "" {
			continue
		}
		if strings.ContainsAny(text, " \t") {
			return nil, fmt.Errorf("line %d: expected a single DOI, got %q", line, text)
		}
		dois = append(dois, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read doi list: %w", err)
	}
	return dois, nil
}

func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			return line[:i]
		}
	}
	return line
}
