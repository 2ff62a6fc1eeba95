// Package identlist reads the ordered list of identifiers a batch works through.
package identlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read returns every non-blank line of r with surrounding whitespace trimmed, in order.
// Duplicates are kept.
func Read(r io.Reader) ([]string, error) {
	var identifiers []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		identifiers = append(identifiers, line)
	}
	err := scanner.Err()
	if err != nil {
		return nil, err
	}
	return identifiers, nil
}

// ReadFile is Read over the file at path, a missing file keeps os.ErrNotExist in its chain.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identifier list: %w", err)
	}
	defer f.Close()
	identifiers, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read identifier list %s: %w", path, err)
	}
	return identifiers, nil
}
