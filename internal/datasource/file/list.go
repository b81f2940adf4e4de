package file

import (
	"bufio"
	"os"
	"strings"
)

// ReadNameSet reads a text file of names, one per line, into a membership
// set. Watch mode uses it for allowlists of CSV basenames.
//
// Empty lines and lines starting with '#' (after trimming whitespace) are
// skipped, so list files can carry comments and blank separators.
func ReadNameSet(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
