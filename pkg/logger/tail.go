package logger

import (
	"os"
	"strings"
)

// Tail returns up to n trailing lines of the given log file, oldest first.
// A missing file is not an error; it reads as an empty log.
func Tail(path string, n int) ([]string, error) {
	if path == "" || n <= 0 {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
