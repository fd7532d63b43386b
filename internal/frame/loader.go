package frame

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Loader produces detector frames from files on disk. Binary instrument
// formats (FITS, legacy map dumps) are decoded by external tooling; the
// analysis core only depends on this contract.
type Loader interface {
	Load(path string) (*Frame, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (*Frame, error)

// Load calls fn(path).
func (fn LoaderFunc) Load(path string) (*Frame, error) {
	return fn(path)
}

// TextLoader reads frames exported as plain-text grids: one row per line,
// whitespace-separated numeric columns. Blank lines and lines starting with
// '#' are skipped. Every data row must have the same number of columns.
type TextLoader struct{}

// Load reads the grid at path.
func (TextLoader) Load(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer file.Close()

	var pixels [][]float64
	width := -1
	lineNo := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if width == -1 {
			width = len(fields)
		} else if len(fields) != width {
			return nil, fmt.Errorf("%s:%d: row has %d columns, want %d", path, lineNo, len(fields), width)
		}

		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: column %d: %w", path, lineNo, i+1, err)
			}
			row[i] = v
		}
		pixels = append(pixels, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	if len(pixels) == 0 {
		return nil, fmt.Errorf("%s: no numeric rows", path)
	}

	return &Frame{Pixels: pixels}, nil
}
