package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

// Parser turns an uploaded spreadsheet into a RawTable.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte) (analysis.RawTable, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported spreadsheet format")

// Supported reports whether some registered parser accepts filename.
func Supported(filename string) bool {
	return lookup(filename) != nil
}

func lookup(filename string) Parser {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Parse selects a parser by filename and parses content.
func Parse(filename string, content []byte) (analysis.RawTable, error) {
	p := lookup(filename)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
	}
	t, err := p.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filename), err)
	}
	return t, nil
}

// ParseFile reads path from disk and parses it.
func ParseFile(path string) (analysis.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(path, data)
}

func init() {
	Register(xlsxParser{})
	Register(csvParser{})
}
