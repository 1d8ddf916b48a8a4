// Package universe loads the list of symbols a scan runs over.
package universe

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/newthinker/smaprob/internal/core"
)

// Entry is one row of a universe file. Only Symbol is required.
type Entry struct {
	Symbol string `csv:"Symbol"`
	Name   string `csv:"Name"`
}

// Load reads a CSV universe file with a Symbol column
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("opening universe: %w", err))
	}
	defer f.Close()

	return LoadReader(f)
}

// LoadReader parses universe CSV from r. Symbols are trimmed, blank rows are
// skipped and file order is preserved.
func LoadReader(r io.Reader) ([]string, error) {
	var entries []*Entry
	if err := gocsv.Unmarshal(r, &entries); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parsing universe: %w", err))
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		s := strings.TrimSpace(e.Symbol)
		if s == "" {
			continue
		}
		symbols = append(symbols, s)
	}

	if len(symbols) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("universe has no symbols"))
	}
	return symbols, nil
}
