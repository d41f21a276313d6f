// Package rules loads name rule tables from line-oriented key=value files.
package rules

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"efrenamer/internal/naming"
)

// Config points at the optional rule files.
type Config struct {
	NameMapFile     string `mapstructure:"name_map_file"`
	PartMapFile     string `mapstructure:"part_map_file"`
	CaseInsensitive bool   `mapstructure:"case_insensitive"`
}

// Warning describes a rule-file line that was skipped or only partly applied.
type Warning struct {
	File   string
	Line   int
	Text   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s: %q", w.File, w.Line, w.Reason, w.Text)
}

const (
	reasonMalformed = "malformed entry"
	reasonDuplicate = "duplicate key"
)

// Parse reads rule entries from raw. Blank lines and lines starting with "#"
// are ignored. Keys and values are trimmed. A line without exactly one "="
// is reported; if it still has a key and a value, the text between the first
// and second "=" is used. The first occurrence of a key wins.
func Parse(raw, file string, caseInsensitive bool) (*naming.Table, []Warning) {
	table := naming.NewTable(caseInsensitive)
	var warnings []Warning

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			warnings = append(warnings, Warning{File: file, Line: lineno, Text: line, Reason: reasonMalformed})
			if len(parts) < 2 {
				continue
			}
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if !table.Add(key, value) {
			warnings = append(warnings, Warning{File: file, Line: lineno, Text: line, Reason: reasonDuplicate})
		}
	}

	return table, warnings
}

// LoadFile reads and parses one rule file. An empty path yields a nil table.
func LoadFile(fs afero.Fs, path string, caseInsensitive bool) (*naming.Table, []Warning, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rule file %q: %w", path, err)
	}
	table, warnings := Parse(string(data), path, caseInsensitive)
	return table, warnings, nil
}

// Load reads every configured rule file and assembles the mapper rules.
func Load(fs afero.Fs, cfg Config) (naming.Rules, []Warning, error) {
	rules := naming.Rules{CaseInsensitive: cfg.CaseInsensitive}
	var warnings []Warning

	names, w, err := LoadFile(fs, cfg.NameMapFile, cfg.CaseInsensitive)
	if err != nil {
		return naming.Rules{}, nil, err
	}
	rules.Names = names
	warnings = append(warnings, w...)

	parts, w, err := LoadFile(fs, cfg.PartMapFile, cfg.CaseInsensitive)
	if err != nil {
		return naming.Rules{}, nil, err
	}
	rules.Parts = parts
	warnings = append(warnings, w...)

	return rules, warnings, nil
}
