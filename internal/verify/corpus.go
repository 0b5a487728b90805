package verify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/verisense/internal/util"
)

// Statement is one trusted reference fact
type Statement struct {
	Text   string `yaml:"text"`
	Source string `yaml:"source,omitempty"`
}

// DefaultStatements is the built-in reference corpus
var DefaultStatements = []Statement{
	{Text: "Official health reports confirm vaccine safety protocols were strictly followed.", Source: "health authorities"},
	{Text: "Cybersecurity agencies deny rumors of a national grid breach.", Source: "cybersecurity agencies"},
	{Text: "The World Health Organization states that vaccines are safe.", Source: "WHO"},
	{Text: "NASA confirms the earth is round and orbits the sun.", Source: "NASA"},
	{Text: "Climate change is scientifically proven to be driven by human activity.", Source: "IPCC"},
}

type corpusFile struct {
	Statements []Statement `yaml:"statements"`
}

// LoadCorpus returns the built-in statements plus those in path (if set).
// The file holds either a "statements" list of {text, source} or a plain list of strings.
func LoadCorpus(path string) ([]Statement, error) {
	statements := append([]Statement(nil), DefaultStatements...)
	if path == "" {
		return statements, nil
	}

	data, err := os.ReadFile(util.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var extra []Statement
	var structured corpusFile
	if err := yaml.Unmarshal(data, &structured); err == nil && len(structured.Statements) > 0 {
		extra = structured.Statements
	} else {
		var plain []string
		if err := yaml.Unmarshal(data, &plain); err != nil {
			return nil, fmt.Errorf("parse corpus file: %w", err)
		}
		for _, s := range plain {
			extra = append(extra, Statement{Text: s})
		}
	}

	seen := make(map[string]bool, len(statements))
	for _, s := range statements {
		seen[strings.ToLower(s.Text)] = true
	}
	for _, s := range extra {
		s.Text = strings.TrimSpace(s.Text)
		key := strings.ToLower(s.Text)
		if s.Text == "" || seen[key] {
			continue
		}
		seen[key] = true
		statements = append(statements, s)
	}
	return statements, nil
}
