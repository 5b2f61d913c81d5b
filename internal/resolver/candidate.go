package resolver

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed candidates.yaml
var defaultCandidatesYAML []byte

// Candidate is one base URL at which the data store might be reachable.
type Candidate struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"url"`
}

type candidateFile struct {
	Candidates []Candidate `yaml:"candidates"`
}

// DefaultCandidates returns the compiled-in candidate list.
func DefaultCandidates() []Candidate {
	cs, err := LoadCandidates(defaultCandidatesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded candidates: %v", err))
	}
	return cs
}

// LoadCandidates decodes a YAML candidate document.
func LoadCandidates(data []byte) ([]Candidate, error) {
	var f candidateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	for i := range f.Candidates {
		if err := f.Candidates[i].validate(); err != nil {
			return nil, err
		}
	}
	if len(f.Candidates) == 0 {
		return nil, fmt.Errorf("decode candidates: list is empty")
	}
	return f.Candidates, nil
}

// ParseCandidates parses "name=url,name=url". An entry without a name is
// named after its position. A prefix holding ':' or '/' is part of the URL,
// so query strings survive unnamed entries.
func ParseCandidates(s string) ([]Candidate, error) {
	var cs []Candidate
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c := Candidate{Name: fmt.Sprintf("candidate-%d", i+1), BaseURL: part}
		if name, raw, ok := strings.Cut(part, "="); ok && !strings.ContainsAny(name, ":/") {
			c = Candidate{Name: strings.TrimSpace(name), BaseURL: strings.TrimSpace(raw)}
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("parse candidates: no entries in %q", s)
	}
	return cs, nil
}

func (c *Candidate) validate() error {
	if c.Name == "" {
		return fmt.Errorf("candidate %q: name is required", c.BaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("candidate %s: invalid url %q", c.Name, c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}
