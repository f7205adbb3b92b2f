package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/hornet/pkg/hornet/internalerr"
	"github.com/cognicore/hornet/pkg/hornet/rule"
	"github.com/cognicore/hornet/pkg/hornet/term"
)

// Knowledge is the on-disk shape of a knowledge file: textual facts
// and rules plus engine settings.
type Knowledge struct {
	Facts []string   `yaml:"facts"`
	Rules []RuleSpec `yaml:"rules"`
	Query string     `yaml:"query,omitempty"`

	RoundCap        int  `yaml:"round_cap,omitempty"`
	Workers         int  `yaml:"workers,omitempty"`
	AllowMixedArity bool `yaml:"allow_mixed_arity,omitempty"`
}

// RuleSpec is one rule in a knowledge file
type RuleSpec struct {
	Name string   `yaml:"name,omitempty"`
	When []string `yaml:"when"`
	Then string   `yaml:"then"`
}

// LoadKnowledge loads a knowledge file from a YAML file
func LoadKnowledge(path string) (*Knowledge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKnowledge(data)
}

// ParseKnowledge parses knowledge YAML
func ParseKnowledge(data []byte) (*Knowledge, error) {
	var k Knowledge
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, err
	}
	if len(k.Facts) == 0 && len(k.Rules) == 0 {
		return nil, fmt.Errorf("knowledge file has no facts or rules: %w", internalerr.ErrInvalidConfig)
	}
	return &k, nil
}

// Write renders a knowledge file as YAML
func Write(w io.Writer, k *Knowledge) error {
	data, err := yaml.Marshal(k)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Program holds the compiled pieces of a knowledge file
type Program struct {
	Facts    []term.Fact
	Rules    []rule.Rule
	Query    term.Fact
	HasQuery bool
}

// Compile parses every fact, rule, and the query of a knowledge file
func (k *Knowledge) Compile() (*Program, error) {
	p := &Program{
		Facts: make([]term.Fact, 0, len(k.Facts)),
		Rules: make([]rule.Rule, 0, len(k.Rules)),
	}

	for i, text := range k.Facts {
		f, err := term.ParseFact(text)
		if err != nil {
			return nil, fmt.Errorf("fact %d: %w", i+1, err)
		}
		if !f.IsGround() {
			return nil, fmt.Errorf("fact %d (%s) is not ground: %w", i+1, f, internalerr.ErrInvalidConfig)
		}
		p.Facts = append(p.Facts, f)
	}

	for i, spec := range k.Rules {
		r, err := rule.Parse(spec.Name, spec.When, spec.Then)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		p.Rules = append(p.Rules, r)
	}

	if k.Query != "" {
		q, err := term.ParseFact(k.Query)
		if err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		p.Query = q
		p.HasQuery = true
	}

	return p, nil
}
