package rule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/hornet/pkg/hornet/term"
)

// Rule is a Horn clause: when every premise matches, the conclusion
// holds under the matching bindings. Premises may mix variables and
// constants; the conclusion may only use variables the premises bind.
type Rule struct {
	Name       string
	Premises   []term.Fact
	Conclusion term.Fact
}

// New builds a rule and rejects it if it is unsafe
func New(name string, premises []term.Fact, conclusion term.Fact) (Rule, error) {
	r := Rule{Name: name, Premises: premises, Conclusion: conclusion}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Parse builds a rule from textual premises and conclusion
func Parse(name string, premises []string, conclusion string) (Rule, error) {
	parsed := make([]term.Fact, 0, len(premises))
	for i, p := range premises {
		f, err := term.ParseFact(p)
		if err != nil {
			return Rule{}, fmt.Errorf("premise %d: %w", i+1, err)
		}
		parsed = append(parsed, f)
	}
	c, err := term.ParseFact(conclusion)
	if err != nil {
		return Rule{}, fmt.Errorf("conclusion: %w", err)
	}
	return New(name, parsed, c)
}

// Validate checks the safety condition: every conclusion variable must
// appear in at least one premise. An unsafe rule could derive facts
// with free variables, which the engine never stores.
func (r Rule) Validate() error {
	bound := make(map[string]bool)
	for _, p := range r.Premises {
		for _, v := range p.Vars() {
			bound[v] = true
		}
	}

	var missing []string
	for _, v := range r.Conclusion.Vars() {
		if !bound[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &UnsafeRuleError{Rule: r.Label(), Vars: missing}
	}
	return nil
}

// Label returns the rule name, or its rendering when unnamed
func (r Rule) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.String()
}

// String renders the rule as "P1 & P2 => C"
func (r Rule) String() string {
	if len(r.Premises) == 0 {
		return "=> " + r.Conclusion.String()
	}
	parts := make([]string, len(r.Premises))
	for i, p := range r.Premises {
		parts[i] = p.String()
	}
	return strings.Join(parts, " & ") + " => " + r.Conclusion.String()
}

// UnsafeRuleError reports conclusion variables no premise binds
type UnsafeRuleError struct {
	Rule string
	Vars []string
}

func (e *UnsafeRuleError) Error() string {
	return fmt.Sprintf("unsafe rule %s: conclusion variables not bound by any premise: %s",
		e.Rule, strings.Join(e.Vars, ", "))
}

// ArityMismatchError reports a predicate used with two different arities
type ArityMismatchError struct {
	Predicate string
	Want      int
	Got       int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("predicate %q used with arity %d, previously seen with arity %d",
		e.Predicate, e.Got, e.Want)
}

// Signatures records the arity first observed for each predicate and
// rejects later uses that disagree.
type Signatures map[string]int

// Observe records one fact's predicate arity
func (s Signatures) Observe(f term.Fact) error {
	want, seen := s[f.Predicate]
	if !seen {
		s[f.Predicate] = f.Arity()
		return nil
	}
	if want != f.Arity() {
		return &ArityMismatchError{Predicate: f.Predicate, Want: want, Got: f.Arity()}
	}
	return nil
}

// ObserveRule records every premise and the conclusion of a rule
func (s Signatures) ObserveRule(r Rule) error {
	for _, p := range r.Premises {
		if err := s.Observe(p); err != nil {
			return fmt.Errorf("rule %s: %w", r.Label(), err)
		}
	}
	if err := s.Observe(r.Conclusion); err != nil {
		return fmt.Errorf("rule %s: %w", r.Label(), err)
	}
	return nil
}
