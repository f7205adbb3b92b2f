package unify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cognicore/hornet/pkg/hornet/term"
)

// Substitution maps variable names to terms. The zero value is the
// empty substitution. Substitutions are immutable: Extend returns a
// fresh value and never touches the receiver, so a solver can hand the
// same substitution to several candidate branches.
type Substitution struct {
	bindings map[string]term.Term
}

// Len returns the number of bound variables
func (s Substitution) Len() int {
	return len(s.bindings)
}

// Lookup returns the direct binding for a variable name
func (s Substitution) Lookup(name string) (term.Term, bool) {
	t, ok := s.bindings[name]
	return t, ok
}

// Resolve chases a term through the substitution until it reaches a
// constant or an unbound variable.
func (s Substitution) Resolve(t term.Term) term.Term {
	// A binding chain can be at most Len links long
	for i := 0; i <= len(s.bindings); i++ {
		if !t.IsVariable() {
			return t
		}
		next, ok := s.bindings[t.Name]
		if !ok {
			return t
		}
		t = next
	}
	return t
}

// Extend returns a copy of the substitution with one more binding.
// Rebinding a variable would silently discard a commitment made
// earlier in the search, so it panics; callers resolve first.
func (s Substitution) Extend(name string, value term.Term) Substitution {
	if _, bound := s.bindings[name]; bound {
		panic(fmt.Sprintf("unify: variable %q is already bound", name))
	}
	next := make(map[string]term.Term, len(s.bindings)+1)
	for k, v := range s.bindings {
		next[k] = v
	}
	next[name] = value
	return Substitution{bindings: next}
}

// Apply rewrites a fact, replacing every variable the substitution can
// resolve to a constant. Unbound variables pass through unchanged.
func (s Substitution) Apply(f term.Fact) term.Fact {
	if len(f.Args) == 0 {
		return f
	}
	args := make([]term.Term, len(f.Args))
	for i, a := range f.Args {
		args[i] = s.Resolve(a)
	}
	return term.Fact{Predicate: f.Predicate, Args: args}
}

// Bindings returns the fully resolved bindings as plain names, keyed
// by variable name. The map is a copy.
func (s Substitution) Bindings() map[string]string {
	out := make(map[string]string, len(s.bindings))
	for name := range s.bindings {
		out[name] = s.Resolve(term.NewVariable(name)).Name
	}
	return out
}

// String renders the bindings sorted by variable name, e.g. {q=T1, r=A}
func (s Substitution) String() string {
	names := make([]string, 0, len(s.bindings))
	for name := range s.bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s.Resolve(term.NewVariable(name)).Name)
	}
	b.WriteByte('}')
	return b.String()
}

// Unify matches a pattern against a ground fact under an existing
// substitution. On success it returns the substitution extended with
// the bindings the match required; on failure it returns the zero
// substitution and false. The input substitution is never modified.
func Unify(pattern, fact term.Fact, sub Substitution) (Substitution, bool) {
	if pattern.Predicate != fact.Predicate || len(pattern.Args) != len(fact.Args) {
		return Substitution{}, false
	}

	for i, arg := range pattern.Args {
		resolved := sub.Resolve(arg)
		got := fact.Args[i]
		if resolved.IsVariable() {
			sub = sub.Extend(resolved.Name, got)
			continue
		}
		if !resolved.Equal(got) {
			return Substitution{}, false
		}
	}
	return sub, true
}
