package rule

import (
	"errors"
	"testing"

	"github.com/cognicore/hornet/pkg/hornet/term"
)

func TestParseRule(t *testing.T) {
	r, err := Parse("sells", []string{"Missile(x)", "Owns(A, x)"}, "Sells(Robert, x, A)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(r.Premises) != 2 {
		t.Fatalf("Expected 2 premises, got %d", len(r.Premises))
	}
	if r.Conclusion.Predicate != "Sells" {
		t.Errorf("Expected conclusion Sells, got %q", r.Conclusion.Predicate)
	}
}

func TestParseRejectsBadPremise(t *testing.T) {
	_, err := Parse("broken", []string{"Missile(x"}, "Weapon(x)")
	if err == nil {
		t.Fatal("Expected an error for a malformed premise")
	}
	var perr *term.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("Expected wrapped *term.ParseError, got %T", err)
	}
}

func TestValidateUnsafeRule(t *testing.T) {
	_, err := Parse("bad", []string{"Foo(x)"}, "Bar(y)")
	if err == nil {
		t.Fatal("Expected unsafe rule to be rejected")
	}

	var uerr *UnsafeRuleError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected *UnsafeRuleError, got %T", err)
	}
	if len(uerr.Vars) != 1 || uerr.Vars[0] != "y" {
		t.Errorf("Expected missing variable y, got %v", uerr.Vars)
	}
}

func TestValidateReportsAllMissingVars(t *testing.T) {
	_, err := Parse("", []string{"Foo(x)"}, "Bar(z, y)")

	var uerr *UnsafeRuleError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected *UnsafeRuleError, got %v", err)
	}
	if len(uerr.Vars) != 2 || uerr.Vars[0] != "y" || uerr.Vars[1] != "z" {
		t.Errorf("Expected missing variables [y z], got %v", uerr.Vars)
	}
}

func TestValidateConstantsNeedNoBinding(t *testing.T) {
	// Constants in the conclusion are always fine
	if _, err := Parse("", []string{"Missile(x)", "Owns(A, x)"}, "Sells(Robert, x, A)"); err != nil {
		t.Errorf("Rule with conclusion constants should be valid: %v", err)
	}
}

func TestValidateGroundAxiom(t *testing.T) {
	// A rule with no premises is legal when its conclusion is ground
	if _, err := Parse("axiom", nil, "Enemy(A, America)"); err != nil {
		t.Errorf("Ground axiom should be valid: %v", err)
	}

	if _, err := Parse("bad-axiom", nil, "Enemy(x, America)"); err == nil {
		t.Error("Axiom with a free variable should be rejected")
	}
}

func TestRuleString(t *testing.T) {
	r, err := Parse("", []string{"Missile(x)", "Owns(A, x)"}, "Sells(Robert, x, A)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := "Missile(x) & Owns(A, x) => Sells(Robert, x, A)"
	if r.String() != want {
		t.Errorf("String() = %q, want %q", r.String(), want)
	}
}

func TestRuleLabel(t *testing.T) {
	named, _ := Parse("weapons", []string{"Missile(x)"}, "Weapon(x)")
	if named.Label() != "weapons" {
		t.Errorf("Expected label weapons, got %q", named.Label())
	}

	unnamed, _ := Parse("", []string{"Missile(x)"}, "Weapon(x)")
	if unnamed.Label() != "Missile(x) => Weapon(x)" {
		t.Errorf("Unnamed rule should fall back to its rendering, got %q", unnamed.Label())
	}
}

func TestSignaturesObserve(t *testing.T) {
	sigs := make(Signatures)

	if err := sigs.Observe(term.MustParseFact("Owns(A, T1)")); err != nil {
		t.Fatalf("First observation failed: %v", err)
	}
	if err := sigs.Observe(term.MustParseFact("Owns(B, T2)")); err != nil {
		t.Errorf("Consistent arity should pass: %v", err)
	}

	err := sigs.Observe(term.MustParseFact("Owns(A)"))
	if err == nil {
		t.Fatal("Expected arity mismatch")
	}
	var aerr *ArityMismatchError
	if !errors.As(err, &aerr) {
		t.Fatalf("Expected *ArityMismatchError, got %T", err)
	}
	if aerr.Predicate != "Owns" || aerr.Want != 2 || aerr.Got != 1 {
		t.Errorf("Unexpected mismatch detail: %+v", aerr)
	}
}

func TestSignaturesObserveRule(t *testing.T) {
	sigs := make(Signatures)
	if err := sigs.Observe(term.MustParseFact("Missile(T1)")); err != nil {
		t.Fatal(err)
	}

	r, _ := Parse("clash", []string{"Missile(x, y)"}, "Weapon(x)")
	err := sigs.ObserveRule(r)
	if err == nil {
		t.Fatal("Expected mismatch against recorded Missile/1")
	}
	var aerr *ArityMismatchError
	if !errors.As(err, &aerr) {
		t.Errorf("Expected wrapped *ArityMismatchError, got %T", err)
	}
}
