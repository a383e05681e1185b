package service

import (
	"context"
	"testing"

	"cleanse/internal/core/refdata"
	"cleanse/internal/core/verdict"
	"cleanse/internal/services/name/domain"
)

func newTestService() *Service {
	return New(refdata.NewStore(refdata.MustDefaults()), Config{
		SecurityCheck:    true,
		PlaceholderCheck: true,
	})
}

func validate(t *testing.T, name string) *verdict.Result {
	t.Helper()
	r, err := newTestService().Validate(context.Background(), domain.Input{Name: name, ClientID: 1})
	if err != nil {
		t.Fatalf("Validate(%q): %v", name, err)
	}
	return r
}

func comps(t *testing.T, r *verdict.Result) domain.Components {
	t.Helper()
	c, ok := r.Components.(domain.Components)
	if !ok {
		t.Fatalf("Components type %T", r.Components)
	}
	return c
}

func TestValidate_AllCapsWithHonorificParticleSuffix(t *testing.T) {
	t.Parallel()

	r := validate(t, "MR JOHN VAN DER BERG JR")
	if r.Status != verdict.StatusValid {
		t.Fatalf("status = %s/%s", r.Status, r.SubStatus)
	}
	c := comps(t, r)
	if c.Honorific != "Mr" {
		t.Fatalf("honorific = %q, want Mr", c.Honorific)
	}
	if c.First != "John" {
		t.Fatalf("first = %q, want John", c.First)
	}
	if c.Last != "Van Der Berg" {
		t.Fatalf("last = %q, want Van Der Berg", c.Last)
	}
	if c.Suffix != "Jr." {
		t.Fatalf("suffix = %q, want Jr.", c.Suffix)
	}
	if !r.WasCorrected {
		t.Fatalf("all-caps input must flag wasCorrected")
	}
	if r.ChangeStatus != verdict.Changed {
		t.Fatalf("changeStatus = %s", r.ChangeStatus)
	}
}

func TestValidate_CommaForm(t *testing.T) {
	t.Parallel()

	r := validate(t, "Smith, John Michael")
	c := comps(t, r)
	if c.First != "John" || c.Last != "Smith" {
		t.Fatalf("comma form parse: %+v", c)
	}
	if len(c.Middle) != 1 || c.Middle[0] != "Michael" {
		t.Fatalf("middle = %v, want [Michael]", c.Middle)
	}
	if r.NormalizedValue != "John Michael Smith" {
		t.Fatalf("normalized = %q", r.NormalizedValue)
	}
	if !r.WasCorrected {
		t.Fatalf("reordering must flag wasCorrected")
	}
}

func TestValidate_SuffixComma(t *testing.T) {
	t.Parallel()

	r := validate(t, "John Smith, Jr.")
	c := comps(t, r)
	if c.First != "John" || c.Last != "Smith" || c.Suffix != "Jr." {
		t.Fatalf("suffix comma parse: %+v", c)
	}
}

func TestValidate_MixedCaseParticlesPreserved(t *testing.T) {
	t.Parallel()

	r := validate(t, "Ludwig van Beethoven")
	c := comps(t, r)
	if c.Last != "van Beethoven" {
		t.Fatalf("last = %q, want van Beethoven (particle kept as given)", c.Last)
	}
	if r.WasCorrected {
		t.Fatalf("nothing changed, wasCorrected should be false")
	}
}

func TestValidate_IrregularSurnames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		last string
	}{
		{"ANGUS MACDONALD", "MacDonald"},
		{"sarah mckenzie", "McKenzie"},
		{"patrick o'brien", "O'Brien"},
		{"mary macias", "Macias"},
	}
	for _, tc := range tests {
		r := validate(t, tc.in)
		c := comps(t, r)
		if c.Last != tc.last {
			t.Fatalf("Validate(%q) last = %q, want %q", tc.in, c.Last, tc.last)
		}
	}
}

func TestValidate_NonLatinPassthrough(t *testing.T) {
	t.Parallel()

	r := validate(t, "山田 太郎")
	if r.Status != verdict.StatusValid {
		t.Fatalf("status = %s/%s", r.Status, r.SubStatus)
	}
	c := comps(t, r)
	if c.First != "山田" || c.Last != "太郎" {
		t.Fatalf("non-Latin tokens must pass through unmodified: %+v", c)
	}
}

func TestValidate_SecurityPattern(t *testing.T) {
	t.Parallel()

	r := validate(t, "Robert'); DROP TABLE students")
	if r.Status != verdict.StatusInvalid || r.SubStatus != verdict.SubSecurityPattern {
		t.Fatalf("want invalid/security_pattern, got %s/%s", r.Status, r.SubStatus)
	}
}

func TestValidate_BadGrammar(t *testing.T) {
	t.Parallel()

	tests := []string{"John5 Smith", "a@b", "John_Smith"}
	for _, in := range tests {
		r := validate(t, in)
		if r.Status != verdict.StatusInvalid || r.SubStatus != verdict.SubBadFormat {
			t.Fatalf("Validate(%q) = %s/%s, want invalid/bad_format", in, r.Status, r.SubStatus)
		}
	}
}

func TestValidate_Placeholder(t *testing.T) {
	t.Parallel()

	r := validate(t, "John Doe")
	if r.Status != verdict.StatusInvalid || r.SubStatus != verdict.SubPlaceholderName {
		t.Fatalf("want invalid/placeholder_name, got %s/%s", r.Status, r.SubStatus)
	}
}

func TestValidate_SingleName(t *testing.T) {
	t.Parallel()

	r := validate(t, "Madonna")
	if r.Status != verdict.StatusValid {
		t.Fatalf("status = %s", r.Status)
	}
	c := comps(t, r)
	if c.First != "Madonna" || c.Last != "" {
		t.Fatalf("single name parse: %+v", c)
	}
	if r.Confidence >= scoreFull {
		t.Fatalf("single name should score below a full name, got %d", r.Confidence)
	}
}

func TestValidate_Empty(t *testing.T) {
	t.Parallel()

	r := validate(t, "   ")
	if r.Status != verdict.StatusInvalid || r.SubStatus != verdict.SubBadFormat {
		t.Fatalf("want invalid/bad_format for blank input, got %s/%s", r.Status, r.SubStatus)
	}
}

func TestValidate_HyphenatedSurname(t *testing.T) {
	t.Parallel()

	r := validate(t, "MARY SMITH-JONES")
	c := comps(t, r)
	if c.Last != "Smith-Jones" {
		t.Fatalf("last = %q, want Smith-Jones", c.Last)
	}
}

func TestValidate_StepsRecorded(t *testing.T) {
	t.Parallel()

	r := validate(t, "jane smith")
	if len(r.Steps) == 0 {
		t.Fatalf("expected validation steps")
	}
	names := map[string]bool{}
	for _, s := range r.Steps {
		names[s.Name] = true
	}
	for _, want := range []string{"security_check", "format_check", "parse"} {
		if !names[want] {
			t.Fatalf("missing step %q in %+v", want, r.Steps)
		}
	}
}
