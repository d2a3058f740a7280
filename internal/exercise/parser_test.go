package exercise

import "testing"

const wellFormed = `### Problem
Print the numbers 1 through 3, one per line.

### Reference Code
for i in range(1, 4):
    print(i)

### Reference Output
1
2
3`

func TestParseWellFormed(t *testing.T) {
	ex := Parse(wellFormed)

	if ex.Problem != "Print the numbers 1 through 3, one per line." {
		t.Errorf("problem = %q", ex.Problem)
	}
	if ex.ReferenceCode != "for i in range(1, 4):\n    print(i)" {
		t.Errorf("reference code = %q", ex.ReferenceCode)
	}
	if ex.ReferenceOutput != "1\n2\n3" {
		t.Errorf("reference output = %q", ex.ReferenceOutput)
	}
}

// Re-joining the parsed sections with the fixed headers must reproduce
// the sections of the original reply.
func TestParseRoundTrip(t *testing.T) {
	ex := Parse(wellFormed)

	rejoined := HeaderProblem + "\n" + ex.Problem + "\n\n" +
		HeaderReferenceCode + "\n" + ex.ReferenceCode + "\n\n" +
		HeaderReferenceOutput + "\n" + ex.ReferenceOutput

	if got := Parse(rejoined); got != ex {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, ex)
	}
}

func TestParseHeaderVariants(t *testing.T) {
	raw := "### Problem Description:\nSum two numbers.\n" +
		"### Reference Code:\nprint(1 + 2)\n" +
		"### Reference Output:\n3"

	ex := Parse(raw)
	if ex.Problem != "Sum two numbers." {
		t.Errorf("problem = %q", ex.Problem)
	}
	if ex.ReferenceCode != "print(1 + 2)" {
		t.Errorf("reference code = %q", ex.ReferenceCode)
	}
	if ex.ReferenceOutput != "3" {
		t.Errorf("reference output = %q", ex.ReferenceOutput)
	}
}

func TestParseNoHeaders(t *testing.T) {
	raw := "  The model ignored the format and just chatted.  "

	ex := Parse(raw)
	if ex.Problem != "The model ignored the format and just chatted." {
		t.Errorf("problem = %q, want trimmed raw text", ex.Problem)
	}
	if ex.ReferenceCode != "" {
		t.Errorf("reference code = %q, want empty", ex.ReferenceCode)
	}
	if ex.ReferenceOutput != "" {
		t.Errorf("reference output = %q, want empty", ex.ReferenceOutput)
	}
}

func TestParseMissingOutputHeader(t *testing.T) {
	raw := "### Problem\nDo a thing.\n### Reference Code\nprint('x')"

	ex := Parse(raw)
	// Problem needs the Reference Code header as its terminator, which is
	// present, so it still parses; only the output defaults.
	if ex.ReferenceOutput != "" {
		t.Errorf("reference output = %q, want empty", ex.ReferenceOutput)
	}
	if ex.ReferenceCode != "" {
		// Reference code needs the Reference Output terminator.
		t.Errorf("reference code = %q, want empty", ex.ReferenceCode)
	}
	if ex.Problem != "Do a thing." {
		t.Errorf("problem = %q", ex.Problem)
	}
}

func TestParseDeterministic(t *testing.T) {
	if Parse(wellFormed) != Parse(wellFormed) {
		t.Error("identical input parsed differently")
	}
}
