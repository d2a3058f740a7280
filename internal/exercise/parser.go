package exercise

import (
	"regexp"
	"strings"
)

// Header matching tolerates an optional trailing colon and the
// "Problem Description" variant some models produce.
var (
	problemRe = regexp.MustCompile(`(?s)### Problem(?: Description)?:?\s*(.+?)\s*### Reference Code`)
	codeRe    = regexp.MustCompile(`(?s)### Reference Code:?\s*(.+?)\s*### Reference Output`)
	outputRe  = regexp.MustCompile(`(?s)### Reference Output:?\s*(.+)`)
)

// Parse extracts the three sections of a generation reply. A missing
// header defaults its field to "", except the problem, which falls back
// to the whole raw text so a malformed reply is never silently dropped.
// Pure and deterministic; safe to test against literal fixtures.
func Parse(raw string) Exercise {
	ex := Exercise{Problem: strings.TrimSpace(raw)}

	if m := problemRe.FindStringSubmatch(raw); m != nil {
		ex.Problem = strings.TrimSpace(m[1])
	}
	if m := codeRe.FindStringSubmatch(raw); m != nil {
		ex.ReferenceCode = strings.TrimSpace(m[1])
	}
	if m := outputRe.FindStringSubmatch(raw); m != nil {
		ex.ReferenceOutput = strings.TrimSpace(m[1])
	}
	return ex
}
