package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportMarkdown renders a learner's submission history as a markdown
// document, newest first, for download or archival.
func ExportMarkdown(u *User, records []SubmissionRecord) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Submission history: %s (%s)\n\n", u.Name, u.StudentID))

	correct := 0
	for _, r := range records {
		if r.Correct {
			correct++
		}
	}
	b.WriteString(fmt.Sprintf("- **Submissions:** %d\n", len(records)))
	b.WriteString(fmt.Sprintf("- **Correct:** %d\n", correct))
	b.WriteString("\n---\n\n")

	for _, r := range records {
		verdict := "incorrect"
		if r.Correct {
			verdict = "correct"
		}
		b.WriteString(fmt.Sprintf("## %s (%s)\n\n", r.CreatedAt.Format("2006-01-02 15:04:05"), verdict))
		b.WriteString(fmt.Sprintf("**Problem**\n\n%s\n\n", r.Problem))
		b.WriteString(fmt.Sprintf("**Code**\n\n```python\n%s\n```\n\n", r.Code))
		b.WriteString(fmt.Sprintf("**Output**\n\n```\n%s\n```\n\n", r.Output))
	}

	return b.String()
}

// ExportJSON renders a learner's submission history as formatted JSON.
func ExportJSON(u *User, records []SubmissionRecord) ([]byte, error) {
	export := struct {
		User    *User              `json:"user"`
		Records []SubmissionRecord `json:"records"`
	}{
		User:    u,
		Records: records,
	}
	return json.MarshalIndent(export, "", "  ")
}
