package domain

import "strconv"

// Severity of a tool diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a problem reported by an external tool, located in a source file.
type Diagnostic struct {
	Severity Severity
	Text     string
	File     string
	Line     int
	Column   int
}

// String formats the diagnostic as "file:line:column: severity: text".
func (d Diagnostic) String() string {
	loc := d.File
	if loc == "" {
		loc = "<unknown>"
	}
	if d.Line > 0 {
		loc += ":" + strconv.Itoa(d.Line) + ":" + strconv.Itoa(d.Column)
	}
	return loc + ": " + string(d.Severity) + ": " + d.Text
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
