package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/swatch/internal/core/domain"
)

func TestDiagnostic_String(t *testing.T) {
	d := domain.Diagnostic{
		Severity: domain.SeverityError,
		Text:     `Expected ";"`,
		File:     "src/assets/toolkit/styles/toolkit.scss",
		Line:     12,
		Column:   4,
	}
	assert.Equal(t, `src/assets/toolkit/styles/toolkit.scss:12:4: error: Expected ";"`, d.String())

	d = domain.Diagnostic{Severity: domain.SeverityWarning, Text: "unused"}
	assert.Equal(t, "<unknown>: warning: unused", d.String())
}

func TestHasErrors(t *testing.T) {
	assert.False(t, domain.HasErrors(nil))
	assert.False(t, domain.HasErrors([]domain.Diagnostic{{Severity: domain.SeverityWarning}}))
	assert.True(t, domain.HasErrors([]domain.Diagnostic{
		{Severity: domain.SeverityWarning},
		{Severity: domain.SeverityError},
	}))
}
