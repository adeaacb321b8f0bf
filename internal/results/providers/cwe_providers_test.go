package providers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCWEProvider_GetCWE(t *testing.T) {
	p := NewInMemoryCWEProvider()

	entry, err := p.GetCWE("CWE-918")
	require.NoError(t, err)
	assert.Equal(t, "CWE-918", entry.ID)
	assert.Contains(t, entry.Name, "Server-Side Request Forgery")

	unknown, err := p.GetCWE("CWE-99999")
	require.NoError(t, err, "unknown IDs degrade to a placeholder")
	assert.Equal(t, "CWE-99999", unknown.ID)
	assert.Contains(t, unknown.Name, "Details Not Found")
}

func TestInMemoryCWEProvider_ForRule(t *testing.T) {
	p := NewInMemoryCWEProvider()

	id, ok := p.ForRule("sql-injection")
	require.True(t, ok)
	assert.Equal(t, "CWE-89", id)

	_, ok = p.ForRule("no-such-rule")
	assert.False(t, ok)

	// Every mapped rule points into the catalogue.
	for rule, cwe := range p.rules {
		_, known := p.data[cwe]
		assert.True(t, known, "rule %s maps to %s which has no entry", rule, cwe)
	}
}

func TestCWEEntry_URL(t *testing.T) {
	assert.Equal(t, "https://cwe.mitre.org/data/definitions/1050.html", CWEEntry{ID: "CWE-1050"}.URL())
	assert.Empty(t, CWEEntry{ID: "OWASP-A01"}.URL())
	for _, e := range NewInMemoryCWEProvider().data {
		assert.True(t, strings.HasSuffix(e.URL(), ".html"), e.ID)
	}
}
