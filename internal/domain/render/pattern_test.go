package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/value"
)

func ctx(t *testing.T, src string) *value.Object {
	t.Helper()
	v, err := value.Parse([]byte(src))
	require.NoError(t, err)
	return v.Object()
}

func TestPattern_Expand(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{DefaultFileName, "2024-01-02.md"},
		{"{category}/{id}-{views}.txt", "notes/abc-12.txt"},
		{"{{literal}}-{id}", "{literal}-abc"},
		{"static.md", "static.md"},
		{"{draft}.md", "false.md"},
	}
	c := ctx(t, `{"created_at":"2024-01-02","category":"notes","id":"abc","views":12,"draft":false}`)
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			got, err := p.Expand(c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPattern_MissingField(t *testing.T) {
	p, err := ParsePattern(DefaultFileName)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at"}, p.Fields())

	_, err = p.Expand(ctx(t, `{"title":"x"}`))
	require.ErrorIs(t, err, domain.ErrFilenameFieldMissing)
	assert.Contains(t, err.Error(), "created_at")
}

func TestParsePattern_Invalid(t *testing.T) {
	for _, s := range []string{"{", "{id", "{}", "a}b", "{a{b}"} {
		_, err := ParsePattern(s)
		assert.ErrorIs(t, err, domain.ErrInvalidPattern, "pattern=%q", s)
	}
}
