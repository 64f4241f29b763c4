package tags

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tagPattern = regexp.MustCompile(`^[a-z0-9._-]+$`)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple branch", "main", "main"},
		{"uppercase", "Feature/JIRA-123", "feature-jira-123"},
		{"merge ref", "2/merge", "2-merge"},
		{"nested slashes", "release/v1/hotfix", "release-v1-hotfix"},
		{"allowed punctuation", "v1.2_rc-3", "v1.2_rc-3"},
		{"leading and trailing dashes", "//weird//", "weird"},
		{"spaces", "my branch name", "my-branch-name"},
		{"unicode", "fëature/å", "f-ature"},
		{"empty", "", "unnamed"},
		{"all disallowed", "///", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeProperties(t *testing.T) {
	inputs := []string{
		"main", "2/merge", "Feature/ABC", "refs/heads/dev", "", "///",
		"a b c", "UPPER_case.mixed-1", strings.Repeat("x", 500),
		strings.Repeat("-", 200) + "tail", "ümlaut/брэнч",
	}

	for _, in := range inputs {
		got := Sanitize(in)

		// Output always matches the allowed alphabet and length bound.
		assert.Regexp(t, tagPattern, got, "input %q", in)
		assert.LessOrEqual(t, len(got), MaxTagLength, "input %q", in)

		// Re-sanitizing is a no-op.
		assert.Equal(t, got, Sanitize(got), "input %q", in)
	}
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Sanitize(long)
	assert.Len(t, got, MaxTagLength)

	// Truncation must not leave a trailing dash.
	boundary := strings.Repeat("a", MaxTagLength-1) + "-" + strings.Repeat("b", 50)
	assert.False(t, strings.HasSuffix(Sanitize(boundary), "-"))
}

func TestDerive(t *testing.T) {
	pair := Derive("2/merge", "abc123")
	assert.Equal(t, "2-merge", pair.Mutable)
	assert.Equal(t, "abc123", pair.Immutable)

	// The immutable tag is always the commit hash verbatim.
	pair = Derive("main", "DEADBEEF")
	assert.Equal(t, "DEADBEEF", pair.Immutable)

	// Deterministic across calls.
	assert.Equal(t, Derive("main", "abc"), Derive("main", "abc"))
}

func TestFor(t *testing.T) {
	got := For("ghcr.io", "acme", "calculator", "2/merge", "abc123")
	require.Len(t, got, 2)

	assert.Equal(t, "ghcr.io/acme/calculator:2-merge", got[0].Reference())
	assert.Equal(t, "ghcr.io/acme/calculator:abc123", got[1].Reference())
}
