package vcsevent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"pull_request": {
		"number": 42,
		"title": "Fix login bug",
		"body": null,
		"user": {"login": "alice"},
		"head": {"ref": "fix/login", "sha": "abc123", "repo": {"full_name": "alice/repo"}},
		"base": {"ref": "main", "repo": {"full_name": "org/repo"}}
	},
	"repository": {"full_name": "org/repo"}
}`

func TestParse_NullBodyBecomesEmptyString(t *testing.T) {
	pr, err := Parse([]byte(samplePayload))
	require.NoError(t, err)
	require.Equal(t, 42, pr.Number)
	require.Equal(t, "", pr.Description)
	require.Equal(t, "alice", pr.Author)
}

func TestParse_ForkDetection(t *testing.T) {
	pr, err := Parse([]byte(samplePayload))
	require.NoError(t, err)
	require.True(t, pr.IsForkPR())
}

func TestParse_SameRepoIsNotAFork(t *testing.T) {
	payload := `{
		"pull_request": {
			"number": 1, "title": "t", "body": "desc",
			"user": {"login": "bob"},
			"head": {"ref": "feat", "sha": "xyz", "repo": {"full_name": "org/repo"}},
			"base": {"ref": "main", "repo": {"full_name": "org/repo"}}
		},
		"repository": {"full_name": "org/repo"}
	}`

	pr, err := Parse([]byte(payload))
	require.NoError(t, err)
	require.False(t, pr.IsForkPR())
	require.Equal(t, "desc", pr.Description)
}
