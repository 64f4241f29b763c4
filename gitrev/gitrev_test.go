package gitrev

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one commit and returns its path and the
// commit hash.
func initRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	path := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(path, []byte("calculator\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	hash, err := wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "author@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestOpen_DetectsDotGitFromSubdirectory(t *testing.T) {
	dir, _ := initRepo(t)
	sub := filepath.Join(dir, "some", "nested", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	resolver, err := Open(sub)
	require.NoError(t, err)

	_, _, err = resolver.Head()
	assert.NoError(t, err)
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestHead(t *testing.T) {
	dir, want := initRepo(t)
	resolver, err := Open(dir)
	require.NoError(t, err)

	refName, commitSHA, err := resolver.Head()
	require.NoError(t, err)
	assert.Equal(t, "master", refName)
	assert.Equal(t, want, commitSHA)
}

func TestResolve(t *testing.T) {
	dir, want := initRepo(t)
	resolver, err := Open(dir)
	require.NoError(t, err)

	t.Run("branch name", func(t *testing.T) {
		got, err := resolver.Resolve("master")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("full hash", func(t *testing.T) {
		got, err := resolver.Resolve(want)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("unknown revision", func(t *testing.T) {
		_, err := resolver.Resolve("no-such-branch")
		assert.Error(t, err)
	})
}

func TestTriggerContext(t *testing.T) {
	dir, want := initRepo(t)
	resolver, err := Open(dir)
	require.NoError(t, err)

	t.Run("empty ref uses HEAD", func(t *testing.T) {
		tc, err := resolver.TriggerContext("ci", "")
		require.NoError(t, err)
		assert.Equal(t, "ci", tc.Pipeline)
		assert.Equal(t, "master", tc.RefName)
		assert.Equal(t, want, tc.CommitSHA)
	})

	t.Run("explicit ref is resolved", func(t *testing.T) {
		tc, err := resolver.TriggerContext("ci", "master")
		require.NoError(t, err)
		assert.Equal(t, "master", tc.RefName)
		assert.Equal(t, want, tc.CommitSHA)
	})
}
