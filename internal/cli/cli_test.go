package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rabotim/internal/ctxutil"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "rabotim"}
	root.PersistentFlags().String("as", "", "")
	return root
}

func TestActorID_FlagWinsOverEnv(t *testing.T) {
	t.Setenv(ActorEnv, "env-user")

	root := newRoot()
	assert.Equal(t, "env-user", actorID(root))

	require.NoError(t, root.PersistentFlags().Set("as", "flag-user"))
	assert.Equal(t, "flag-user", actorID(root))
}

func TestRequireActor_Missing(t *testing.T) {
	t.Setenv(ActorEnv, "")

	_, err := requireActor(newRoot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as")
}

func TestNewContext_CarriesActor(t *testing.T) {
	t.Setenv(ActorEnv, "u-1")

	ctx := NewContext(newRoot())
	assert.Equal(t, "u-1", ctxutil.ActorFromContext(ctx))
}

func TestParseScore(t *testing.T) {
	score, err := parseScore("4")
	require.NoError(t, err)
	assert.Equal(t, 4, score)

	_, err = parseScore("four")
	assert.Error(t, err)
}

func TestRegister_AddsCommands(t *testing.T) {
	root := &cobra.Command{Use: "rabotim"}
	Register(root)

	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"profile", "add"},
		{"task", "confirm"},
		{"task", "eligibility"},
		{"application", "accept"},
		{"review", "submit"},
		{"log", "list"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
