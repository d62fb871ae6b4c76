package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
	assert.Contains(t, km.Up.Keys(), "k")
	assert.Contains(t, km.Down.Keys(), "j")
}

func TestDefaultKeyMap_FetchActions(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []string{"f"}, km.Fetch.Keys())
	assert.Equal(t, []string{"e"}, km.Export.Keys())
	assert.Equal(t, []string{"r"}, km.Reset.Keys())
	assert.Equal(t, []string{"i"}, km.Invoices.Keys())
}

func TestDefaultKeyMap_ChallengeBindings(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ChallengeHelp()
	require.Len(t, help, 2)
	assert.Equal(t, "enter", help[0].Help().Key)
	assert.Equal(t, "skip", help[1].Help().Desc)
}

func TestKeyMap_FullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	assert.Equal(t, 13, total)
}

func TestMatches(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("q", km.Quit))
	assert.True(t, Matches("esc", km.Skip))
	assert.False(t, Matches("x", km.Fetch))
}
