package main

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectDefinitions(t *testing.T) {
	global := []*discordgo.ApplicationCommand{{Name: "utils"}, {Name: "verify"}}
	dev := []*discordgo.ApplicationCommand{{Name: "dev"}}

	assert.Equal(t, global, selectDefinitions(global, dev, "", "devguild"))
	assert.Equal(t, dev, selectDefinitions(global, dev, "devguild", "devguild"))

	other := selectDefinitions(global, dev, "other", "devguild")
	require.NotNil(t, other, "an empty overwrite clears the guild")
	assert.Empty(t, other)
}

func TestRootCommandHasActions(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"list", "clean", "sync"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("guild"))
}
