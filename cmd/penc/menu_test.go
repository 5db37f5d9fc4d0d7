package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/penc/internal/config"
	"github.com/1broseidon/penc/internal/ipc"
	"github.com/1broseidon/penc/internal/menu"
	"github.com/1broseidon/penc/internal/palette"
)

func TestPaletteItemsKeepsLayout(t *testing.T) {
	m := menu.New()
	m.WillOpen(menu.State{})

	items := paletteItems(m)
	require.Len(t, items, len(m.Items))
	assert.True(t, items[2].Separator)
	assert.Equal(t, palette.Item{Label: "About Penc", Action: menu.ActionAbout}, items[0])

	app := items[4]
	assert.Equal(t, "Disable for current app", app.Label)
	assert.True(t, app.Disabled)

	quit := items[len(items)-1]
	assert.Equal(t, "q", quit.Shortcut)
	assert.Equal(t, menu.ActionQuit, quit.Action)
}

func TestMenuMessage(t *testing.T) {
	assert.Equal(t, "Penc 1.0.0, enabled",
		menuMessage(&ipc.StatusData{Version: "1.0.0"}))
	assert.Equal(t, "Penc 1.0.0, disabled (frontmost: GIMP)",
		menuMessage(&ipc.StatusData{Version: "1.0.0", Disabled: true, FrontmostApp: "gimp", FrontmostAppName: "GIMP"}))
	assert.Equal(t, "Penc 1.0.0, enabled (frontmost: gimp)",
		menuMessage(&ipc.StatusData{Version: "1.0.0", FrontmostApp: "gimp"}))
}

func TestFormatSource(t *testing.T) {
	assert.Equal(t, "env:PENC_LOG_LEVEL", formatSource(config.Source{Kind: config.SourceEnv, Name: "PENC_LOG_LEVEL"}))
	assert.Equal(t, "default:defaults", formatSource(config.Source{Kind: config.SourceDefault, Name: "defaults"}))
	assert.Equal(t, "file:/tmp/c.yaml:3:5", formatSource(config.Source{Kind: config.SourceFile, File: "/tmp/c.yaml", Line: 3, Column: 5}))
}
