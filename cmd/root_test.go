package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"classify", "legend", "lookup", "styles", "export", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "choropleth", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestClassifyCommand_Flags(t *testing.T) {
	for _, name := range []string{"attribute", "mode", "classes", "breaks", "save", "output"} {
		assert.NotNil(t, classifyCmd.Flags().Lookup(name), "classify should have --%s", name)
	}
	assert.Equal(t, "text", classifyCmd.Flags().Lookup("output").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestStylesCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range stylesCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "delete"} {
		assert.True(t, names[name], "styles should have subcommand %q", name)
	}
}

func TestExportCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range exportCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"geojson", "assignments", "legend"} {
		assert.True(t, names[name], "export should have subcommand %q", name)
	}
	assert.NotNil(t, exportAssignmentsCmd.Flags().Lookup("replace"))
	assert.NotNil(t, exportCmd.PersistentFlags().Lookup("out"))
}
