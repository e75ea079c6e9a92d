package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"load", "visualize", "export", "insight", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "insight-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestLoadCommand_Flags(t *testing.T) {
	flag := loadCmd.Flags().Lookup("geocode")
	require.NotNil(t, flag, "load command should have --geocode flag")
	assert.Equal(t, "false", flag.DefValue)
}

func TestVisualizeCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"chart", "json", "equals", "range", "search", "kpis"} {
		flag := visualizeCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "visualize should have --%s flag", flagName)
	}
	assert.Equal(t, "auto", visualizeCmd.Flags().Lookup("chart").DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "export command should have --format flag")
	assert.Equal(t, "xlsx", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSourceFileName(t *testing.T) {
	assert.Equal(t, "vendors.csv", sourceFileName("/data/vendors.csv"))
	assert.Equal(t, "spend.xlsx", sourceFileName("https://example.com/files/spend.xlsx"))
	assert.Equal(t, "payments.json", sourceFileName("ftp://host/pub/payments.json"))
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "vendors.xlsx", exportName("vendors.csv", "xlsx"))
	assert.Equal(t, "plain.shp", exportName("plain", "shp"))
}
