package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyCmd_PrintsSelection(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"strategy", "doc.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Strategy: legacy")
	assert.Contains(t, out, "Complexity:")
}

func TestStrategyCmd_ServiceNotConfigured(t *testing.T) {
	oldService := analysisService
	analysisService = nil
	defer func() {
		analysisService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"strategy", "doc.txt"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	assert.Error(t, err)
}
