package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_PrintsVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "chronicle version")
}

func TestSetVersion(t *testing.T) {
	old := version
	defer func() { version = old }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}
