package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignCommandPrintsFixedVector(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"sign", "--timestamp", "1700000000", "--app-id", "abc", "--secret", "secret",
		"--query", "b=x y", "--query", "a=1", "--query", "signature=ignored"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), `signing string: "POST\n/v1/pomodoros\na=1&b=x%20y\n1700000000\nabc"`)
	assert.Contains(t, buf.String(), "X-Signature: 1109730fc3779f5f656fd0a46481654cf9f71759db8bd607a5356b4d7e4d388d")
}
