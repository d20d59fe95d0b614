package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteFormats(t *testing.T) {
	got, _ := completeFormats(nil, nil, "")
	assert.Contains(t, got, "svg")
	assert.Contains(t, got, "dot-svg")

	got, _ = completeFormats(nil, nil, "svg,js")
	assert.NotContains(t, got, "svg,svg", "chosen formats are not offered again")
	assert.Contains(t, got, "svg,json")
}

func TestCompleteAttributes(t *testing.T) {
	got, _ := completeAttributes(nil, nil, "")
	assert.Contains(t, got, "columns=")
	assert.Contains(t, got, "gap=")

	got, _ = completeAttributes(nil, nil, "gap=1")
	assert.Empty(t, got)
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			require.NoError(t, root.Execute())
			assert.Contains(t, out.String(), "masonry")
		})
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, root.Execute())
}
