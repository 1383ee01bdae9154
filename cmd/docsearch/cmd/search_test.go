package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_HasFlags(t *testing.T) {
	cmd := newSearchCmd()

	assert.NotNil(t, cmd.Flags().Lookup("limit"))
	assert.NotNil(t, cmd.Flags().Lookup("collection"))
	assert.NotNil(t, cmd.Flags().Lookup("format"))

	localFlag := cmd.Flags().Lookup("local")
	assert.NotNil(t, localFlag)
	assert.Equal(t, "false", localFlag.DefValue)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"search"})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestSearchCmd_Local_NoResultsOnEmptyCorpus(t *testing.T) {
	tmpDir := t.TempDir()

	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldDir) }()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"search", "--local", "nothing indexed yet"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no results for")
}

func TestSearchCmd_Local_FindsIndexedDocument(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		tmpDir+"/notes.md",
		[]byte("# hybrid search\nthis document describes BM25 and vector fusion."),
		0o644,
	))

	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldDir) }()

	indexCmd := NewRootCmd()
	indexCmd.SetArgs([]string{"index", tmpDir})
	require.NoError(t, indexCmd.Execute())

	searchCmd := NewRootCmd()
	buf := new(bytes.Buffer)
	searchCmd.SetOut(buf)
	searchCmd.SetErr(buf)
	searchCmd.SetArgs([]string{"search", "--local", "hybrid fusion"})

	require.NoError(t, searchCmd.Execute())
	assert.Contains(t, buf.String(), "notes.md")
}
