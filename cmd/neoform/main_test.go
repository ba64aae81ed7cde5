package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const descriptor = `{
  "version": "1.21",
  "java_target": 21,
  "libraries": {"client": ["com.mojang:logging:1.2.7"]},
  "data": {"mappings": "config/joined.tsrg", "inject": "inject/", "patches": {"client": "patches/client/", "server": "patches/server/"}},
  "steps": {
    "client": [
      {"type": "downloadManifest"},
      {"type": "downloadJson"},
      {"type": "downloadClient"},
      {"type": "listLibraries"},
      {"type": "strip", "input": "{downloadClientOutput}"},
      {"type": "rename", "input": "{stripOutput}"},
      {"type": "inject", "input": "{renameOutput}"},
      {"type": "patch", "input": "{injectOutput}"}
    ],
    "server": [
      {"type": "downloadManifest"},
      {"type": "downloadJson"},
      {"type": "downloadServer"},
      {"type": "listLibraries"},
      {"type": "strip", "input": "{downloadServerOutput}"},
      {"type": "inject", "input": "{stripOutput}"},
      {"type": "patch", "input": "{injectOutput}"}
    ]
  },
  "functions": {
    "rename": {"version": "net.neoforged:autorenamingtool:2.0.3:all", "args": ["--input", "{input}", "--map", "{mappings}", "--output", "{output}"]}
  }
}`

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "neoform.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("config.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(descriptor))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", writeArchive(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Graph is valid")
	assert.Contains(t, out, "for client")
}

func TestValidateCommand_UnknownDist(t *testing.T) {
	out, err := execute(t, "validate", "--dist", "joined", writeArchive(t))
	flagDist = "client"
	require.Error(t, err)
	assert.Contains(t, out, "Validation failed")
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", writeArchive(t))
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "recompile")
}

func TestCompileCommand_JSON(t *testing.T) {
	out, err := execute(t, "compile", "--json", writeArchive(t))
	flagJSON = false
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "recompile"`)
	assert.Contains(t, out, `"kind": "compile"`)
}

func TestDaemonExec_RequiresWork(t *testing.T) {
	_, err := execute(t, "daemon", "exec", "--config", "daemon.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to run")
}

func TestReadBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\n--input a.jar --output b.jar\n\n  --help  \n"), 0o644))

	batch, err := readBatch(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"--input", "a.jar", "--output", "b.jar"},
		{"--help"},
	}, batch)
}
