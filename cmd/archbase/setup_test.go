package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readServers(t *testing.T, path, key string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	servers, ok := doc[key].(map[string]any)
	require.True(t, ok, "missing %q in %s", key, data)
	return servers
}

func TestMergeServerEntry(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		out, err := mergeServerEntry(nil, "mcpServers", nil)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, byte('\n'), out[len(out)-1])

		var doc map[string]any
		require.NoError(t, json.Unmarshal(out, &doc))
		entry := doc["mcpServers"].(map[string]any)["archbase"].(map[string]any)
		assert.Equal(t, "archbase", entry["command"])
		assert.Equal(t, []any{"serve"}, entry["args"])
	})

	t.Run("keeps other servers and keys", func(t *testing.T) {
		existing := []byte(`{"inputs": [], "mcpServers": {"other": {"command": "other"}}}`)
		out, err := mergeServerEntry(existing, "mcpServers", nil)
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(out, &doc))
		assert.Contains(t, doc, "inputs")
		servers := doc["mcpServers"].(map[string]any)
		assert.Contains(t, servers, "other")
		assert.Contains(t, servers, "archbase")
	})

	t.Run("already configured", func(t *testing.T) {
		existing := []byte(`{"mcpServers": {"archbase": {"command": "archbase"}}}`)
		out, err := mergeServerEntry(existing, "mcpServers", nil)
		assert.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("extra fields", func(t *testing.T) {
		out, err := mergeServerEntry([]byte("  \n"), "servers", map[string]string{"type": "stdio"})
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(out, &doc))
		entry := doc["servers"].(map[string]any)["archbase"].(map[string]any)
		assert.Equal(t, "stdio", entry["type"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := mergeServerEntry([]byte("not json"), "mcpServers", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JSON")
	})
}

func TestPromptYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"nope\n", false},
		{"", true},
	}
	for _, tt := range tests {
		var w bytes.Buffer
		got := promptYesNo(bufio.NewReader(strings.NewReader(tt.input)), &w, "Continue?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Continue? [Y/n] ", w.String())
	}
}

func TestPromptYesNo_SharedReader(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("n\ny\n"))
	var w bytes.Buffer
	assert.False(t, promptYesNo(r, &w, "first"))
	assert.True(t, promptYesNo(r, &w, "second"))
}

func TestDetectAgents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".vscode"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".mcp.json"),
		[]byte(`{"mcpServers": {"archbase": {"command": "archbase"}}}`), 0o644))

	found := detectAgents(root)
	require.Len(t, found, 2)

	assert.Equal(t, "vscode", found[0].target.ID)
	assert.Equal(t, filepath.Join(root, ".vscode", "mcp.json"), found[0].configPath)
	assert.False(t, found[0].configured)

	assert.Equal(t, "project", found[1].target.ID)
	assert.True(t, found[1].configured)
}

func TestExecuteSetup_NoAgents(t *testing.T) {
	var w bytes.Buffer
	require.NoError(t, executeSetup(t.TempDir(), strings.NewReader(""), &w, setupOptions{}))
	assert.Contains(t, w.String(), "No supported editors detected")
}

func TestExecuteSetup_Auto(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".vscode"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".cursor"), 0o755))

	var w bytes.Buffer
	require.NoError(t, executeSetup(root, strings.NewReader(""), &w, setupOptions{auto: true}))

	vscode := readServers(t, filepath.Join(root, ".vscode", "mcp.json"), "servers")
	assert.Equal(t, "stdio", vscode["archbase"].(map[string]any)["type"])

	cursor := readServers(t, filepath.Join(root, ".cursor", "mcp.json"), "mcpServers")
	assert.Contains(t, cursor, "archbase")

	assert.Contains(t, w.String(), "VS Code configured")
	assert.Contains(t, w.String(), "Cursor configured")
}

func TestExecuteSetup_Interactive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".vscode"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".cursor"), 0o755))

	// Confirm globally, accept VS Code, decline Cursor.
	var w bytes.Buffer
	require.NoError(t, executeSetup(root, strings.NewReader("y\ny\nn\n"), &w, setupOptions{}))

	assert.FileExists(t, filepath.Join(root, ".vscode", "mcp.json"))
	assert.NoFileExists(t, filepath.Join(root, ".cursor", "mcp.json"))
	assert.Contains(t, w.String(), "skipped")
}

func TestExecuteSetup_Declined(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".cursor"), 0o755))

	var w bytes.Buffer
	require.NoError(t, executeSetup(root, strings.NewReader("n\n"), &w, setupOptions{}))
	assert.NoFileExists(t, filepath.Join(root, ".cursor", "mcp.json"))
}

func TestExecuteSetup_SkipsConfigured(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".mcp.json")
	original := `{"mcpServers": {"archbase": {"command": "custom"}}}`
	require.NoError(t, os.WriteFile(path, []byte(original), 0o644))

	var w bytes.Buffer
	require.NoError(t, executeSetup(root, strings.NewReader(""), &w, setupOptions{auto: true}))
	assert.Contains(t, w.String(), "already configured")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestExecuteSetup_InvalidConfigFails(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".cursor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".cursor", "mcp.json"), []byte("{broken"), 0o644))

	var w bytes.Buffer
	err := executeSetup(root, strings.NewReader(""), &w, setupOptions{auto: true})
	require.Error(t, err)
	assert.Contains(t, w.String(), "invalid JSON")
}
