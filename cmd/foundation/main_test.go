package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func suiteArgs(t *testing.T, args ...string) []string {
	t.Helper()
	return append([]string{args[0], args[1], "--engine", "memory", "--suite", t.Name()}, args[2:]...)
}

func TestPrefsSetThenGet(t *testing.T) {
	_, err := execute(t, suiteArgs(t, "prefs", "set", "fontSize", "14", "--type", "int")...)
	require.NoError(t, err)

	out, err := execute(t, suiteArgs(t, "prefs", "get", "fontSize", "--as", "integer")...)
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)

	out, err = execute(t, suiteArgs(t, "prefs", "get", "fontSize", "--as", "string")...)
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)
}

func TestPrefsSetWideInt(t *testing.T) {
	_, err := execute(t, suiteArgs(t, "prefs", "set", "bytes", "5000000000", "--type", "int")...)
	require.NoError(t, err)

	out, err := execute(t, suiteArgs(t, "prefs", "get", "bytes", "--as", "integer")...)
	require.NoError(t, err)
	assert.Equal(t, "5000000000\n", out)
}

func TestPrefsGetUnsetUsesModuleLabel(t *testing.T) {
	out, err := execute(t, suiteArgs(t, "prefs", "get", "nothing")...)
	require.NoError(t, err)
	assert.Equal(t, "(not set)\n", out)
}

func TestPrefsRemove(t *testing.T) {
	_, err := execute(t, suiteArgs(t, "prefs", "set", "theme", "dark")...)
	require.NoError(t, err)

	out, err := execute(t, suiteArgs(t, "prefs", "rm", "theme")...)
	require.NoError(t, err)
	assert.Equal(t, "removed theme\n", out)

	out, err = execute(t, suiteArgs(t, "prefs", "get", "theme")...)
	require.NoError(t, err)
	assert.Equal(t, "(not set)\n", out)
}

func TestPrefsListIsSorted(t *testing.T) {
	_, err := execute(t, suiteArgs(t, "prefs", "set", "b", "true", "--type", "bool")...)
	require.NoError(t, err)
	_, err = execute(t, suiteArgs(t, "prefs", "set", "a", "hello")...)
	require.NoError(t, err)

	out, err := execute(t, suiteArgs(t, "prefs", "list")...)
	require.NoError(t, err)
	assert.Equal(t, "a\thello\nb\ttrue\n", out)
}

func TestPrefsSetRejectsBadInput(t *testing.T) {
	_, err := execute(t, suiteArgs(t, "prefs", "set", "k", "abc", "--type", "int")...)
	assert.ErrorContains(t, err, "parse int")

	_, err = execute(t, suiteArgs(t, "prefs", "set", "k", "v", "--type", "matrix")...)
	assert.ErrorContains(t, err, `unknown type "matrix"`)

	_, err = execute(t, suiteArgs(t, "prefs", "get", "k", "--as", "matrix")...)
	assert.ErrorContains(t, err, `unknown reader "matrix"`)
}

func TestPrefsFileEnginePersists(t *testing.T) {
	dir := t.TempDir()
	args := func(rest ...string) []string {
		return append([]string{"prefs"}, append(rest, "--engine", "file", "--dir", dir, "--suite", "cli")...)
	}

	_, err := execute(t, args("set", "when", "2024-05-01T10:00:00Z", "--type", "time")...)
	require.NoError(t, err)

	out, err := execute(t, args("get", "when", "--as", "time")...)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T10:00:00Z\n", out)
	assert.FileExists(t, filepath.Join(dir, "cli.yaml"))
}

func TestUnknownEngine(t *testing.T) {
	_, err := execute(t, "prefs", "list", "--engine", "floppy")
	assert.Error(t, err)
}

func writeBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"resources.lst":                "Localizable.strings\nen.lproj/Localizable.strings\nfr.lproj/Localizable.strings\n",
		"Localizable.strings":          `"greeting" = "Hello";`,
		"en.lproj/Localizable.strings": `"greeting" = "Hello";`,
		"fr.lproj/Localizable.strings": `"greeting" = "Bonjour";`,
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestBundleCommands(t *testing.T) {
	dir := writeBundle(t)

	out, err := execute(t, "bundle", "resolve", dir, "Localizable", "strings", "--loc", "fr")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "fr.lproj", "Localizable.strings")), strings.TrimSpace(out))

	out, err = execute(t, "bundle", "index", dir)
	require.NoError(t, err)
	assert.Equal(t, "Localizable.strings\nen.lproj/Localizable.strings\nfr.lproj/Localizable.strings\n", out)

	out, err = execute(t, "bundle", "localizations", dir)
	require.NoError(t, err)
	assert.Equal(t, "en\nfr\n", out)

	out, err = execute(t, "bundle", "localizations", dir, "--prefer", "fr-CA")
	require.NoError(t, err)
	assert.Equal(t, "fr\n", out)

	out, err = execute(t, "bundle", "string", dir, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello\n", out)

	out, err = execute(t, "bundle", "string", dir, "missing", "--value", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback\n", out)
}
