package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tender-barbarian/class-lens/internal/classfile/classgen"
	"github.com/tender-barbarian/class-lens/internal/codec"
	"github.com/tender-barbarian/class-lens/internal/report"
)

func writeClass(t *testing.T, dir string, c *classgen.Class, file string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), c.Bytes(), 0o644))
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"classlens"}, args...))
	return stdout.String(), stderr.String(), err
}

func classesDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "classes")
	writeClass(t, dir, classgen.New("com.x.Base"), "Base.class")
	writeClass(t, filepath.Join(dir, "sub"), classgen.New("com.x.Child").Super("com.x.Base"), "Child.class")
	return dir
}

func TestIndexAndDump(t *testing.T) {
	dir := classesDir(t)
	out := filepath.Join(t.TempDir(), "app.idx")

	_, stderr, err := run(t, "index", "-o", out, "--recursive", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote index")
	assert.FileExists(t, out)

	stdout, _, err := run(t, "dump", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: com.x.Base")
	assert.Contains(t, stdout, "name: com.x.Child")

	stdout, _, err = run(t, "dump", "--format", "json", out)
	require.NoError(t, err)
	var view report.IndexView
	require.NoError(t, json.Unmarshal([]byte(stdout), &view))
	require.Len(t, view.Classes, 2)
	assert.Equal(t, "com.x.Base", view.Classes[1].Super)

	_, _, err = run(t, "dump", "--format", "xml", out)
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestIndexOlderVersion(t *testing.T) {
	out := filepath.Join(t.TempDir(), "old.idx")
	_, _, err := run(t, "index", "-o", out, "--version", "9", "-r", classesDir(t))
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 4)
	assert.Equal(t, byte(9), data[4])

	idx, err := readIndex(out)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Empty(t, idx.UserNames())
}

func TestIndexUnsupportedVersionKeepsFile(t *testing.T) {
	dir := classesDir(t)
	out := filepath.Join(t.TempDir(), "app.idx")
	_, _, err := run(t, "index", "-o", out, dir)
	require.NoError(t, err)
	before, err := os.ReadFile(out)
	require.NoError(t, err)

	_, _, err = run(t, "index", "-o", out, "--version", "1", "-r", dir)
	assert.ErrorIs(t, err, codec.ErrUnsupportedVersion)

	after, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIndexFromConfig(t *testing.T) {
	dir := classesDir(t)
	tmp := t.TempDir()
	out := filepath.Join(tmp, "cfg.idx")
	cfg := filepath.Join(tmp, "classlens.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("roots: ["+dir+"]\noutput: "+out+"\nrecursive: true\nlog_level: warn\n"), 0o644))

	_, stderr, err := run(t, "--config", cfg, "index")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "wrote index")

	idx, err := readIndex(out)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestIndexSkipsBadInputs(t *testing.T) {
	dir := classesDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Bad.class"), []byte{0xCA, 0xFE, 0xBA, 0xBE}, 0o644))
	out := filepath.Join(t.TempDir(), "app.idx")

	_, stderr, err := run(t, "index", "-o", out, "-r", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipped input")

	_, _, err = run(t, "index", "-o", out, "-r", "--fail-fast", dir)
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	dir := classesDir(t)
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.idx")
	b := filepath.Join(tmp, "b.idx")
	_, _, err := run(t, "index", "-o", a, "-r", dir)
	require.NoError(t, err)
	_, _, err = run(t, "index", "-o", b, "-r", dir)
	require.NoError(t, err)

	stdout, _, err := run(t, "diff", a, b)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	writeClass(t, dir, classgen.New("com.x.Extra"), "Extra.class")
	_, _, err = run(t, "index", "-o", b, "-r", dir)
	require.NoError(t, err)

	stdout, _, err = run(t, "diff", a, b)
	assert.ErrorIs(t, err, errDiffers)
	assert.Contains(t, stdout, "+  - name: com.x.Extra")
}

func TestCommandErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.idx")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"index without paths", []string{"index"}, "no input paths"},
		{"dump arity", []string{"dump"}, "dump takes one index file"},
		{"dump missing file", []string{"dump", missing}, "opening index"},
		{"diff arity", []string{"diff", missing}, "diff takes two index files"},
		{"bad log level", []string{"--log-level", "loud", "dump", missing}, "invalid log level"},
		{"missing explicit config", []string{"--config", missing, "dump", missing}, "reading config"},
		{"serve with both sources", []string{"serve", "--index", missing, "--root", missing}, "mutually exclusive"},
		{"serve missing index", []string{"serve", "--index", missing}, "opening index"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
