package templates

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerFS(t *testing.T) {
	fsys := fstest.MapFS{
		"email/greet.tmpl": {Data: []byte(`{{.Count}} {{plural .Count "thing" "things"}} for {{join .Names ", "}}`)},
	}

	m, err := NewManagerFS(fsys, "email/*.tmpl")
	require.NoError(t, err)
	require.NoError(t, m.Require("greet.tmpl"))
	assert.Error(t, m.Require("missing.tmpl"))

	out, err := m.ExecuteTemplate("greet.tmpl", map[string]interface{}{
		"Count": 1,
		"Names": []string{"NVDA", "VTI"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1 thing for NVDA, VTI", out)
}

func TestNewManager_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "email"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "email", "hello.tmpl"), []byte(`hi {{upper .}}`), 0o644))

	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.True(t, m.TemplateExists("hello.tmpl"))

	out, err := m.ExecuteTemplate("hello.tmpl", "there")
	require.NoError(t, err)
	assert.Equal(t, "hi THERE", out)

	_, err = m.ExecuteTemplate("nope.tmpl", nil)
	assert.Error(t, err)
}

func TestNewManager_EmptyDirectory(t *testing.T) {
	_, err := NewManager(t.TempDir())
	assert.Error(t, err)
}
