package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitScaffoldsSite(t *testing.T) {
	dir := t.TempDir()
	cmd := &InitCmd{Dir: dir, Title: "Test Site"}
	require.NoError(t, cmd.Run(nil, nil))

	cfg, err := os.ReadFile(filepath.Join(dir, "quill.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(cfg), "title: Test Site")

	layout, err := os.ReadFile(filepath.Join(dir, "_layouts", "default.html"))
	require.NoError(t, err)
	require.Contains(t, string(layout), "{{ content }}")

	post := filepath.Join(dir, "_posts", time.Now().Format("2006-01-02")+"-welcome.md")
	_, err = os.Stat(post)
	require.NoError(t, err)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	cmd := &InitCmd{Dir: dir, Title: "Test Site"}
	require.NoError(t, cmd.Run(nil, nil))

	err := cmd.Run(nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")

	cmd.Force = true
	require.NoError(t, cmd.Run(nil, nil))
}
