package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quietpress/quill/internal/site"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func scan(t *testing.T, root string, exclude ...string) map[string]File {
	t.Helper()
	files, err := NewScanner(root, exclude).Scan()
	require.NoError(t, err)
	byRel := map[string]File{}
	for _, f := range files {
		byRel[f.Rel] = f
	}
	return byRel
}

func TestScan_ClassifiesByLocation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_posts/2024-01-01-hello.md", "# Hi")
	writeFile(t, root, "_drafts/wip.md", "# Draft")
	writeFile(t, root, "about.md", "# About")
	writeFile(t, root, "css/main.css", "body{}")

	files := scan(t, root)
	require.Len(t, files, 4)
	require.Equal(t, site.KindPost, files["_posts/2024-01-01-hello.md"].Kind)
	require.Equal(t, site.KindDraft, files["_drafts/wip.md"].Kind)
	require.Equal(t, site.KindPage, files["about.md"].Kind)
	require.True(t, files["css/main.css"].IsAsset)
}

func TestScan_SkipsSpecialDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_layouts/default.html", "{{ content }}")
	writeFile(t, root, "_includes/header.html", "<header/>")
	writeFile(t, root, "_site/stale.html", "old output")
	writeFile(t, root, ".git/config", "x")
	writeFile(t, root, "index.md", "# Home")

	files := scan(t, root)
	require.Len(t, files, 1)
	require.Contains(t, files, "index.md")
}

func TestScan_HTMLWithFrontMatterIsPage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "feed.xml", "---\nlayout: feed\n---\n<feed/>")
	writeFile(t, root, "plain.html", "<html></html>")

	files := scan(t, root)
	require.Equal(t, site.KindPage, files["feed.xml"].Kind)
	require.False(t, files["feed.xml"].IsAsset)
	require.True(t, files["plain.html"].IsAsset)
}

func TestScan_ExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.tmp", "x")
	writeFile(t, root, "vendor/lib.md", "# vendored")
	writeFile(t, root, "index.md", "# Home")

	files := scan(t, root, "*.tmp", "vendor/*")
	require.Len(t, files, 1)
	require.Contains(t, files, "index.md")
}

func TestScan_MissingRoot_Fatal(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "missing"), nil).Scan()
	require.Error(t, err)
}

func TestScan_DotfilesSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".env", "SECRET=1")
	writeFile(t, root, "index.md", "# Home")

	files := scan(t, root)
	require.Len(t, files, 1)
}
