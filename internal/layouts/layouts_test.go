package layouts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quietpress/quill/internal/site"
	"github.com/quietpress/quill/internal/vars"
)

func writeLayout(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_ParsesParentFromFrontMatter(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", "<html><body>{{ content }}</body></html>\n")
	writeLayout(t, dir, "post.html", "---\nlayout: default\n---\n<article>{{ content }}</article>\n")

	a, err := Load(10, dir)
	require.NoError(t, err)
	require.True(t, a.Has("default"))
	require.True(t, a.Has("post"))

	chain, err := a.Chain("p.md", "post")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, "post", chain[0].Name)
	require.Equal(t, "default", chain[1].Name)
}

func TestLoad_EarlierDirsShadowLater(t *testing.T) {
	local := t.TempDir()
	theme := t.TempDir()
	writeLayout(t, local, "default.html", "local {{ content }}")
	writeLayout(t, theme, "default.html", "theme {{ content }}")
	writeLayout(t, theme, "post.html", "theme post {{ content }}")

	a, err := Load(10, local, theme)
	require.NoError(t, err)

	out, _, err := a.Compose("p.md", "default", "X", vars.NewContext(), vars.PolicyEmpty)
	require.NoError(t, err)
	require.Equal(t, "local X", out)
	require.True(t, a.Has("post"))
}

func TestCompose_NestedChainWrapsInnermostFirst(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", "<html>{{ content }}</html>")
	writeLayout(t, dir, "post.html", "---\nlayout: default\n---\n<article>{{ content }}</article>")

	out, warnings, err := mustArena(t, dir).Compose("p.md", "post", "<p>body</p>", vars.NewContext(), vars.PolicyEmpty)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "<html><article><p>body</p></article></html>", out)
}

func TestCompose_PageBindingsVisibleToAllLayouts(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", "<title>{{ page.title }}</title>{{ content }}")

	ctx := vars.NewContext().WithNamespace("page", map[string]any{"title": "Hi"})
	out, _, err := mustArena(t, dir).Compose("p.md", "default", "B", ctx, vars.PolicyEmpty)
	require.NoError(t, err)
	require.Equal(t, "<title>Hi</title>B", out)
}

func TestCompose_UnresolvedBindingWarnsButSucceeds(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "default.html", "{{ page.missing }}{{ content }}")

	out, warnings, err := mustArena(t, dir).Compose("p.md", "default", "B", vars.NewContext(), vars.PolicyEmpty)
	require.NoError(t, err)
	require.Equal(t, "B", out)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "page.missing")
}

func TestChain_Cycle_ReturnsLayoutCycleError(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "a.html", "---\nlayout: b\n---\nA{{ content }}")
	writeLayout(t, dir, "b.html", "---\nlayout: c\n---\nB{{ content }}")
	writeLayout(t, dir, "c.html", "---\nlayout: a\n---\nC{{ content }}")

	_, err := mustArena(t, dir).Chain("p.md", "a")
	require.Error(t, err)
	require.True(t, site.IsFatal(err))

	var cycle *site.LayoutCycleError
	require.ErrorAs(t, err, &cycle)
	require.Equal(t, []string{"a", "b", "c", "a"}, cycle.Chain)
}

func TestChain_DepthExceeded_ReturnsLayoutCycleError(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "a.html", "---\nlayout: b\n---\n{{ content }}")
	writeLayout(t, dir, "b.html", "---\nlayout: c\n---\n{{ content }}")
	writeLayout(t, dir, "c.html", "{{ content }}")

	a, err := Load(2, dir)
	require.NoError(t, err)

	_, err = a.Chain("p.md", "a")
	var cycle *site.LayoutCycleError
	require.ErrorAs(t, err, &cycle)
}

func TestChain_UnknownLayout_NamesDocument(t *testing.T) {
	a, err := Load(10, t.TempDir())
	require.NoError(t, err)

	_, err = a.Chain("posts/p.md", "missing")
	require.Error(t, err)
	require.False(t, site.IsFatal(err))

	var unknown *site.UnknownLayoutError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "posts/p.md", unknown.Source)
	require.Equal(t, "missing", unknown.Layout)
}

func mustArena(t *testing.T, dirs ...string) *Arena {
	t.Helper()
	a, err := Load(10, dirs...)
	require.NoError(t, err)
	return a
}
