package theme

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckoutName(t *testing.T) {
	require.Equal(t, "minimal", checkoutName("https://example.com/themes/minimal.git", ""))
	require.Equal(t, "minimal@v2", checkoutName("https://example.com/themes/minimal.git", "v2"))
}

func TestLayoutDirs_LocalFirst(t *testing.T) {
	dirs := LayoutDirs("_layouts", "/cache/minimal")
	require.Equal(t, []string{"_layouts", filepath.Join("/cache/minimal", "_layouts")}, dirs)
}

func TestLayoutDirs_NoTheme(t *testing.T) {
	require.Equal(t, []string{"_layouts"}, LayoutDirs("_layouts", ""))
}
