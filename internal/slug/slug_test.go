package slug

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMake_LowercasesAndHyphenates(t *testing.T) {
	require.Equal(t, "hello-world", Make("Hello, World!"))
}

func TestMake_StripsDiacritics(t *testing.T) {
	require.Equal(t, "cafe-au-lait", Make("Café au Lait"))
}

func TestMake_CollapsesSeparators(t *testing.T) {
	require.Equal(t, "a-b-c", Make("  a -- b __ c  "))
}

func TestFromFilename_DateStamped(t *testing.T) {
	date, s := FromFilename("2024-03-05-my-first-post.md")
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), date)
	require.Equal(t, "my-first-post", s)
}

func TestFromFilename_NoStamp_ReturnsZeroDate(t *testing.T) {
	date, s := FromFilename("About Me.md")
	require.True(t, date.IsZero())
	require.Equal(t, "about-me", s)
}

func TestFromFilename_InvalidDate_FallsBackToWholeName(t *testing.T) {
	date, s := FromFilename("2024-13-99-nope.md")
	require.True(t, date.IsZero())
	require.Equal(t, "2024-13-99-nope", s)
}
