package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesCauseChain(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, CategoryConfig, SeverityFatal, "load config")

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "config (fatal): load config: boom")
}

func TestGetCategory(t *testing.T) {
	require.Equal(t, CategoryLayout, GetCategory(New(CategoryLayout, SeverityError, "x")))
	require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
}

func TestWithContext(t *testing.T) {
	err := New(CategoryPermalink, SeverityError, "x").WithContext("source", "a.md")
	require.Equal(t, "a.md", err.Context["source"])
	require.True(t, IsCategory(err, CategoryPermalink))
}
