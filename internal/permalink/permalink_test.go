package permalink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quietpress/quill/internal/site"
)

func TestExpand_DatedPattern(t *testing.T) {
	v := Vars{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), HasDate: true, Slug: "hello"}
	out, err := Expand("p.md", "/:year/:month/:day/:slug/", v)
	require.NoError(t, err)
	require.Equal(t, "/2024/03/05/hello/", out)
}

func TestExpand_MissingSlug_Fails(t *testing.T) {
	v := Vars{Date: time.Now(), HasDate: true}
	_, err := Expand("p.md", "/:year/:slug/", v)
	require.Error(t, err)

	var unresolved *site.UnresolvedPermalinkError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "slug", unresolved.Placeholder)
	require.Equal(t, "p.md", unresolved.Source)
}

func TestExpand_MissingDate_Fails(t *testing.T) {
	_, err := Expand("p.md", "/:year/:slug/", Vars{Slug: "x"})
	var unresolved *site.UnresolvedPermalinkError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "year", unresolved.Placeholder)
}

func TestExpand_UnknownPlaceholder_Fails(t *testing.T) {
	_, err := Expand("p.md", "/:bogus/", Vars{Slug: "x"})
	var unresolved *site.UnresolvedPermalinkError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "bogus", unresolved.Placeholder)
}

func TestExpand_TitleIsSlugified(t *testing.T) {
	out, err := Expand("p.md", "/:title/", Vars{Title: "Hello, World!"})
	require.NoError(t, err)
	require.Equal(t, "/hello-world/", out)
}

func TestExpand_EmptyCategoriesCollapses(t *testing.T) {
	v := Vars{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), HasDate: true, Slug: "x"}
	out, err := Expand("p.md", "/:categories/:year/:slug/", v)
	require.NoError(t, err)
	require.Equal(t, "/2024/x/", out)
}

func TestOutputPath(t *testing.T) {
	require.Equal(t, "2024/03/x/index.html", OutputPath("/2024/03/x/"))
	require.Equal(t, "about/index.html", OutputPath("/about"))
	require.Equal(t, "feed.xml", OutputPath("/feed.xml"))
	require.Equal(t, "index.html", OutputPath("/"))
}

func TestDefaultPagePath(t *testing.T) {
	require.Equal(t, "about.html", DefaultPagePath("about.md"))
	require.Equal(t, "docs/setup.html", DefaultPagePath("docs/setup.markdown"))
}
