package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quietpress/quill/internal/config"
	"github.com/quietpress/quill/internal/history"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Source = t.TempDir()
	cfg.Destination = filepath.Join(t.TempDir(), "site")
	cfg.Title = "Quill Test"
	cfg.Workers = 2
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Destination, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

var siteFixture = map[string]string{
	"_layouts/default.html": "<html><head><title>{{ page.title }} - {{ site.title }}</title></head>" +
		"<body>{{ content }}{{ include.footer }}</body></html>",
	"_includes/footer.html": "<footer>made with quill</footer>",
	"_posts/2024-03-05-hello.md": "---\ntitle: Hello\nlayout: default\ntags: [go]\n---\n" +
		"# Hello\n\nWelcome to {{ site.title }}.\n",
	"about.md":      "---\ntitle: About\nlayout: default\npermalink: /about/\n---\nAbout page body.\n",
	"css/style.css": "body { margin: 0; }\n",
}

func TestRunBuildsSite(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Source, siteFixture)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, 2, report.Emitted)
	require.Equal(t, 1, report.Assets)

	post := readOutput(t, cfg, "2024/03/05/hello/index.html")
	require.Contains(t, post, "<h1")
	require.Contains(t, post, "Welcome to Quill Test.")
	require.Contains(t, post, "<title>Hello - Quill Test</title>")
	require.Contains(t, post, "<footer>made with quill</footer>")

	about := readOutput(t, cfg, "about/index.html")
	require.Contains(t, about, "About page body.")

	require.Equal(t, "body { margin: 0; }\n", readOutput(t, cfg, "css/style.css"))

	_, err = os.Stat(filepath.Join(cfg.Destination, ".quill-incomplete"))
	require.True(t, os.IsNotExist(err))
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Source, siteFixture)

	_, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	first := readOutput(t, cfg, "2024/03/05/hello/index.html")

	_, err = Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	second := readOutput(t, cfg, "2024/03/05/hello/index.html")

	require.Equal(t, first, second)
}

func TestRunDuplicatePermalinkIsFatal(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Source, map[string]string{
		"one.md": "---\ntitle: One\npermalink: /same/\n---\nfirst\n",
		"two.md": "---\ntitle: Two\npermalink: /same/\n---\nsecond\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.Error(t, err)
	require.True(t, report.Failed())
	require.Contains(t, err.Error(), "one.md")
	require.Contains(t, err.Error(), "two.md")

	// Emit never ran; no partial tree appears.
	_, statErr := os.Stat(cfg.Destination)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunLayoutCycleIsFatal(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Source, map[string]string{
		"_layouts/a.html": "---\nlayout: b\n---\nA {{ content }}",
		"_layouts/b.html": "---\nlayout: a\n---\nB {{ content }}",
		"page.md":         "---\ntitle: P\nlayout: a\n---\nbody\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.Error(t, err)
	require.True(t, report.Failed())

	_, statErr := os.Stat(cfg.Destination)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunSiblingsSurvivePerDocumentErrors(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Source, map[string]string{
		"broken.md":  "---\ntitle: Broken\npermalink: /:bogus/\n---\nnever emitted\n",
		"damaged.md": "---\ntitle: Damaged\nno closing delimiter\n",
		"good.md":    "---\ntitle: Good\npermalink: /good/\n---\nstill here\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeWarnings, report.Outcome)
	require.Equal(t, 2, report.Count(SeverityError))
	require.Equal(t, 1, report.Emitted)

	require.Contains(t, readOutput(t, cfg, "good/index.html"), "still here")
}

func TestRunUnknownLayoutExcludesOnlyThatDocument(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Source, map[string]string{
		"orphan.md": "---\ntitle: Orphan\nlayout: nope\npermalink: /orphan/\n---\nbody\n",
		"plain.md":  "---\ntitle: Plain\npermalink: /plain/\n---\nbody\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeWarnings, report.Outcome)
	require.Equal(t, 1, report.Emitted)

	_, statErr := os.Stat(filepath.Join(cfg.Destination, "orphan"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRunLayoutsSeeContentIndex(t *testing.T) {
	cfg := testConfig(t)
	writeTree(t, cfg.Source, map[string]string{
		"_layouts/post.html": "<nav>prev=[{{ page.previous_url }}] next=[{{ page.next_url }}]</nav>\n" +
			"<p>all: {{ site.posts }}</p>\n" +
			"<p>tags: {{ site.tags }}</p>\n" +
			"<p>go: {{ site.tagged.go }}</p>\n" +
			"{{ content }}",
		"_posts/2024-01-01-older.md": "---\ntitle: Older\nlayout: post\ntags: [go]\n---\nold body\n",
		"_posts/2024-02-01-newer.md": "---\ntitle: Newer\nlayout: post\ntags: [go, web]\n---\nnew body\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, report.Outcome)

	newer := readOutput(t, cfg, "2024/02/01/newer/index.html")
	require.Contains(t, newer, "prev=[/2024/01/01/older/]")
	require.Contains(t, newer, "next=[]")
	require.Contains(t, newer, "all: Newer, Older")
	require.Contains(t, newer, "tags: go, web")
	require.Contains(t, newer, "go: Newer, Older")

	older := readOutput(t, cfg, "2024/01/01/older/index.html")
	require.Contains(t, older, "prev=[]")
	require.Contains(t, older, "next=[/2024/02/01/newer/]")
}

func TestRunComposeTimeoutExcludesOnlyThatDocument(t *testing.T) {
	cfg := testConfig(t)
	cfg.RenderTimeout = config.Duration(time.Nanosecond)
	// The big layout keeps composition busy well past the expired timer.
	writeTree(t, cfg.Source, map[string]string{
		"_layouts/big.html": strings.Repeat("{{ content }} {{ page.title }} ", 100000),
		"slow.md":           "---\ntitle: Slow\nlayout: big\npermalink: /slow/\n---\nbody\n",
		"fast.md":           "---\ntitle: Fast\npermalink: /fast/\n---\nstill here\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeWarnings, report.Outcome)
	require.Equal(t, 1, report.Emitted)
	require.Contains(t, readOutput(t, cfg, "fast/index.html"), "still here")

	var timedOut bool
	for _, issue := range report.Issues {
		if issue.Source == "slow.md" && strings.Contains(issue.Message, "render timed out") {
			timedOut = true
		}
	}
	require.True(t, timedOut)

	_, statErr := os.Stat(filepath.Join(cfg.Destination, "slow"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRunDraftsFlag(t *testing.T) {
	files := map[string]string{
		"_drafts/2024-01-01-secret.md": "---\ntitle: Secret\n---\nshh\n",
	}

	cfg := testConfig(t)
	writeTree(t, cfg.Source, files)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 0, report.Emitted)

	cfg = testConfig(t)
	cfg.Drafts = true
	writeTree(t, cfg.Source, files)
	report, err = Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Emitted)
	require.Contains(t, readOutput(t, cfg, "2024/01/01/secret/index.html"), "shh")
}

func TestRunFutureFlag(t *testing.T) {
	files := map[string]string{
		"_posts/2999-01-01-later.md": "---\ntitle: Later\n---\nnot yet\n",
	}

	cfg := testConfig(t)
	writeTree(t, cfg.Source, files)
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 0, report.Emitted)

	cfg = testConfig(t)
	cfg.Future = true
	writeTree(t, cfg.Source, files)
	report, err = Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Emitted)
}

func TestRunStrictFailsOnUnresolvedVariable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strict = true
	writeTree(t, cfg.Source, map[string]string{
		"page.md": "---\ntitle: P\npermalink: /p/\n---\nvalue: {{ page.nope }}\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrBuildFailed)
	require.True(t, report.Failed())
	require.Equal(t, 0, report.Emitted)
}

func TestRunMissingVarPolicyKeep(t *testing.T) {
	cfg := testConfig(t)
	cfg.MissingVar = "keep"
	writeTree(t, cfg.Source, map[string]string{
		"page.md": "---\ntitle: P\npermalink: /p/\n---\nvalue: {{ page.nope }}\n",
	})

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomeWarnings, report.Outcome)
	require.Contains(t, readOutput(t, cfg, "p/index.html"), "{{ page.nope }}")
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	writeTree(t, cfg.Source, siteFixture)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	store, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	defer store.Close()

	recent, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, report.BuildID, recent[0].BuildID)
	require.Equal(t, string(OutcomeSuccess), recent[0].Outcome)
}
