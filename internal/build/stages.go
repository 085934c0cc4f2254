package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/quietpress/quill/internal/content"
	"github.com/quietpress/quill/internal/emit"
	"github.com/quietpress/quill/internal/frontmatter"
	"github.com/quietpress/quill/internal/layouts"
	"github.com/quietpress/quill/internal/linkcheck"
	"github.com/quietpress/quill/internal/observability"
	"github.com/quietpress/quill/internal/permalink"
	"github.com/quietpress/quill/internal/site"
	"github.com/quietpress/quill/internal/slug"
	"github.com/quietpress/quill/internal/theme"
	"github.com/quietpress/quill/internal/vars"
)

// Stages returns the pipeline in execution order.
func Stages() []StageDef {
	return []StageDef{
		{Name: StageScan, Fn: stageScan},
		{Name: StageParse, Fn: stageParse},
		{Name: StageRender, Fn: stageRender},
		{Name: StageIndex, Fn: stageIndex},
		{Name: StageCompose, Fn: stageCompose},
		{Name: StageEmit, Fn: stageEmit},
		{Name: StageVerify, Fn: stageVerify},
	}
}

// stageScan discovers source files, loads layouts (theme first when one is
// configured, local directories shadowing it) and reads includes.
func stageScan(ctx context.Context, s *State) error {
	themeRoot := ""
	if s.Cfg.Theme != nil {
		root, err := theme.Fetch(ctx, s.Cfg.Theme)
		if err != nil {
			return err
		}
		themeRoot = root
	}

	// Keep the destination out of the scan when it nests inside the source.
	var skipDirs []string
	if rel, err := filepath.Rel(s.Cfg.Source, s.Cfg.Destination); err == nil && rel != ".." && !strings.HasPrefix(rel, "../") {
		skipDirs = append(skipDirs, filepath.ToSlash(rel))
	}

	files, err := content.NewScanner(s.Cfg.Source, s.Cfg.Exclude, skipDirs...).Scan()
	if err != nil {
		return err
	}
	for _, f := range files {
		if f.IsAsset {
			s.Assets = append(s.Assets, f)
		} else {
			s.Files = append(s.Files, f)
		}
	}

	layoutDirs := theme.LayoutDirs(filepath.Join(s.Cfg.Source, s.Cfg.LayoutsDir), themeRoot)
	arena, err := layouts.Load(s.Cfg.LayoutDepth, layoutDirs...)
	if err != nil {
		return err
	}
	s.Arena = arena

	for _, dir := range theme.IncludeDirs(filepath.Join(s.Cfg.Source, s.Cfg.IncludesDir), themeRoot) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			if _, shadowed := s.Includes[name]; shadowed {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				s.Report.AddWarning(StageScan, entry.Name(), "unreadable include: "+err.Error())
				continue
			}
			s.Includes[name] = string(data)
		}
	}

	observability.InfoContext(ctx, "Scan complete",
		slog.Int("documents", len(s.Files)),
		slog.Int("assets", len(s.Assets)),
		slog.Int("layouts", len(s.Arena.Names())))
	return nil
}

// stageParse reads and parses every content file on the worker pool. Parse
// failures exclude the document; siblings continue.
func stageParse(ctx context.Context, s *State) error {
	out := make([]*site.Document, len(s.Files))

	s.forEachFile(func(i int, f content.File) {
		doc, keep := s.parseFile(ctx, f)
		if keep {
			out[i] = doc
		}
	})

	for _, doc := range out {
		if doc == nil {
			continue
		}
		s.Docs = append(s.Docs, doc)
	}
	s.Report.Documents = len(s.Docs)
	return nil
}

// parseFile turns one scanned file into a document. keep is false when the
// file is filtered out entirely (unpublished, excluded draft, future post).
func (s *State) parseFile(ctx context.Context, f content.File) (*site.Document, bool) {
	doc := &site.Document{Source: f.Rel, Kind: f.Kind, State: site.StateParsed}

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		s.failDoc(doc, StageParse, fmt.Errorf("read source: %w", err))
		return doc, true
	}

	fm, body, _, err := frontmatter.Split(raw)
	if err != nil {
		s.failDoc(doc, StageParse, &site.MalformedFrontMatterError{Source: f.Rel, Cause: err})
		return doc, true
	}
	meta, err := frontmatter.Decode(fm)
	if err != nil {
		s.failDoc(doc, StageParse, &site.MalformedFrontMatterError{Source: f.Rel, Cause: err})
		return doc, true
	}
	doc.Meta = meta
	doc.RawBody = body

	fnameDate, fnameSlug := slug.FromFilename(filepath.Base(f.Rel))
	date, hasDate, err := meta.Date()
	if err != nil {
		s.failDoc(doc, StageParse, &site.MalformedFrontMatterError{Source: f.Rel, Cause: err})
		return doc, true
	}
	if !hasDate {
		date, hasDate = fnameDate, !fnameDate.IsZero()
	}
	doc.Date = date

	switch {
	case meta.Slug() != "":
		doc.Slug = slug.Make(meta.Slug())
	case fnameSlug != "":
		doc.Slug = fnameSlug
	default:
		doc.Slug = slug.Make(strings.TrimSuffix(filepath.Base(f.Rel), filepath.Ext(f.Rel)))
	}

	// Visibility filters run before any path resolution work.
	if !meta.Published() {
		observability.DebugContext(ctx, "Skipping unpublished document", slog.String("document", f.Rel))
		return nil, false
	}
	if (doc.Kind == site.KindDraft || meta.Draft()) && !s.Cfg.Drafts {
		observability.DebugContext(ctx, "Skipping draft", slog.String("document", f.Rel))
		return nil, false
	}
	if doc.Kind == site.KindPost && hasDate && date.After(s.BuildTime) && !s.Cfg.Future {
		observability.DebugContext(ctx, "Skipping future-dated post", slog.String("document", f.Rel))
		return nil, false
	}

	pattern := meta.Permalink()
	if pattern == "" && (doc.Kind == site.KindPost || doc.Kind == site.KindDraft) {
		pattern = s.Cfg.Permalink
	}
	if pattern == "" {
		doc.Output = permalink.DefaultPagePath(f.Rel)
		return doc, true
	}

	expanded, err := permalink.Expand(f.Rel, pattern, permalink.Vars{
		Date:       date,
		HasDate:    hasDate,
		Slug:       doc.Slug,
		Title:      meta.Title(),
		Categories: meta.Categories(),
	})
	if err != nil {
		s.failDoc(doc, StageParse, err)
		return doc, true
	}
	doc.Output = permalink.OutputPath(expanded)
	return doc, true
}

// stageRender substitutes variables into each raw body and converts markdown
// to HTML. Substitution runs first so variable values pass through the
// markdown renderer like any other source text.
func stageRender(ctx context.Context, s *State) error {
	policy := s.Cfg.MissingVarPolicy()

	s.forEachDoc(func(doc *site.Document) {
		bindings := s.bindingsFor(doc)
		substituted, missing := vars.Substitute(string(doc.RawBody), bindings, policy)
		for _, name := range missing {
			s.warnDoc(ctx, doc, StageRender, fmt.Sprintf("unresolved variable {{ %s }}", name))
		}
		if doc.Failed() {
			return
		}

		rendered := []byte(substituted)
		if markdownSource(doc.Source) {
			html, err := s.renderer.Render(rendered)
			if err != nil {
				s.failDoc(doc, StageRender, err)
				return
			}
			rendered = html
		}
		doc.Rendered = rendered
		doc.State = site.StateBodyRendered
	})
	return nil
}

// stageIndex freezes the snapshot. Permalink collisions surface here and are
// build-fatal; the duplicate report names every colliding source.
func stageIndex(ctx context.Context, s *State) error {
	snapshot, err := site.BuildSnapshot(s.Docs)
	if err != nil {
		return err
	}
	s.Snapshot = snapshot
	s.publishIndexBindings()
	observability.DebugContext(ctx, "Index frozen",
		slog.Int("posts", len(snapshot.Posts())),
		slog.Int("pages", len(snapshot.Pages())),
		slog.Int("tags", len(snapshot.Tags())))
	return nil
}

// publishIndexBindings folds the frozen index into the site namespace so
// layouts can cross-reference it: `site.posts` (titles, newest first),
// `site.tags`, and `site.tagged.<tag>` per-tag post listings.
func (s *State) publishIndexBindings() {
	titles := make([]string, 0, len(s.Snapshot.Posts()))
	for _, post := range s.Snapshot.Posts() {
		titles = append(titles, post.Title())
	}
	s.SiteVars["posts"] = titles
	s.SiteVars["post_count"] = len(titles)
	s.SiteVars["tags"] = s.Snapshot.Tags()

	for _, tag := range s.Snapshot.Tags() {
		tagged := make([]string, 0, len(s.Snapshot.Tagged(tag)))
		for _, post := range s.Snapshot.Tagged(tag) {
			tagged = append(tagged, post.Title())
		}
		s.SiteVars["tagged."+tag] = tagged
	}
}

// stageCompose wraps each rendered body in its layout chain. Layout cycles
// are build-fatal; a per-document timeout bounds pathological compositions.
func stageCompose(ctx context.Context, s *State) error {
	policy := s.Cfg.MissingVarPolicy()
	timeout := s.Cfg.RenderTimeout.Std()

	var fatalMu sync.Mutex
	var fatal error

	s.forEachDoc(func(doc *site.Document) {
		name := doc.Meta.Layout()
		if name == "" {
			doc.Composed = doc.Rendered
			doc.State = site.StateComposed
			return
		}

		type result struct {
			out      string
			warnings []string
			err      error
		}
		done := make(chan result, 1)
		go func() {
			out, warnings, err := s.Arena.Compose(doc.Source, name, string(doc.Rendered), s.bindingsFor(doc), policy)
			done <- result{out: out, warnings: warnings, err: err}
		}()

		select {
		case r := <-done:
			if r.err != nil {
				if site.IsFatal(r.err) {
					fatalMu.Lock()
					if fatal == nil {
						fatal = r.err
					}
					fatalMu.Unlock()
				}
				s.failDoc(doc, StageCompose, r.err)
				return
			}
			for _, w := range r.warnings {
				s.warnDoc(ctx, doc, StageCompose, w)
			}
			if doc.Failed() {
				return
			}
			doc.Composed = []byte(r.out)
			doc.State = site.StateComposed
		case <-time.After(timeout):
			s.failDoc(doc, StageCompose, &site.RenderTimeoutError{Source: doc.Source, Timeout: timeout})
		case <-ctx.Done():
			s.failDoc(doc, StageCompose, ctx.Err())
		}
	})

	return fatal
}

// stageEmit writes composed documents and copies assets. The incomplete
// marker brackets the writes so an aborted run is detectable.
func stageEmit(ctx context.Context, s *State) error {
	emitter := emit.New(s.Cfg.Destination)
	if err := emitter.Begin(s.Cfg.Clean); err != nil {
		return err
	}

	for _, doc := range s.Docs {
		if doc.State != site.StateComposed {
			continue
		}
		if err := emitter.WriteDocument(doc.Output, doc.Composed); err != nil {
			s.failDoc(doc, StageEmit, err)
			continue
		}
		doc.State = site.StateEmitted
		s.Report.Emitted++
	}

	for _, asset := range s.Assets {
		if err := emitter.CopyAsset(asset.Path, asset.Rel); err != nil {
			s.Report.AddError(StageEmit, asset.Rel, "copy asset: "+err.Error())
			continue
		}
		s.Report.Assets++
	}

	if err := emitter.Finish(); err != nil {
		return err
	}
	observability.InfoContext(ctx, "Emit complete",
		slog.Int("documents", s.Report.Emitted),
		slog.Int("assets", s.Report.Assets))
	return nil
}

// stageVerify checks internal links across the emitted tree. Broken links
// are warnings; strict mode promotes them like any other warning.
func stageVerify(ctx context.Context, s *State) error {
	if s.Cfg.SkipLinkCheck {
		observability.DebugContext(ctx, "Link check skipped")
		return nil
	}
	issues, err := linkcheck.Verify(s.Cfg.Destination)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		s.Report.AddWarning(StageVerify, issue.File, fmt.Sprintf("broken link %q", issue.Href))
	}
	return nil
}

// bindingsFor assembles the substitution context for one document: site-wide
// values, per-page values derived from front matter, and includes. Once the
// index is frozen, posts additionally see their chronological neighbors.
func (s *State) bindingsFor(doc *site.Document) *vars.Context {
	page := make(map[string]any, len(doc.Meta)+8)
	for k, v := range doc.Meta {
		page[k] = v
	}
	page["title"] = doc.Title()
	page["slug"] = doc.Slug
	page["url"] = doc.URL()
	if !doc.Date.IsZero() {
		page["date"] = doc.Date
	}

	if s.Snapshot != nil && doc.Kind == site.KindPost {
		// Bound to "" when there is no neighbor, so shared layouts render
		// without unresolved-variable warnings at either end.
		page["previous_url"], page["previous_title"] = "", ""
		page["next_url"], page["next_title"] = "", ""
		if prev := s.Snapshot.Previous(doc); prev != nil {
			page["previous_url"] = prev.URL()
			page["previous_title"] = prev.Title()
		}
		if next := s.Snapshot.Next(doc); next != nil {
			page["next_url"] = next.URL()
			page["next_title"] = next.Title()
		}
	}

	return vars.NewContext().
		WithNamespace("site", s.SiteVars).
		WithNamespace("page", page).
		WithNamespace("include", s.Includes)
}

// failDoc records a per-document error and excludes the document.
func (s *State) failDoc(doc *site.Document, stage StageName, err error) {
	doc.Fail(err)
	s.Report.AddError(stage, doc.Source, err.Error())
}

// warnDoc records a warning against a document. Strict mode additionally
// excludes the document so the build cannot ship degraded output.
func (s *State) warnDoc(ctx context.Context, doc *site.Document, stage StageName, message string) {
	s.Report.AddWarning(stage, doc.Source, message)
	observability.WarnContext(observability.WithDocument(ctx, doc.Source), message)
	if s.Cfg.Strict && !doc.Failed() {
		doc.Fail(fmt.Errorf("strict: %s", message))
	}
}

func markdownSource(source string) bool {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
