package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

// InitCmd implements the 'init' command: it scaffolds a minimal site that
// builds cleanly out of the box.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Target directory"`
	Title string `default:"My Quill Site" help:"Site title written into the configuration"`
	Force bool   `help:"Overwrite files that already exist"`
}

// Scaffold templates use [[ ]] delimiters so the site's own {{ }} variable
// syntax passes through literally.
var scaffold = map[string]string{
	"quill.yaml": `title: [[ .Title ]]
# description: A blog built with quill
# base_url: https://example.com

source: .
destination: _site
permalink: /:year/:month/:day/:slug/

exclude:
  - quill.yaml
`,
	"_layouts/default.html": `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ page.title }} &middot; {{ site.title }}</title>
</head>
<body>
  <main>{{ content }}</main>
  {{ include.footer }}
</body>
</html>
`,
	"_layouts/post.html": `---
layout: default
---
<article>
  <h1>{{ page.title }}</h1>
  <time>{{ page.date }}</time>
  {{ content }}
</article>
`,
	"_includes/footer.html": `<footer>Published with quill.</footer>
`,
	"_posts/[[ .Date ]]-welcome.md": `---
title: Welcome
layout: post
tags: [meta]
---
This is your first post. It was created [[ .DateTime ]].

Edit it, add more files under ` + "`_posts/`" + `, then run ` + "`quill build`" + `.
`,
	"index.md": `---
title: Home
layout: default
permalink: /
---
# {{ site.title }}

Welcome to your new site.
`,
	".gitignore": `_site/
`,
}

func (i *InitCmd) Run(_ *Global, _ *CLI) error {
	now := time.Now()
	data := struct {
		Title    string
		Date     string
		DateTime string
	}{
		Title:    i.Title,
		Date:     now.Format("2006-01-02"),
		DateTime: now.Format("2006-01-02 15:04"),
	}

	for name, body := range scaffold {
		rel, err := renderScaffold(name, data)
		if err != nil {
			return err
		}
		content, err := renderScaffold(body, data)
		if err != nil {
			return err
		}

		path := filepath.Join(i.Dir, filepath.FromSlash(rel))
		if _, err := os.Stat(path); err == nil && !i.Force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		fmt.Printf("created %s\n", path)
	}

	fmt.Println("site initialized; run `quill build` to compile it")
	return nil
}

func renderScaffold(text string, data any) (string, error) {
	tmpl, err := template.New("scaffold").Delims("[[", "]]").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
