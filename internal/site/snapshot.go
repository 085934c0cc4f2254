package site

import (
	"sort"
)

// Snapshot is the frozen content index: collections bucketed by kind, the
// derived tag index, and the output path table. It is built exactly once per
// build, after every document has rendered, and is read-only afterwards.
type Snapshot struct {
	collections map[string]*Collection
	tags        map[string][]*Document
	byOutput    map[string]*Document
}

// BuildSnapshot buckets documents into collections, sorts them, derives the
// tag index and checks the unique-permalink invariant. Documents already in a
// failed state are skipped. A DuplicatePermalinkError covers every collision
// found, so an author can fix all of them in one pass.
func BuildSnapshot(docs []*Document) (*Snapshot, error) {
	s := &Snapshot{
		collections: map[string]*Collection{
			"posts":  {Name: "posts"},
			"pages":  {Name: "pages"},
			"drafts": {Name: "drafts"},
		},
		tags:     map[string][]*Document{},
		byOutput: map[string]*Document{},
	}

	claims := map[string][]string{}
	for _, doc := range docs {
		if doc.Failed() {
			continue
		}
		claims[doc.Output] = append(claims[doc.Output], doc.Source)
	}

	var collisions []PermalinkCollision
	for output, sources := range claims {
		if len(sources) > 1 {
			sort.Strings(sources)
			collisions = append(collisions, PermalinkCollision{Output: output, Sources: sources})
		}
	}
	if len(collisions) > 0 {
		sort.Slice(collisions, func(i, j int) bool { return collisions[i].Output < collisions[j].Output })
		return nil, &DuplicatePermalinkError{Collisions: collisions}
	}

	for _, doc := range docs {
		if doc.Failed() {
			continue
		}

		switch doc.Kind {
		case KindPost:
			s.collections["posts"].Docs = append(s.collections["posts"].Docs, doc)
		case KindDraft:
			s.collections["drafts"].Docs = append(s.collections["drafts"].Docs, doc)
		default:
			s.collections["pages"].Docs = append(s.collections["pages"].Docs, doc)
		}

		for _, tag := range doc.Meta.Tags() {
			s.tags[tag] = append(s.tags[tag], doc)
		}

		s.byOutput[doc.Output] = doc
		doc.State = StateIndexed
	}

	// Posts and drafts order chronologically, newest first. Pages order by
	// explicit weight when given, then by source path.
	sortByDateDesc(s.collections["posts"].Docs)
	sortByDateDesc(s.collections["drafts"].Docs)
	sortByWeight(s.collections["pages"].Docs)

	for _, tagged := range s.tags {
		sortByDateDesc(tagged)
	}

	return s, nil
}

// Collection returns the named collection, or nil when unknown.
func (s *Snapshot) Collection(name string) *Collection { return s.collections[name] }

// Posts returns the posts collection, date descending.
func (s *Snapshot) Posts() []*Document { return s.collections["posts"].Docs }

// Pages returns the pages collection.
func (s *Snapshot) Pages() []*Document { return s.collections["pages"].Docs }

// Tags returns the tag names present in the index, sorted.
func (s *Snapshot) Tags() []string {
	names := make([]string, 0, len(s.tags))
	for name := range s.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tagged returns the documents carrying the given tag, date descending.
func (s *Snapshot) Tagged(tag string) []*Document { return s.tags[tag] }

// Previous returns the next-older post, or nil at the chronological start.
func (s *Snapshot) Previous(doc *Document) *Document {
	posts := s.Posts()
	for i, p := range posts {
		if p == doc {
			if i+1 < len(posts) {
				return posts[i+1]
			}
			return nil
		}
	}
	return nil
}

// Next returns the next-newer post, or nil for the newest one.
func (s *Snapshot) Next(doc *Document) *Document {
	posts := s.Posts()
	for i, p := range posts {
		if p == doc {
			if i > 0 {
				return posts[i-1]
			}
			return nil
		}
	}
	return nil
}

// Lookup returns the document that owns an output path.
func (s *Snapshot) Lookup(output string) (*Document, bool) {
	doc, ok := s.byOutput[output]
	return doc, ok
}

// Docs returns every indexed document across all collections.
func (s *Snapshot) Docs() []*Document {
	var all []*Document
	for _, name := range []string{"posts", "pages", "drafts"} {
		all = append(all, s.collections[name].Docs...)
	}
	return all
}

func sortByDateDesc(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Date.After(docs[j].Date)
		}
		return docs[i].Source < docs[j].Source
	})
}

func sortByWeight(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		wi, iok := docs[i].Meta.Weight()
		wj, jok := docs[j].Meta.Weight()
		switch {
		case iok && jok && wi != wj:
			return wi < wj
		case iok != jok:
			return iok
		default:
			return docs[i].Source < docs[j].Source
		}
	})
}
