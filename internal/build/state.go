// Package build orchestrates the content pipeline as an ordered list of
// stages: scan, parse, render, index, compose, emit, verify. Parsing,
// rendering and composition fan out over a worker pool; the index stage is
// the synchronization point that freezes the snapshot consumed downstream.
package build

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/quietpress/quill/internal/config"
	"github.com/quietpress/quill/internal/content"
	"github.com/quietpress/quill/internal/layouts"
	"github.com/quietpress/quill/internal/markdown"
	"github.com/quietpress/quill/internal/metrics"
	"github.com/quietpress/quill/internal/site"
)

// StageName identifies a pipeline stage.
type StageName string

const (
	StageScan    StageName = "scan"
	StageParse   StageName = "parse"
	StageRender  StageName = "render"
	StageIndex   StageName = "index"
	StageCompose StageName = "compose"
	StageEmit    StageName = "emit"
	StageVerify  StageName = "verify"
)

// StageDef pairs a stage name with its implementation. A stage returning an
// error aborts the build; per-document problems go into the report instead.
type StageDef struct {
	Name StageName
	Fn   func(context.Context, *State) error
}

// State is the mutable build context threaded through the stages.
type State struct {
	Cfg      *config.Config
	BuildID  string
	Report   *Report
	Recorder metrics.Recorder

	BuildTime time.Time

	// Populated by the scan stage.
	Files    []content.File
	Assets   []content.File
	Arena    *layouts.Arena
	Includes map[string]any
	SiteVars map[string]any

	// Populated by the parse stage.
	Docs []*site.Document

	// Frozen by the index stage.
	Snapshot *site.Snapshot

	renderer *markdown.Renderer
}

// NewState prepares the build context.
func NewState(cfg *config.Config, buildID string, recorder metrics.Recorder) *State {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	now := time.Now()
	return &State{
		Cfg:       cfg,
		BuildID:   buildID,
		Report:    NewReport(buildID, cfg.Strict),
		Recorder:  recorder,
		BuildTime: now,
		Includes:  map[string]any{},
		SiteVars:  cfg.SiteVars(),
		renderer:  markdown.NewRenderer(),
	}
}

func (s *State) workers() int {
	if s.Cfg.Workers > 0 {
		return s.Cfg.Workers
	}
	return runtime.NumCPU()
}

// forEachFile runs fn over every scanned content file on the worker pool.
// The index lets callers write results into a pre-sized slice without locks.
func (s *State) forEachFile(fn func(int, content.File)) {
	jobs := make(chan int)
	var wg sync.WaitGroup

	for n := 0; n < s.workers(); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i, s.Files[i])
			}
		}()
	}

	for i := range s.Files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// forEachDoc runs fn over every non-failed document on the worker pool.
// Documents share no mutable state during these phases, so fn only needs to
// be safe with respect to the report.
func (s *State) forEachDoc(fn func(*site.Document)) {
	jobs := make(chan *site.Document)
	var wg sync.WaitGroup

	for n := 0; n < s.workers(); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				fn(doc)
			}
		}()
	}

	for _, doc := range s.Docs {
		if !doc.Failed() {
			jobs <- doc
		}
	}
	close(jobs)
	wg.Wait()
}
