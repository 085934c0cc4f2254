package build

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quietpress/quill/internal/config"
	"github.com/quietpress/quill/internal/history"
	"github.com/quietpress/quill/internal/metrics"
	"github.com/quietpress/quill/internal/observability"
)

// ErrBuildFailed is returned when the pipeline finishes but the report holds
// fatal issues, including warnings promoted by strict mode.
var ErrBuildFailed = errors.New("build finished with fatal issues")

// Run executes one complete build. The returned report is always non-nil and
// describes what happened, even when the build failed.
func Run(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (*Report, error) {
	buildID := uuid.NewString()
	ctx = observability.WithBuildID(ctx, buildID)
	s := NewState(cfg, buildID, recorder)

	observability.InfoContext(ctx, "Build starting",
		slog.String("source", cfg.Source),
		slog.String("destination", cfg.Destination))

	stageErr := RunStages(ctx, s, Stages())

	for _, doc := range s.Docs {
		if doc.Failed() {
			s.Recorder.IncDocumentResult(metrics.ResultError)
		} else {
			s.Recorder.IncDocumentResult(metrics.ResultSuccess)
		}
	}

	s.Report.Finish()
	s.Recorder.ObserveBuildDuration(s.Report.Finished.Sub(s.Report.Started))
	s.Recorder.IncBuildOutcome(string(s.Report.Outcome))

	recordHistory(ctx, cfg, s.Report)
	exportMetrics(ctx, cfg, s.Recorder)

	observability.InfoContext(ctx, "Build finished",
		slog.String("outcome", string(s.Report.Outcome)),
		slog.Int("documents", s.Report.Documents),
		slog.Int("emitted", s.Report.Emitted))

	if stageErr != nil {
		return s.Report, stageErr
	}
	if s.Report.Failed() {
		return s.Report, ErrBuildFailed
	}
	return s.Report, nil
}

func recordHistory(ctx context.Context, cfg *config.Config, report *Report) {
	if cfg.History.Path == "" {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		observability.WarnContext(ctx, "History store unavailable", slog.String("error", err.Error()))
		return
	}
	defer store.Close()

	rec := history.BuildRecord{
		BuildID:   report.BuildID,
		Started:   report.Started,
		Finished:  report.Finished,
		Outcome:   string(report.Outcome),
		Documents: report.Documents,
		Emitted:   report.Emitted,
		Assets:    report.Assets,
		Issues:    len(report.Issues),
	}
	issues := make([]history.Issue, 0, len(report.Issues))
	for _, issue := range report.Issues {
		issues = append(issues, history.Issue{
			BuildID:  report.BuildID,
			Severity: issue.Severity,
			Stage:    string(issue.Stage),
			Source:   issue.Source,
			Message:  issue.Message,
		})
	}
	if err := store.RecordBuild(ctx, rec, issues); err != nil {
		observability.WarnContext(ctx, "Recording build history failed", slog.String("error", err.Error()))
	}
}

func exportMetrics(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	pr, ok := recorder.(*metrics.PrometheusRecorder)
	if !ok {
		return
	}
	if err := metrics.WriteTextfile(pr.Registry(), cfg.Metrics.Textfile); err != nil {
		observability.WarnContext(ctx, "Writing metrics textfile failed", slog.String("error", err.Error()))
	}
}
