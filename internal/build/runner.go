package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/quietpress/quill/internal/observability"
)

// RunStages executes the pipeline stages in order. Cancellation is honored
// between stages; a stage error is recorded as fatal and aborts the run.
func RunStages(ctx context.Context, s *State, stages []StageDef) error {
	for _, stage := range stages {
		select {
		case <-ctx.Done():
			s.Report.AddFatal(stage.Name, "", "build canceled: "+ctx.Err().Error())
			return ctx.Err()
		default:
		}

		stageCtx := observability.WithStage(ctx, string(stage.Name))
		observability.DebugContext(stageCtx, "Stage starting")

		start := time.Now()
		err := stage.Fn(stageCtx, s)
		elapsed := time.Since(start)

		s.Report.RecordStageDuration(stage.Name, elapsed)
		s.Recorder.ObserveStageDuration(string(stage.Name), elapsed)

		if err != nil {
			s.Report.AddFatal(stage.Name, "", err.Error())
			observability.ErrorContext(stageCtx, "Stage failed",
				slog.Duration("duration", elapsed),
				slog.String("error", err.Error()))
			return err
		}
		observability.DebugContext(stageCtx, "Stage complete", slog.Duration("duration", elapsed))
	}
	return nil
}
