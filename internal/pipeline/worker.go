package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgallion1/dxfnet/internal/convert"
	"github.com/dgallion1/dxfnet/internal/network"
)

// Worker processes a single conversion job.
type Worker struct {
	conv  *convert.Converter
	stats *ConversionStats
	log   *slog.Logger
}

func NewWorker(conv *convert.Converter, stats *ConversionStats, log *slog.Logger) *Worker {
	return &Worker{conv: conv, stats: stats, log: log}
}

// Process runs the conversion for a job and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	conv := w.conv
	if job.Precision != conv.Options().Precision {
		conv = conv.WithPrecision(job.Precision)
	}

	phase := string(StatusQueued)
	res, err := conv.Convert(ctx, job.Filename, job.FileData(), func(p convert.Phase) {
		phase = string(p)
		job.SetStatus(JobStatus(p), phase)
	})
	if err != nil {
		w.stats.RecordFailure()
		switch {
		case errors.Is(err, network.ErrInput):
			log.Warn("rejected input", "phase", phase, "error", err)
		case errors.Is(err, network.ErrInvariant):
			log.Error("merge invariant violated", "phase", phase, "error", err)
		default:
			log.Error("conversion failed", "phase", phase, "error", err)
		}
		job.Fail(err, phase)
		return
	}

	w.stats.Record(res.Duration, res.Segments, len(res.Branches))
	log.Info("conversion complete",
		"segments", res.Segments,
		"branches", len(res.Branches),
		"nodes", res.Stats.Nodes,
		"duration_ms", res.Duration.Milliseconds(),
	)
	job.Complete(res)
}
