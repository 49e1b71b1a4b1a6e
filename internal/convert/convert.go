// Package convert runs one conversion end to end: load geometry, build the
// network and render every requested artifact. Each call returns its own
// Result; nothing is kept between calls.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgallion1/dxfnet/internal/export"
	"github.com/dgallion1/dxfnet/internal/loader"
	"github.com/dgallion1/dxfnet/internal/metrics"
	"github.com/dgallion1/dxfnet/internal/network"
	"github.com/dgallion1/dxfnet/internal/preview"
)

// Phase names a step of a conversion.
type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseAssigning Phase = "assigning"
	PhaseMerging   Phase = "merging"
	PhaseRendering Phase = "rendering"
)

// Options configure a Converter.
type Options struct {
	Precision   int
	Loader      loader.Options
	LabelHeight float64
	Preview     preview.Options

	// Artifacts limits which files are rendered. Empty means all.
	Artifacts []string
}

// DefaultOptions renders every artifact at the default precision.
func DefaultOptions() Options {
	return Options{
		Precision:   network.DefaultPrecision,
		Loader:      loader.DefaultOptions(),
		LabelHeight: export.DefaultLabelHeight,
		Preview:     preview.DefaultOptions(),
	}
}

// Result is everything one conversion produced. The caller owns it.
type Result struct {
	Source    string            `json:"source"`
	Nodes     *network.NodeMap  `json:"nodes"`
	Segments  int               `json:"segments"`
	Branches  []network.Branch  `json:"branches"`
	Stats     network.Stats     `json:"stats"`
	Duration  time.Duration     `json:"duration_ns"`
	Artifacts map[string][]byte `json:"-"`
}

// ArtifactNames returns the rendered artifact names in a stable order.
func (r *Result) ArtifactNames() []string {
	var names []string
	for _, name := range AllArtifacts {
		if _, ok := r.Artifacts[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Converter turns uploaded drawings into networks and artifacts. It is safe
// for concurrent use.
type Converter struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Converter {
	return &Converter{opts: opts, log: log}
}

// Options returns the converter's configuration.
func (c *Converter) Options() Options { return c.opts }

// WithPrecision returns a converter that differs only in precision.
func (c *Converter) WithPrecision(precision int) *Converter {
	opts := c.opts
	opts.Precision = precision
	return &Converter{opts: opts, log: c.log}
}

// Convert processes one file. onPhase, if non-nil, is called as each phase
// starts. Cancellation is checked between phases.
func (c *Converter) Convert(ctx context.Context, filename string, data []byte, onPhase func(Phase)) (*Result, error) {
	start := time.Now()
	res, err := c.convert(ctx, filename, data, onPhase)
	elapsed := time.Since(start)

	metrics.ConversionsTotal.WithLabelValues(Outcome(err)).Inc()
	metrics.ConversionDuration.Observe(elapsed.Seconds())
	if err != nil {
		return nil, err
	}
	res.Duration = elapsed
	metrics.SegmentsIn.Observe(float64(res.Segments))
	metrics.BranchesOut.Observe(float64(len(res.Branches)))

	c.log.Debug("conversion complete",
		"file", filename,
		"segments", res.Segments,
		"branches", len(res.Branches),
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

func (c *Converter) convert(ctx context.Context, filename string, data []byte, onPhase func(Phase)) (*Result, error) {
	enter := func(p Phase) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if onPhase != nil {
			onPhase(p)
		}
		return nil
	}

	if err := enter(PhaseLoading); err != nil {
		return nil, err
	}
	l, err := loader.ForFile(filename, c.opts.Loader)
	if err != nil {
		return nil, &network.InputError{Index: -1, Reason: err.Error()}
	}
	polylines, err := l.Load(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}

	if err := enter(PhaseAssigning); err != nil {
		return nil, err
	}
	nodes, segments, err := network.AssignNodes(polylines, c.opts.Precision)
	if err != nil {
		return nil, fmt.Errorf("assign nodes: %w", err)
	}

	if err := enter(PhaseMerging); err != nil {
		return nil, err
	}
	branches, err := network.MergeBranches(segments)
	if err != nil {
		return nil, fmt.Errorf("merge branches: %w", err)
	}

	res := &Result{
		Source:    filename,
		Nodes:     nodes,
		Segments:  len(segments),
		Branches:  branches,
		Stats:     network.Summarize(branches),
		Artifacts: make(map[string][]byte),
	}

	if err := enter(PhaseRendering); err != nil {
		return nil, err
	}
	if err := c.render(res, polylines); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return res, nil
}

func (c *Converter) wants(name string) bool {
	return len(c.opts.Artifacts) == 0 || slices.Contains(c.opts.Artifacts, name)
}

func (c *Converter) render(res *Result, polylines []network.Polyline) error {
	var jpg []byte
	if c.wants(ArtifactPreview) || c.wants(ArtifactReport) {
		var buf bytes.Buffer
		labels := preview.NodeLabels(res.Nodes, res.Branches)
		if err := preview.Render(&buf, polylines, labels, c.opts.Preview); err != nil {
			return fmt.Errorf("%s: %w", ArtifactPreview, err)
		}
		jpg = buf.Bytes()
		if c.wants(ArtifactPreview) {
			res.Artifacts[ArtifactPreview] = jpg
		}
	}

	writers := []struct {
		name  string
		write func(*bytes.Buffer) error
	}{
		{ArtifactCSV, func(b *bytes.Buffer) error { return export.WriteCSV(b, res.Branches) }},
		{ArtifactDXF, func(b *bytes.Buffer) error {
			return export.WriteDXF(b, polylines, res.Nodes, res.Branches, c.opts.LabelHeight)
		}},
		{ArtifactGeoJSON, func(b *bytes.Buffer) error { return export.WriteGeoJSON(b, res.Nodes, res.Branches) }},
		{ArtifactReport, func(b *bytes.Buffer) error {
			return export.WriteReport(b, export.Report{
				Source:   res.Source,
				Segments: res.Segments,
				Stats:    res.Stats,
				Branches: res.Branches,
				Preview:  jpg,
			})
		}},
	}
	for _, w := range writers {
		if !c.wants(w.name) {
			continue
		}
		var buf bytes.Buffer
		if err := w.write(&buf); err != nil {
			return fmt.Errorf("%s: %w", w.name, err)
		}
		res.Artifacts[w.name] = buf.Bytes()
	}
	return nil
}

// Outcome classifies a conversion error for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, network.ErrInput):
		return "input_error"
	case errors.Is(err, network.ErrInvariant):
		return "invariant_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
