// Command dxfnet converts a drawing into its branch network from the
// command line, writing the same artifacts the server offers for download.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/dxfnet/internal/config"
	"github.com/dgallion1/dxfnet/internal/convert"
	"github.com/dgallion1/dxfnet/internal/network"
)

const (
	exitOK    = 0
	exitError = 1
	exitInput = 2
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(12)
	valueStyle = lipgloss.NewStyle().Bold(true)
	fileStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: dxfnet convert -o DIR [-precision N] [-lines=false] FILE")
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "convert" {
		usage(stderr)
		return exitInput
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render("error:")+" "+err.Error())
		return exitError
	}
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("o", ".", "directory to write artifacts to")
	precision := fs.Int("precision", cfg.Precision, "decimal places endpoints are rounded to")
	lines := fs.Bool("lines", cfg.IncludeLines, "include DXF LINE entities")
	verbose := fs.Bool("v", false, "log conversion details")
	if err := fs.Parse(args[1:]); err != nil {
		return exitInput
	}
	if fs.NArg() != 1 {
		usage(stderr)
		return exitInput
	}
	path := fs.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg.Precision = *precision
	cfg.IncludeLines = *lines
	conv := convert.New(cfg.ConvertOptions(), log)

	written, res, err := convertFile(context.Background(), conv, path, *outDir)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render("error:")+" "+err.Error())
		if errors.Is(err, network.ErrInput) {
			return exitInput
		}
		return exitError
	}

	fmt.Fprintln(stdout, summary(res, written))
	return exitOK
}

// convertFile converts path and writes every artifact into dir, returning
// the written paths in artifact order.
func convertFile(ctx context.Context, conv *convert.Converter, path, dir string) ([]string, *convert.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	res, err := conv.Convert(ctx, filepath.Base(path), data, nil)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output directory: %w", err)
	}
	var written []string
	for _, name := range res.ArtifactNames() {
		out := filepath.Join(dir, name)
		if err := os.WriteFile(out, res.Artifacts[name], 0o644); err != nil {
			return nil, nil, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, out)
	}
	return written, res, nil
}

func summary(res *convert.Result, written []string) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	st := res.Stats
	rows := []string{
		titleStyle.Render(res.Source),
		row("segments", strconv.Itoa(res.Segments)),
		row("nodes", strconv.Itoa(st.Nodes)),
		row("branches", strconv.Itoa(st.Branches)),
		row("junctions", strconv.Itoa(st.Junctions)),
		row("endpoints", strconv.Itoa(st.Endpoints)),
		row("loops", strconv.Itoa(st.SelfLoops)),
		row("components", strconv.Itoa(st.Components)),
		row("length", strconv.FormatFloat(st.TotalLength, 'f', -1, 64)),
		"",
	}
	for _, w := range written {
		rows = append(rows, fileStyle.Render(w))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
