// Command wheelcalc builds a chart wheel from a JSON config file and prints the
// cusps, body positions and aspects.
//
//	wheelcalc -config natal.json
//	wheelcalc -config - -json < natal.json
//	wheelcalc -config natal.json -server http://localhost:8080 -save natal
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/talgya/astrowheel/internal/aspects"
	"github.com/talgya/astrowheel/internal/chart"
	"github.com/talgya/astrowheel/internal/client"
	"github.com/talgya/astrowheel/internal/zodiac"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "wheelcalc:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("wheelcalc", flag.ContinueOnError)
	configPath := fs.String("config", "", "chart config JSON file, or - for stdin")
	asJSON := fs.Bool("json", false, "print the full wheel as JSON")
	all := fs.Bool("all", false, "include hidden aspects")
	server := fs.String("server", "", "build on a running wheelchart API instead of locally")
	save := fs.String("save", "", "with -server, store the chart under this name first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("-config is required")
	}

	raw, err := readConfig(*configPath, stdin)
	if err != nil {
		return err
	}
	slog.Debug("config read", "path", *configPath, "size", humanize.Bytes(uint64(len(raw))))

	var cfg chart.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	wheel, err := build(cfg, *server, *save, stdout)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(wheel)
	}
	return printWheel(stdout, wheel, *all)
}

func build(cfg chart.Config, server, save string, stdout io.Writer) (*chart.Wheel, error) {
	if server == "" {
		if save != "" {
			return nil, errors.New("-save needs -server")
		}
		return chart.NewBuilder().Build(cfg)
	}

	c := client.New(server, os.Getenv("WHEELCHART_ADMIN_KEY"))
	if save == "" {
		return c.Wheel(cfg)
	}
	rec, err := c.SaveChart(save, cfg)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(stdout, "saved %q as %s\n", rec.Name, rec.ID)
	return c.ChartWheel(rec.ID)
}

func readConfig(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printWheel(out io.Writer, w *chart.Wheel, all bool) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	approx := ""
	if w.Approximated {
		approx = " (approximated)"
	}
	fmt.Fprintf(tw, "Houses: %s%s\n", w.System.Name(), approx)
	for _, l := range w.CuspLines {
		fmt.Fprintf(tw, "  %s\t%s\t%.4f\n", l.Label, zodiac.FormatDMS(l.Longitude), l.Longitude)
	}

	fmt.Fprintln(tw, "\nBodies:")
	for _, p := range w.Positions {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s house\n", p.Name, p.Set, p.DMS, humanize.Ordinal(p.House))
	}

	for _, rel := range []string{chart.RelPrimary, chart.RelSecondary, chart.RelCross} {
		found, ok := w.Aspects[rel]
		if !ok {
			continue
		}
		if !all {
			found = aspects.FilterVisible(found)
		}
		fmt.Fprintf(tw, "\nAspects (%s): %d\n", rel, len(found))
		for _, a := range found {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%.2f°\n", a.A, a.Name, a.B, a.Deviation)
		}
	}
	return tw.Flush()
}
