package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"admitcli/internal/batch"
	"admitcli/internal/classify"
	"admitcli/internal/config"
	"admitcli/internal/infrastructure"
	"admitcli/internal/ledger"
	"admitcli/internal/matcher"
	"admitcli/internal/pipeline"
	"admitcli/internal/validation"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts/domain"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 500
)

// env holds what every command needs.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	otel   *infrastructure.OTelProviders
	ledger *ledger.Ledger
	runner *pipeline.Runner
	writer *workbook.Writer
}

// setup loads configuration and opens the ledger. The runner and its
// reference lists are only built when withRunner is set.
func setup(ctx context.Context, configPath string, withRunner bool) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Nothing scrapes a one-shot process; spans still carry trace ids.
	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	otelCfg.MetricExporter = "none"
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, otel: providers, writer: workbook.NewWriter(logger)}

	e.ledger, err = ledger.Open(ctx, ledger.Config{Driver: cfg.Ledger.Driver, DSN: cfg.Ledger.DSN}, logger)
	if err != nil {
		e.close(ctx)
		return nil, err
	}

	if withRunner {
		metrics, err := infrastructure.CreatePassMetrics(providers.Meter)
		if err != nil {
			e.close(ctx)
			return nil, err
		}
		reader := workbook.NewReader(logger)
		refs := classify.LoadReferences(reader, logger, cfg.References.SchoolFile, cfg.References.MajorFile)
		e.runner = pipeline.NewRunner(pipeline.Deps{
			Reader:       reader,
			Classifier:   classify.New(refs, nil),
			Orchestrator: batch.New(cfg.Engine.ChunkSize, cfg.Engine.Workers, logger),
			Ledger:       e.ledger,
			Metrics:      metrics,
			Logger:       logger,
		})
	}
	return e, nil
}

func (e *env) close(ctx context.Context) {
	if e.ledger != nil {
		if err := e.ledger.Close(); err != nil {
			e.logger.WarnContext(ctx, "failed to close ledger", slog.String("error", err.Error()))
		}
	}
	if e.otel != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := e.otel.Shutdown(shutdownCtx); err != nil {
			e.logger.WarnContext(ctx, "failed to shut down telemetry", slog.String("error", err.Error()))
		}
	}
}

func runRemarks(ctx context.Context, configPath string, args []string, std stdio) error {
	fs := flag.NewFlagSet("remarks", flag.ContinueOnError)
	in := fs.String("in", "", "major score workbook (required)")
	out := fs.String("out", "", "output workbook (default <in>_remarks.xlsx)")
	if err := parseFlags(fs, args, std, "in"); err != nil {
		return err
	}

	return withPass(ctx, configPath, std, *in, *out, domain.PassRemarks, nil, func(e *env, src pipeline.Source) (*pipeline.Output, []workbook.Sheet, error) {
		res, err := e.runner.RemarksPass(ctx, src, progressPrinter(std.err))
		if err != nil {
			return nil, nil, err
		}
		return res, res.Sheets, nil
	})
}

func runScores(ctx context.Context, configPath string, args []string, std stdio) error {
	fs := flag.NewFlagSet("scores", flag.ContinueOnError)
	in := fs.String("in", "", "major score workbook (required)")
	template := fs.String("template", pipeline.TemplateGeneral, "score template: general or art")
	out := fs.String("out", "", "output workbook (default <in>_scores.xlsx)")
	if err := parseFlags(fs, args, std, "in"); err != nil {
		return err
	}

	return withPass(ctx, configPath, std, *in, *out, domain.PassScores, nil, func(e *env, src pipeline.Source) (*pipeline.Output, []workbook.Sheet, error) {
		res, err := e.runner.ScoresPass(ctx, src, *template, progressPrinter(std.err))
		if err != nil {
			return nil, nil, err
		}
		return res, res.Sheets, nil
	})
}

func runMatch(ctx context.Context, configPath string, args []string, std stdio) error {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	in := fs.String("in", "", "score workbook whose group codes are filled (required)")
	planPath := fs.String("plan", "", "plan export holding the group codes (required)")
	interactive := fs.Bool("review", false, "resolve ambiguous rows interactively")
	out := fs.String("out", "", "output workbook (default <in>_match.xlsx)")
	if err := parseFlags(fs, args, std, "in", "plan"); err != nil {
		return err
	}

	return withPass(ctx, configPath, std, *in, *out, domain.PassMatch, []string{*planPath}, func(e *env, src pipeline.Source) (*pipeline.Output, []workbook.Sheet, error) {
		lookup, closeLookup, err := openSource(*planPath)
		if err != nil {
			return nil, nil, err
		}
		defer closeLookup()

		res, err := e.runner.MatchPass(ctx, src, lookup, progressPrinter(std.err))
		if err != nil {
			return nil, nil, err
		}
		if !*interactive || len(res.Match.Ambiguous) == 0 {
			return res, res.Sheets, nil
		}

		session, err := review(matcher.NewSession(res.Match, domain.ColGroupCode), std.in, std.err)
		if err != nil {
			return nil, nil, err
		}
		fmt.Fprintf(std.err, "resolved %d of %d ambiguous rows\n", session.Chosen(), session.Len())
		return res, pipeline.ResolveMatch(res.Match, session), nil
	})
}

func runConvert(ctx context.Context, configPath string, args []string, std stdio) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	planPath := fs.String("plan", "", "plan export (required)")
	majorPath := fs.String("major", "", "major score workbook to compare against")
	collegePath := fs.String("college", "", "college score workbook to compare against")
	out := fs.String("out", "", "output workbook (default <plan>_convert.xlsx)")
	if err := parseFlags(fs, args, std, "plan"); err != nil {
		return err
	}

	return withPass(ctx, configPath, std, *planPath, *out, domain.PassConvert, nonEmpty(*majorPath, *collegePath), func(e *env, src pipeline.Source) (*pipeline.Output, []workbook.Sheet, error) {
		in := pipeline.ConvertInput{Plan: src}
		for _, opt := range []struct {
			path   string
			target **pipeline.Source
		}{
			{*majorPath, &in.MajorScores},
			{*collegePath, &in.CollegeScores},
		} {
			if opt.path == "" {
				continue
			}
			s, closeFn, err := openSource(opt.path)
			if err != nil {
				return nil, nil, err
			}
			defer closeFn()
			*opt.target = &s
		}

		res, err := e.runner.ConvertPass(ctx, in, progressPrinter(std.err))
		if err != nil {
			return nil, nil, err
		}
		for _, c := range res.Comparisons {
			fmt.Fprintf(std.out, "%s: %d of %d found (%s), %d missing\n",
				c.Name, c.Summary.Found, c.Summary.Total, pipeline.MatchRate(c.Summary), c.Summary.Missing)
		}
		return res, res.Sheets, nil
	})
}

func runRuns(ctx context.Context, configPath string, args []string, std stdio) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	pass := fs.String("pass", "", "only list runs of this pass")
	limit := fs.Int("limit", defaultRunLimit, "maximum number of runs")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := parseFlags(fs, args, std); err != nil {
		return err
	}
	switch *pass {
	case "", domain.PassRemarks, domain.PassScores, domain.PassMatch, domain.PassConvert:
	default:
		fmt.Fprintf(std.err, "unknown pass %q\n", *pass)
		return errUsage
	}
	if *limit < 1 || *limit > maxRunLimit {
		fmt.Fprintf(std.err, "limit must be between 1 and %d\n", maxRunLimit)
		return errUsage
	}

	e, err := setup(ctx, configPath, false)
	if err != nil {
		return err
	}
	defer e.close(ctx)

	runs, err := e.ledger.List(ctx, *pass, *limit)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(std.out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(std.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPASS\tSTATUS\tINPUT\tOUTPUT\tDROPPED\tISSUES\tSTARTED\tFILE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.ID, r.Pass, r.Status, r.InputRows, r.OutputRows, r.Dropped(), r.Issues,
			r.StartedAt.Local().Format(time.DateTime), r.InputFile)
	}
	return tw.Flush()
}

// passFunc runs one pass over src and returns the sheets to write.
type passFunc func(e *env, src pipeline.Source) (*pipeline.Output, []workbook.Sheet, error)

// withPass validates the paths, opens the input, runs fn, writes its sheets
// and prints a summary. extra lists further input workbooks fn opens itself.
func withPass(ctx context.Context, configPath string, std stdio, inPath, outPath, pass string, extra []string, fn passFunc) error {
	if outPath == "" {
		outPath = defaultOutput(inPath, pass)
	}
	inputs := append([]string{inPath}, extra...)
	files := validation.NewFileValidator(nil)
	for _, p := range inputs {
		if err := files.ValidateWorkbook(p); err != nil {
			return err
		}
	}
	if err := files.ValidateOutput(outPath, inputs...); err != nil {
		return err
	}

	src, closeSrc, err := openSource(inPath)
	if err != nil {
		return err
	}
	defer closeSrc()

	e, err := setup(ctx, configPath, true)
	if err != nil {
		return err
	}
	defer e.close(ctx)

	res, sheets, err := fn(e, src)
	if err != nil {
		return err
	}

	if err := e.writer.WriteFile(outPath, sheets...); err != nil {
		return err
	}
	return printSummary(std.out, res, outPath)
}

func printSummary(w io.Writer, res *pipeline.Output, path string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	if res.Run.ID != "" {
		fmt.Fprintf(tw, "run:\t%s\n", res.Run.ID)
	}
	fmt.Fprintf(tw, "input rows:\t%d\n", res.InputRows)
	fmt.Fprintf(tw, "output rows:\t%d\n", res.OutputRows)
	fmt.Fprintf(tw, "issues:\t%d\n", res.Issues)
	if res.Match != nil {
		fmt.Fprintf(tw, "assigned:\t%d\n", res.Match.Assigned)
		fmt.Fprintf(tw, "ambiguous:\t%d\n", len(res.Match.Ambiguous))
	}
	fmt.Fprintf(tw, "written:\t%s\n", path)
	return tw.Flush()
}

// parseFlags parses args and checks that every flag in requiredFlags is set.
func parseFlags(fs *flag.FlagSet, args []string, std stdio, requiredFlags ...string) error {
	fs.SetOutput(std.err)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(std.err, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return errUsage
	}
	var missing []string
	for _, name := range requiredFlags {
		if f := fs.Lookup(name); f == nil || f.Value.String() == "" {
			missing = append(missing, "-"+name)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(std.err, "missing required flags: %s\n", strings.Join(missing, ", "))
		fs.Usage()
		return errUsage
	}
	return nil
}

func openSource(path string) (pipeline.Source, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return pipeline.Source{}, nil, err
	}
	return pipeline.Source{Name: path, Reader: f}, func() { f.Close() }, nil
}

func nonEmpty(paths ...string) []string {
	var out []string
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// defaultOutput places <stem>_<suffix>.xlsx next to the input.
func defaultOutput(in, suffix string) string {
	base := filepath.Base(in)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(in), stem+"_"+suffix+".xlsx")
}

func progressPrinter(w io.Writer) pipeline.ProgressFunc {
	return func(e pipeline.Event) {
		switch e.Stage {
		case pipeline.StageProgress:
			if e.Message != "" {
				fmt.Fprintf(w, "%s: %d/%d %s\n", e.Pass, e.Completed, e.Total, e.Message)
			} else {
				fmt.Fprintf(w, "%s: %d/%d\n", e.Pass, e.Completed, e.Total)
			}
		case pipeline.StageFailed:
			fmt.Fprintf(w, "%s: failed: %s\n", e.Pass, e.Message)
		default:
			fmt.Fprintf(w, "%s: %s\n", e.Pass, e.Stage)
		}
	}
}
