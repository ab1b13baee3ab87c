package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gccontent/internal/analyzer"
	"gccontent/internal/config"
	"gccontent/internal/history"
	"gccontent/internal/logging"
	"gccontent/internal/report"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// Exit codes: validation failures and input failures are kept apart so
// scripts can tell a bad sequence from an unreadable file.
const (
	exitInvalid = 1
	exitInput   = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *log.Logger
	closer io.Closer
	store  history.Store
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger, a.closer = logging.New(logging.Options{
		Prefix:  "gccontent",
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: a.verbose,
		Out:     cmd.ErrOrStderr(),
	})
	a.logger.Debug("loaded config", "log_level", cfg.LogLevel, "log_file", cfg.LogFile, "history_store", cfg.HistoryStore, "history_path", cfg.HistoryPath, "fasta_width", cfg.FastaWidth)

	a.store, err = history.Open(cfg.HistoryStore, cfg.HistoryPath)
	if err != nil {
		return err
	}
	return nil
}

func (a *app) teardown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close history store", "err", err)
		}
	}
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

type analyzeFlags struct {
	sequence string
	format   string
	out      string
	fasta    string
	id       string
}

func addAnalyzeFlags(cmd *cobra.Command, f *analyzeFlags) {
	cmd.Flags().StringVarP(&f.sequence, "sequence", "s", "", "analyze this sequence instead of reading a file")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: text, json or yaml")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "save the full analysis report to this file")
	cmd.Flags().StringVar(&f.fasta, "fasta", "", "write the cleaned sequence as FASTA to this file")
	cmd.Flags().StringVar(&f.id, "id", "", "record id used in the FASTA export (defaults to the input name)")
}

// source opens the text to analyze: --sequence (even when empty), a file,
// or stdin for "-" or no argument.
func (f *analyzeFlags) source(cmd *cobra.Command, args []string) (io.Reader, string, func(), error) {
	if cmd.Flags().Changed("sequence") {
		return strings.NewReader(f.sequence), "argument", func() {}, nil
	}
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), "stdin", func() {}, nil
	}
	fh, err := os.Open(args[0])
	if err != nil {
		return nil, "", nil, &analyzer.InputError{Op: "open input", Err: err}
	}
	return fh, "file", func() { fh.Close() }, nil
}

func (f *analyzeFlags) recordID(args []string) string {
	if f.id != "" {
		return f.id
	}
	if len(args) > 0 && args[0] != "-" {
		return strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	return "sequence"
}

func writeResult(w io.Writer, format string, res analyzer.Result) error {
	// the sequence itself only goes to --out / --fasta
	res.Sequence = ""
	switch strings.ToLower(format) {
	case "", "text":
		_, err := fmt.Fprintln(w, report.Summary(res))
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(res)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runAnalyze(a *app, f *analyzeFlags) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		switch strings.ToLower(f.format) {
		case "", "text", "json", "yaml":
		default:
			return fmt.Errorf("unknown format %q (want text, json or yaml)", f.format)
		}

		src, name, done, err := f.source(cmd, args)
		if err != nil {
			a.logger.Error("failed to open input", "err", err)
			return &exitError{code: exitInput, err: err}
		}
		defer done()

		sink := analyzer.SinkFuncs{
			OnResult: func(res analyzer.Result) error {
				a.logger.Debug("sequence analyzed", "source", name, "length", res.Length, "gc_count", res.GCCount, "gc_percent", res.GCPercent)
				a.record(cmd.Context(), name, res, nil)
				if err := writeResult(cmd.OutOrStdout(), f.format, res); err != nil {
					return err
				}
				if f.out != "" {
					if err := os.WriteFile(f.out, []byte(report.Export(res)), 0o644); err != nil {
						return fmt.Errorf("save report: %w", err)
					}
					a.logger.Info("report saved", "path", f.out)
				}
				if f.fasta != "" {
					if err := writeFASTAFile(f.fasta, f.recordID(args), res, a.cfg.FastaWidth); err != nil {
						return err
					}
					a.logger.Info("fasta written", "path", f.fasta)
				}
				return nil
			},
			OnInvalid: func(verr *analyzer.ValidationError) error {
				a.logger.Debug("sequence rejected", "source", name, "kind", verr.Kind, "offset", verr.Offset, "char", string(verr.Char))
				a.record(cmd.Context(), name, analyzer.Result{}, verr)
				return &exitError{code: exitInvalid, err: verr}
			},
		}

		if err := analyzer.Process(src, sink); err != nil {
			if errors.Is(err, analyzer.ErrInput) {
				a.logger.Error("failed to read input", "err", err)
				return &exitError{code: exitInput, err: err}
			}
			return err
		}
		return nil
	}
}

func writeFASTAFile(path, id string, res analyzer.Result, width int) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fasta: %w", err)
	}
	if err := report.WriteFASTA(fh, id, res, width); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func (a *app) record(ctx context.Context, source string, res analyzer.Result, err error) {
	if a.store == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, aerr := a.store.Append(ctx, history.FromResult(source, res, err)); aerr != nil {
		a.logger.Warn("failed to record analysis", "err", aerr)
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return errors.New("history is disabled; set history_store to json or sqlite")
			}
			entries, err := a.store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			case "yaml":
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(entries)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tSOURCE\tLENGTH\tGC%\tOUTCOME")
			for _, e := range entries {
				if e.Error != "" {
					fmt.Fprintf(tw, "%d\t%s\t%s\t-\t-\t%s\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Source, e.Error)
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\tok\n", e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Source, e.Length, report.Percent(e.GCPercent))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json or yaml")
	return cmd
}

// newRootCmd builds the command tree. Running the root with a file behaves
// like "analyze". Callers must call teardown on the returned app once the
// command has run, whatever its outcome.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	rootFlags := &analyzeFlags{}
	analyzeFl := &analyzeFlags{}

	root := &cobra.Command{
		Use:   "gccontent [file|-]",
		Short: "Validate a DNA sequence and report its GC content",
		Long: `Validate a DNA sequence (optionally with one FASTA header line) and
report its length, G+C count and GC percentage. Only A, T, G and C are accepted.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: runAnalyze(a, rootFlags),
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file (json or yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose (debug) logging")
	addAnalyzeFlags(root, rootFlags)

	analyze := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a sequence from a file, stdin or --sequence",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyze(a, analyzeFl),
	}
	addAnalyzeFlags(analyze, analyzeFl)

	root.AddCommand(analyze, newHistoryCmd(a))
	return root, a
}

func main() {
	root, a := newRootCmd()
	err := root.ExecuteContext(context.Background())
	a.teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		os.Exit(exitInvalid)
	}
}
