package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/indexer/source"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/output"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/wosp/internal/searcher/server"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/logger"
)

var errNoMatches = errors.New("no matches")

// globals holds the flags shared by every subcommand and the configuration
// they produce.
type globals struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "wosp",
		Short:         "Word-oriented search with boolean and proximity operators",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			if g.logLevel != "" {
				cfg.Logging.Level = g.logLevel
			}
			logger.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			g.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newSearchCommand(g),
		newTreeCommand(g),
		newTokensCommand(g),
		newServeCommand(g),
	)
	return root
}

// queryFlags are the per-invocation overrides of the query and output
// sections.
type queryFlags struct {
	operator   string
	caseMode   string
	fuzzy      int
	mode       string
	format     string
	element    string
	before     int
	after      int
	max        int
	noFilename bool
	noLine     bool
	page       bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.operator, "operator", "", "default operator between adjacent terms (OR, AND, XOR)")
	fs.StringVar(&f.caseMode, "case", "", "case mode (insensitive, sensitive, lower, upper, title)")
	fs.IntVar(&f.fuzzy, "fuzzy", -1, "edit distance allowed per term")
	fs.StringVar(&f.mode, "mode", "", "proximity mode (exclusive, inclusive)")
	fs.StringVarP(&f.format, "format", "f", "", "output format (matches, documents, excerpts, json)")
	fs.StringVarP(&f.element, "element", "e", "", "context unit (word, clause, line, sentence, paragraph, page)")
	fs.IntVarP(&f.before, "before", "B", -1, "context units before each match")
	fs.IntVarP(&f.after, "after", "A", -1, "context units after each match")
	fs.IntVarP(&f.max, "max", "m", -1, "print at most this many matches, 0 for all")
	fs.BoolVar(&f.noFilename, "no-filename", false, "omit document names")
	fs.BoolVar(&f.noLine, "no-line-number", false, "omit line numbers")
	fs.BoolVar(&f.page, "page-number", false, "print page numbers")
}

// apply copies the flags that were set into cfg and revalidates it.
func (f *queryFlags) apply(cfg *config.Config) error {
	if f.operator != "" {
		cfg.Query.DefaultOperator = f.operator
	}
	if f.caseMode != "" {
		cfg.Query.CaseMode = f.caseMode
	}
	if f.fuzzy >= 0 {
		cfg.Query.EditBudget = f.fuzzy
	}
	if f.mode != "" {
		cfg.Query.ProximityMode = f.mode
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.element != "" {
		cfg.Output.Element = f.element
	}
	if f.before >= 0 {
		cfg.Output.Before = f.before
	}
	if f.after >= 0 {
		cfg.Output.After = f.after
	}
	if f.max >= 0 {
		cfg.Output.Maximum = f.max
	}
	if f.noFilename {
		cfg.Output.Filename = false
	}
	if f.noLine {
		cfg.Output.LineNumber = false
	}
	if f.page {
		cfg.Output.PageNumber = true
	}
	return cfg.Validate()
}

// sourcesFor maps file arguments to sources; "-" reads standard input.
// Without arguments and without a database source, standard input is read.
func sourcesFor(cfg *config.Config, stdin io.Reader, args []string) []source.Source {
	var sources []source.Source
	for _, a := range args {
		if a == "-" {
			sources = append(sources, source.Reader{Label: "(standard input)", R: stdin})
			continue
		}
		sources = append(sources, source.File{Path: a})
	}
	if len(sources) == 0 && !cfg.Sources.Postgres.Enabled {
		sources = append(sources, source.Reader{Label: "(standard input)", R: stdin})
	}
	return sources
}

func newSearchCommand(g *globals) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "search QUERY [FILE...]",
		Short: "Print the matches of QUERY in the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(g.cfg); err != nil {
				return err
			}
			outOpts, err := output.OptionsFromConfig(g.cfg.Output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			engine, err := indexer.LoadFromConfig(ctx, g.cfg, sourcesFor(g.cfg, cmd.InOrStdin(), args[1:]))
			if err != nil {
				return err
			}
			res, err := engine.Search(ctx, args[0])
			if err != nil {
				return err
			}
			if err := output.NewPrinter(cmd.OutOrStdout(), engine.Corpus(), outOpts).Print(res.Matches); err != nil {
				return fmt.Errorf("writing results: %w", err)
			}
			if len(res.Matches) == 0 {
				return errNoMatches
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newTreeCommand(g *globals) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "tree QUERY",
		Short: "Print the syntax tree of QUERY without searching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(g.cfg); err != nil {
				return err
			}
			opts, err := indexer.OptionsFromConfig(g.cfg)
			if err != nil {
				return err
			}
			tokens := parser.Lex(args[0], opts.Search.Parser)
			if err := parser.Validate(tokens); err != nil {
				var list parser.ErrorList
				if errors.As(err, &list) {
					for _, e := range list {
						fmt.Fprintln(cmd.ErrOrStderr(), e.Error())
					}
				}
				return err
			}
			root, err := parser.Parse(tokens)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), root.String())
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newTokensCommand(g *globals) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "tokens QUERY",
		Short: "Print the tokens QUERY is lexed into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(g.cfg); err != nil {
				return err
			}
			opts, err := indexer.OptionsFromConfig(g.cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, t := range parser.Lex(args[0], opts.Search.Parser) {
				line := fmt.Sprintf("%d\t%s\t%s", t.Seq, t.Label(), t.Text)
				if t.Reason != "" {
					line += "\t" + t.Reason
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newServeCommand(g *globals) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve [FILE...]",
		Short: "Load the files and serve the search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				g.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			var sources []source.Source
			for _, a := range args {
				sources = append(sources, source.File{Path: a})
			}
			engine, err := indexer.LoadFromConfig(ctx, g.cfg, sources)
			if err != nil {
				return err
			}
			return server.Run(ctx, g.cfg, engine)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}
