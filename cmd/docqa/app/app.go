// Package app provides the docqa command line application.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kart-io/docqa/cmd/docqa/app/options"
	"github.com/kart-io/docqa/internal/docqa"
	"github.com/kart-io/docqa/internal/model"
	"github.com/kart-io/docqa/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `docqa answers questions about a directory of PDF documents.

Documents are split into overlapping chunks, embedded and stored in a vector
index. A question retrieves the most similar chunks, which are put into a
prompt for the language model.

Commands:
  - ingest: load, chunk and index the PDF corpus
  - ask:    answer one question from the index
  - serve:  serve the HTTP API (the default when no command is given)
  - stats:  print the state of the index`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	return newApp(options.NewServerOptions(), nil, os.Stdout)
}

// newApp 构建命令树。configure 非空时在创建运行时前修改配置，测试用它注入供应商。
func newApp(opts *options.ServerOptions, configure func(*docqa.Config), out io.Writer) *app.App {
	c := &commands{opts: opts, configure: configure, out: out}

	return app.NewApp(
		app.WithName(docqa.Name),
		app.WithShortDescription("Question answering over PDF documents"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithEnvFiles(".env"),
		app.WithRunFunc(c.serve),
		app.WithArgs(cobra.NoArgs),
		app.WithCommands(
			app.NewCommand("ingest [dir]", "Load, chunk and index the PDF corpus",
				app.WithCommandArgs(cobra.MaximumNArgs(1)),
				app.WithCommandFlags(func(fs *pflag.FlagSet) {
					fs.BoolVar(&c.reset, "reset", false, "Drop the existing index before ingesting.")
				}),
				app.WithCommandLong("Ingest reads every PDF under dir (default --docqa.corpus-path) and writes its chunks to the vector index."),
				app.WithCommandExample("  docqa ingest ./data --reset"),
				app.WithCommandRunFunc(c.ingest),
			),
			app.NewCommand("ask <question>", "Answer a question from the index",
				app.WithCommandArgs(cobra.ExactArgs(1)),
				app.WithCommandExample(`  docqa ask "What does aspirin do?" --docqa.top-k=3`),
				app.WithCommandRunFunc(c.ask),
			),
			app.NewCommand("serve", "Serve the HTTP API",
				app.WithCommandArgs(cobra.NoArgs),
				app.WithCommandRunFunc(c.serve),
			),
			app.NewCommand("stats", "Print the state of the index",
				app.WithCommandArgs(cobra.NoArgs),
				app.WithCommandRunFunc(c.stats),
			),
		),
	)
}

type commands struct {
	opts      *options.ServerOptions
	configure func(*docqa.Config)
	out       io.Writer
	reset     bool
}

// config loads the configuration and initializes the logger.
func (c *commands) config() (*docqa.Config, error) {
	cfg, err := c.opts.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.configure != nil {
		c.configure(cfg)
	}
	if err := cfg.InitLogger(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtime builds a pipeline runtime and passes it to fn, closing it afterwards.
func (c *commands) runtime(ctx context.Context, reset bool, fn func(*docqa.Config, *docqa.Runtime) error) (err error) {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	rt, err := cfg.NewRuntime(ctx, reset)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(cfg, rt)
}

func (c *commands) ingest(ctx context.Context, args []string) error {
	return c.runtime(ctx, c.reset, func(cfg *docqa.Config, rt *docqa.Runtime) error {
		dir := cfg.DocQAOptions.CorpusPath
		if len(args) > 0 {
			dir = args[0]
		}
		report, err := rt.Pipeline.Ingest(ctx, dir)
		if report != nil {
			printReport(c.out, report)
		}
		return err
	})
}

func (c *commands) ask(ctx context.Context, args []string) error {
	return c.runtime(ctx, false, func(_ *docqa.Config, rt *docqa.Runtime) error {
		answer, err := rt.Pipeline.Ask(ctx, args[0])
		if err != nil {
			return err
		}
		printAnswer(c.out, answer)
		return nil
	})
}

func (c *commands) stats(ctx context.Context, _ []string) error {
	return c.runtime(ctx, false, func(_ *docqa.Config, rt *docqa.Runtime) error {
		stats, err := rt.Pipeline.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(c.out, stats)
		return nil
	})
}

// serve contains the main logic for initializing and running the server.
func (c *commands) serve(ctx context.Context, _ []string) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	server, err := cfg.NewServer(ctx)
	if err != nil {
		return err
	}

	// Run the server with signal context for graceful shutdown
	return server.Run(ctx)
}

func printReport(w io.Writer, r *model.IndexReport) {
	fmt.Fprintf(w, "Run:       %s\n", r.RunID)
	fmt.Fprintf(w, "Embedder:  %s\n", r.Embedder)
	fmt.Fprintf(w, "Documents: %d\n", r.Documents)
	fmt.Fprintf(w, "Chunks:    %d indexed / %d total\n", r.Indexed, r.Chunks)
	fmt.Fprintf(w, "Duration:  %s\n", r.Duration.Round(time.Millisecond))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped %d chunks:\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s (%s p.%d): %s\n", s.ChunkID, s.Source, s.Page, s.Reason)
		}
	}
}

func printAnswer(w io.Writer, a *model.Answer) {
	fmt.Fprintln(w, a.Text)
	if a.NoContext {
		fmt.Fprintln(w, "\n(no relevant context was found in the index)")
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, s := range a.Sources {
		fmt.Fprintf(w, "  [%d] %s p.%d (score %.3f)\n", i+1, s.Source, s.Page, s.Score)
	}
}

func printStats(w io.Writer, s *model.StoreStats) {
	fmt.Fprintf(w, "Store:     %s\n", s.Type)
	fmt.Fprintf(w, "Embedder:  %s\n", s.Embedder)
	fmt.Fprintf(w, "Dimension: %d\n", s.Dimension)
	fmt.Fprintf(w, "Chunks:    %d\n", s.Count)
	if s.Empty {
		fmt.Fprintln(w, "The index is empty; run ingest first.")
	}
}
