package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/desertwitch/linedup/internal/filesystem"
	"github.com/desertwitch/linedup/internal/render"
	"github.com/desertwitch/linedup/internal/schema"
	"github.com/spf13/cobra"
)

const (
	flagOutput = "output"
	flagQuiet  = "quiet"
)

// renderOptions holds the settings of a render run.
type renderOptions struct {
	root   string
	output string
	quiet  bool
}

func (c *cli) renderCommand() *cobra.Command {
	opts := &renderOptions{output: render.FormatJSON}

	cmd := &cobra.Command{
		Use:   "render [flags] <outfile>",
		Short: "Bundle all .txt wordlists into a single JSON document or rant module",
		Long: `render reads every file ending in .txt below the root directory as a
wordlist (one word per line, surrounding whitespace trimmed) and writes all of
them into a single output file.

Directories become nested objects, wordlists become lists keyed by their file
name without ".txt". With --output rant, every directory and wordlist becomes a
definition in a rant module, keyed by its slash-separated path.

Any unreadable directory or wordlist aborts the rendering (exit code 1).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.root, flagRoot, opts.root, "directory holding the wordlists (default: current working directory)")
	flags.StringVarP(&opts.output, flagOutput, "o", opts.output, "type of file to render: json or rant")
	flags.BoolVarP(&opts.quiet, flagQuiet, "q", opts.quiet, "suppress progress output")

	return cmd
}

func (c *cli) runRender(cmd *cobra.Command, opts *renderOptions, outfile string) error {
	if err := render.ValidateFormat(opts.output); err != nil {
		return fmt.Errorf("--%s: %w", flagOutput, err)
	}

	root := opts.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stopSignals := setupSignalHandlers(cancel, c.stderr)
	defer stopSignals()

	osProvider := &schema.OS{}

	walker := filesystem.NewHandler(osProvider)
	walker.FailFast = true

	renderer := render.NewHandler(walker, osProvider)
	renderer.Quiet = opts.quiet

	tree, err := renderer.Collect(ctx, root)
	if err == nil {
		err = renderer.WriteFile(outfile, tree, opts.output)
	}

	if err != nil {
		c.exitCode = exitFailure
		slog.Error("Rendering aborted.", "root", root, "err", err)

		return nil
	}

	slog.Info("Rendering finished.", "root", root, "wordlists", tree.Len(), "format", opts.output, "path", outfile)

	return nil
}
