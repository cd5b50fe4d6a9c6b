package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertwitch/linedup/internal/checker"
	"github.com/desertwitch/linedup/internal/configuration"
	"github.com/desertwitch/linedup/internal/filesystem"
	"github.com/desertwitch/linedup/internal/queue"
	"github.com/desertwitch/linedup/internal/report"
	"github.com/desertwitch/linedup/internal/scan"
	"github.com/desertwitch/linedup/internal/schema"
	"github.com/desertwitch/linedup/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	stackTraceBufMax = 1 << 24

	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

//nolint:gochecknoglobals
var (
	ExitCode = exitOK
	Version  = "dev"

	verboseLogging atomic.Bool
)

func logLevel() slog.Level {
	if verboseLogging.Load() {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}

func newTerminalHandler() slog.Handler {
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel(),
		TimeFormat: time.Kitchen,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	})
}

func setupLogging(manager *SlogManager) {
	manager.AddHandler(terminalLogHandler, newTerminalHandler())
}

// setupSignalHandlers cancels on termination signals, dumps all goroutine
// stacks on SIGUSR1 and forces a garbage collection on SIGUSR2. The returned
// function releases the handlers.
func setupSignalHandlers(cancel context.CancelFunc, stderr io.Writer) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGTERM, unix.SIGINT)

	go func() {
		if _, ok := <-sigChan; ok {
			slog.Warn("Received termination signal, stopping...")
			cancel()
		}
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, unix.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			_, _ = stderr.Write(buf[:stacklen])
		}
	}()

	sigChan3 := make(chan os.Signal, 1)
	signal.Notify(sigChan3, unix.SIGUSR2)
	go func() {
		for range sigChan3 {
			runtime.GC()
		}
	}()

	return func() {
		for _, c := range []chan os.Signal{sigChan, sigChan2, sigChan3} {
			signal.Stop(c)
			close(c)
		}
	}
}

func startApp(ctx context.Context, wg *sync.WaitGroup, app *App, root string) {
	defer wg.Done()

	app.waitForUI(ctx)

	if err := app.Launch(ctx, root); err != nil {
		slog.Debug("Scan ended with error", "err", err)
	}
}

func startUI(ctx context.Context, wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if err := app.LaunchUI(ctx); err != nil {
		slog.Error("UI failure: falling back to terminal.", "err", err)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// cli is one invocation of the program, writing reports and rendered
// documents to stdout and the user interface to stderr.
type cli struct {
	slogManager *SlogManager
	stdout      io.Writer
	stderr      io.Writer
	exitCode    int
}

func newCLI(slogManager *SlogManager, stdout io.Writer, stderr io.Writer) *cli {
	return &cli{
		slogManager: slogManager,
		stdout:      stdout,
		stderr:      stderr,
		exitCode:    exitOK,
	}
}

// execute runs the command line given as args and returns the exit code.
func (c *cli) execute(args []string) int {
	cmd := c.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)

	if err := cmd.Execute(); err != nil {
		slog.Error("Invalid invocation.", "err", err)

		return exitUsage
	}

	return c.exitCode
}

func (c *cli) rootCommand() *cobra.Command {
	opts := defaultOptions()

	cmd := &cobra.Command{
		Use:   "linedup",
		Short: "Report lines occurring more than once within .txt files",
		Long: `linedup recursively scans a directory tree and reports, for every file
ending in .txt, the non-empty lines that occur more than once in that file.

One line per affected file is written to standard output:

  Duplicate in <file name>: [<line>, <line>, ...]

Diagnostics are written to standard error. Unreadable files are skipped.

Exit Codes:
  0  - Scan completed (whether or not duplicates were found)
  1  - Scan aborted (unusable root, --fail-fast traversal error, interrupted)
  2  - Invalid arguments, flags or configuration`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, opts)
		},
	}
	opts.bindFlags(cmd)
	cmd.AddCommand(c.renderCommand())

	return cmd
}

func (c *cli) run(cmd *cobra.Command, opts *options) error {
	if opts.verbose {
		verboseLogging.Store(true)
		setupLogging(c.slogManager)
	}

	if err := opts.resolve(cmd, configuration.NewHandler(&configuration.GodotenvProvider{})); err != nil {
		return err
	}

	prof, err := startProfiles(opts.cpuprofile, opts.memprofile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stopSignals := setupSignalHandlers(cancel, c.stderr)
	defer stopSignals()

	memory := samplePeakMemory(ctx, memorySampleInterval)

	osProvider := &schema.OS{}

	fsHandler := filesystem.NewHandler(osProvider)
	fsHandler.FailFast = opts.failFast

	checkHandler := checker.NewHandler(osProvider)
	taskManager := queue.NewTaskManager(opts.workers)

	// Reports are held back while the UI occupies the same terminal.
	reportOut := c.stdout
	var heldReports *bytes.Buffer
	if opts.ui && isTerminal(c.stdout) {
		heldReports = &bytes.Buffer{}
		reportOut = heldReports
	}

	scanner, err := scan.NewScanner(fsHandler, checkHandler, taskManager, report.NewPrinter(reportOut))
	if err != nil {
		_ = prof.Stop("")

		return err
	}
	fsHandler.OnError = scanner.OnTraversalError

	var uiHandler *ui.Handler
	if opts.ui {
		uiHandler = ui.NewHandler(ctx, cancel, scanner, c.stderr)
	}

	app := NewApp(scanner, uiHandler, c.slogManager)

	var wg sync.WaitGroup

	wg.Add(1)
	go startUI(ctx, &wg, app)

	wg.Add(1)
	go startApp(ctx, &wg, app, opts.root)

	wg.Wait()

	if heldReports != nil {
		if _, err := c.stdout.Write(heldReports.Bytes()); err != nil {
			slog.Error("Failed to write reports", "err", err)
		}
	}

	summary, err := app.Result()

	scanID := ""
	if summary != nil {
		scanID = summary.ID
	}
	if err := prof.Stop(scanID); err != nil {
		slog.Error("Failed to write profiles", "err", err)
	}
	slog.Debug("Memory consumption peaked.", "id", scanID, "peak", humanize.IBytes(memory.Stop()))

	c.exitCode = logResult(summary, err)

	return nil
}

// logResult logs the outcome of a scan and returns the matching exit code.
func logResult(summary *scan.Summary, err error) int {
	var attrs []any
	if summary != nil {
		attrs = summary.LogAttrs()
	}

	switch {
	case err == nil:
		slog.Info("Scan finished.", attrs...)

		return exitOK

	case errors.Is(err, context.Canceled):
		slog.Warn("Scan interrupted.", attrs...)

		return exitFailure

	default:
		slog.Error("Scan aborted.", append([]any{"err", err}, attrs...)...)

		return exitFailure
	}
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	slogManager := NewSlogManager()
	setupLogging(slogManager)
	slog.SetDefault(slog.New(slogManager))

	ExitCode = newCLI(slogManager, os.Stdout, os.Stderr).execute(os.Args[1:])
}
