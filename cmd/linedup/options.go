package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/desertwitch/linedup/internal/configuration"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	flagRoot       = "root"
	flagWorkers    = "workers"
	flagFailFast   = "fail-fast"
	flagConfig     = "config"
	flagUI         = "ui"
	flagVerbose    = "verbose"
	flagCPUProfile = "cpuprofile"
	flagMemProfile = "memprofile"
)

type configProvider interface {
	ReadFile(path string) (*configuration.Config, error)
}

// options holds the effective settings of a run.
type options struct {
	root       string
	workers    int
	failFast   bool
	config     string
	ui         bool
	verbose    bool
	cpuprofile string
	memprofile string
}

func defaultOptions() *options {
	return &options{
		workers: runtime.NumCPU(),
		ui:      term.IsTerminal(int(os.Stderr.Fd())),
	}
}

func (o *options) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&o.root, flagRoot, o.root, "directory to scan (default: current working directory)")
	flags.IntVar(&o.workers, flagWorkers, o.workers, "maximum number of files checked at the same time")
	flags.BoolVar(&o.failFast, flagFailFast, o.failFast, "halt the scan on the first unreadable directory")
	flags.StringVar(&o.config, flagConfig, o.config, "optional configuration file (ROOT, WORKERS, FAIL_FAST, UI)")
	flags.BoolVar(&o.ui, flagUI, o.ui, "show a progress display on standard error")
	flags.BoolVarP(&o.verbose, flagVerbose, "v", o.verbose, "enable debug logging")
	flags.StringVar(&o.cpuprofile, flagCPUProfile, o.cpuprofile, "write cpu profile to file")
	flags.StringVar(&o.memprofile, flagMemProfile, o.memprofile, "write memory profile to file")
}

// resolve merges the configuration file into the options, with explicitly
// set flags taking precedence, and fills in the remaining defaults.
func (o *options) resolve(cmd *cobra.Command, configHandler configProvider) error {
	if o.config != "" {
		config, err := configHandler.ReadFile(o.config)
		if err != nil {
			return err
		}
		o.apply(cmd, config)
	}

	if o.workers < 1 {
		return fmt.Errorf("--%s=%d: %w", flagWorkers, o.workers, configuration.ErrInvalidWorkers)
	}

	if o.root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		o.root = wd
	}

	return nil
}

func (o *options) apply(cmd *cobra.Command, config *configuration.Config) {
	flags := cmd.Flags()

	if config.Root != nil && !flags.Changed(flagRoot) {
		o.root = *config.Root
	}

	if config.Workers != nil && !flags.Changed(flagWorkers) {
		o.workers = *config.Workers
	}

	if config.FailFast != nil && !flags.Changed(flagFailFast) {
		o.failFast = *config.FailFast
	}

	if config.UI != nil && !flags.Changed(flagUI) {
		o.ui = *config.UI
	}
}
