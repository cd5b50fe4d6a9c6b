package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/pprof"
)

// profiles records a CPU profile over the course of a scan and writes an
// allocation profile once the scan has ended. Both files are created before
// the scan starts, so unusable paths surface as invocation errors.
type profiles struct {
	cpu   *os.File
	alloc *os.File
}

// startProfiles creates the requested profile files and starts the CPU
// profile. Empty paths disable the respective profile.
func startProfiles(cpuPath string, allocPath string) (*profiles, error) {
	p := &profiles{}

	if cpuPath != "" && allocPath != "" && filepath.Clean(cpuPath) == filepath.Clean(allocPath) {
		return nil, fmt.Errorf("(main-profiles) %w: %s", ErrProfileSamePath, cpuPath)
	}

	if cpuPath != "" {
		f, err := createProfile(cpuPath)
		if err != nil {
			return nil, fmt.Errorf("(main-profiles) --%s: %w", flagCPUProfile, err)
		}

		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()

			return nil, fmt.Errorf("(main-profiles) --%s: %w", flagCPUProfile, err)
		}
		p.cpu = f
	}

	if allocPath != "" {
		f, err := createProfile(allocPath)
		if err != nil {
			_ = p.Stop("")

			return nil, fmt.Errorf("(main-profiles) --%s: %w", flagMemProfile, err)
		}
		p.alloc = f
	}

	return p, nil
}

func createProfile(path string) (*os.File, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProfileIsDir, path)
	}

	return os.Create(path)
}

// Stop ends the CPU profile, writes the allocation profile and closes both
// files. The written paths are logged together with the ID of the scan they
// belong to. Stop is safe to call more than once.
func (p *profiles) Stop(scanID string) error {
	var errs []error

	if p.cpu != nil {
		pprof.StopCPUProfile()

		if err := p.cpu.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cpu profile: %w", err))
		} else {
			slog.Info("Wrote cpu profile.", "path", p.cpu.Name(), "id", scanID)
		}
		p.cpu = nil
	}

	if p.alloc != nil {
		err := pprof.Lookup("allocs").WriteTo(p.alloc, 0)
		if closeErr := p.alloc.Close(); err == nil {
			err = closeErr
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("memory profile: %w", err))
		} else {
			slog.Info("Wrote memory profile.", "path", p.alloc.Name(), "id", scanID)
		}
		p.alloc = nil
	}

	return errors.Join(errs...)
}
