// Command cargosweep finds Cargo projects under a root path and reclaims
// disk space by deleting target directories nothing has touched for a
// configurable number of days.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/SupaMaggie70Incorporated/cargosweep/scanner"
	"github.com/SupaMaggie70Incorporated/cargosweep/tui"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// Exit codes. exitPlatform is reserved for the fatal condition where the
// host cannot report file modification times at all.
const (
	exitOK = iota
	exitFailure
	exitUsage
	exitPlatform
)

// usageError indicates bad arguments (exit code 2).
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run())
}

func run() int {
	err := newRootCmd().Execute()
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(os.Stderr, "cargosweep: %v\n", err)
	return exitCode(err)
}

// exitCode maps an execution error to the process exit status.
func exitCode(err error) int {
	var platformErr *scanner.PlatformError
	if errors.As(err, &platformErr) {
		return exitPlatform
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return exitUsage
	}
	return exitFailure
}

func newRootCmd() *cobra.Command {
	var (
		path           string
		daysOld        uint
		actuallyDelete bool
		interactive    bool
	)

	cmd := &cobra.Command{
		Use:   "cargosweep",
		Short: "Reclaim disk space from stale Cargo target directories",
		Long: `Recursively scan a folder for Cargo projects (a Cargo.toml next to a
target directory) and delete the target directories whose contents
haven't been modified in the given number of days.

Without --actually-delete nothing is removed; the scan only reports what
it would reclaim.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(path, daysOld, actuallyDelete)
			if err != nil {
				return err
			}
			if interactive {
				return runInteractive(cfg)
			}
			return runScan(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "Folder to clean")
	cmd.Flags().UintVarP(&daysOld, "days-old", "d", 0, "Minimum days since last modification (0 disables the age filter)")
	cmd.Flags().BoolVar(&actuallyDelete, "actually-delete", false, "Delete eligible target directories instead of only reporting them")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse and delete findings in a terminal UI")

	return cmd
}

func buildConfig(path string, daysOld uint, actuallyDelete bool) (scanner.Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return scanner.Config{}, &usageError{fmt.Errorf("resolving path %s: %w", path, err)}
	}
	if _, err := os.Stat(abs); err != nil {
		return scanner.Config{}, &usageError{fmt.Errorf("path %s: %w", abs, err)}
	}

	cfg := scanner.Config{Root: abs, Delete: actuallyDelete}
	if daysOld > 0 {
		cfg.Cutoff = time.Now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	}
	return cfg, nil
}

// runScan is the non-interactive mode: stream one line per eligible
// target directory, then a summary.
func runScan(cmd *cobra.Command, cfg scanner.Config) error {
	log.SetFlags(0)
	log.SetPrefix("cargosweep: ")
	log.SetOutput(cmd.ErrOrStderr())

	out := cmd.OutOrStdout()
	verb := "Deleting"
	if !cfg.Delete {
		verb = "Would delete"
		fmt.Fprintln(out, "Dry run: nothing will be removed. Re-run with --actually-delete to clean for real.")
	}

	s := scanner.New(cfg)

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for target := range s.Results() {
			fmt.Fprintf(out, "%s %s of files in target directory %s\n",
				verb, humanize.Bytes(uint64(target.Size)), target.Path)
		}
	}()
	go func() {
		for range s.Progress() {
		}
	}()

	s.Start()
	<-s.Done()
	<-printed

	if err := s.Err(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Reclaimed %s in %s (%s directories scanned)\n",
		humanize.Bytes(uint64(s.Reclaimed())),
		s.ElapsedTime().Round(time.Millisecond),
		humanize.Comma(s.DirCount()))
	return nil
}

// runInteractive hands the terminal to the TUI. Diagnostics go to a temp
// log file since stderr would fight with the screen.
func runInteractive(cfg scanner.Config) error {
	logFile, err := os.CreateTemp(tempDir(), "cargosweep-*.log")
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	log.SetFlags(log.Lshortfile | log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("[SWEEP] ")
	log.SetOutput(logFile)

	fmt.Println("Logfile is being written in:", logFile.Name())

	app := tui.NewApp(cfg)
	return app.Run()
}

func tempDir() string {
	if runtime.GOOS == "darwin" {
		return "/tmp"
	}
	return os.TempDir()
}
