// Package scanner finds Cargo project directories beneath a root and
// computes which of their target directories can be deleted.
package scanner

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

const (
	// ManifestName marks a directory as a Cargo project root.
	ManifestName = "Cargo.toml"
	// TargetName is the build-output directory this tool deletes.
	TargetName = "target"
)

// Config holds the parameters of one scan. It is read-only once the
// scanner starts.
type Config struct {
	// Root is the directory the scan starts from.
	Root string

	// Cutoff is the age threshold: a target directory containing
	// anything modified after it is left alone. The zero value disables
	// the age filter, every project found is then eligible.
	Cutoff time.Time

	// Delete authorizes physical removal of eligible target
	// directories. When false the scan only reports what it would
	// reclaim.
	Delete bool
}

// Target is an eligible build-output directory found during a scan. The
// size is measured before any deletion happens.
type Target struct {
	Path           string // the target directory itself
	ProjectDir     string // the directory holding the manifest
	Size           int64
	LastModifiedAt time.Time
	ScannedAt      time.Time
}

// Progress is a best-effort snapshot of where the walker currently is.
// Snapshots may be dropped under load; Done is always the last one sent.
type Progress struct {
	Path     string
	DirCount int64
	Done     bool
}

const (
	statusIdle int32 = iota
	statusRunning
)

// Scanner drives a single depth-first scan on one walker goroutine and
// streams findings to its consumers. A Scanner is one-shot: create a new
// one for every scan.
type Scanner struct {
	cfg Config

	// Eligible target directories, in the order they were found
	results chan *Target

	// Progress events, as we move through the file tree
	progress chan *Progress

	// Signals consumers that results and progress won't produce anything else
	doneChan chan struct{}

	status int32 // idle | running

	// atomic count of directories visited
	dirCount int64

	// bytes reclaimed (or reclaimable, on a dry run) so far
	reclaimed atomic.Int64

	// fatal error that aborted the scan; valid once doneChan is closed
	fatalErr error

	startTime time.Time

	// elapsed time of the finished scan in milliseconds
	elapsedTime atomic.Int64

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scanner for cfg. Call Start to begin the scan.
func New(cfg Config) *Scanner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scanner{
		cfg:      cfg,
		results:  make(chan *Target, 100),
		progress: make(chan *Progress, 100),
		doneChan: make(chan struct{}),
		status:   statusIdle,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the walker goroutine. Starting an already running
// scanner is a no-op.
func (s *Scanner) Start() {
	if !atomic.CompareAndSwapInt32(&s.status, statusIdle, statusRunning) {
		return
	}
	s.startTime = time.Now()
	atomic.StoreInt64(&s.dirCount, 0)

	go func() {
		defer close(s.doneChan)
		defer close(s.progress)
		defer close(s.results)
		defer atomic.StoreInt32(&s.status, statusIdle)

		s.fatalErr = s.scan()

		s.elapsedTime.Store(time.Since(s.startTime).Milliseconds())
	}()
}

// Stop cancels a running scan and waits for the walker to finish.
func (s *Scanner) Stop() {
	if !atomic.CompareAndSwapInt32(&s.status, statusRunning, statusIdle) {
		return // not running
	}
	s.cancel()
	<-s.doneChan
}

func (s *Scanner) IsRunning() bool {
	return atomic.LoadInt32(&s.status) == statusRunning
}

func (s *Scanner) Results() <-chan *Target {
	return s.results
}

func (s *Scanner) Progress() <-chan *Progress {
	return s.progress
}

func (s *Scanner) Done() <-chan struct{} {
	return s.doneChan
}

// Err reports the fatal error that aborted the scan, if any. Meaningful
// once Done is closed.
func (s *Scanner) Err() error {
	return s.fatalErr
}

// Reclaimed is the total bytes reclaimed (or reclaimable) so far.
func (s *Scanner) Reclaimed() int64 {
	return s.reclaimed.Load()
}

func (s *Scanner) DirCount() int64 {
	return atomic.LoadInt64(&s.dirCount)
}

func (s *Scanner) ElapsedTime() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	elapsed := s.elapsedTime.Load()
	if elapsed == 0 {
		return time.Since(s.startTime)
	}
	return time.Duration(elapsed) * time.Millisecond
}

// pathStack is the chain of canonicalized directory paths from the scan
// root down to the directory currently being visited. Pushes pair with
// recursion entry and pops with exit, so at any moment it holds exactly
// the ancestors of the active directory. A path may appear at most once;
// a repeat means a symlink cycle.
type pathStack []string

func (ps *pathStack) push(p string) { *ps = append(*ps, p) }
func (ps *pathStack) pop()          { *ps = (*ps)[:len(*ps)-1] }

func (ps pathStack) index(p string) int {
	for i, v := range ps {
		if v == p {
			return i
		}
	}
	return -1
}

func (s *Scanner) scan() error {
	stack := make(pathStack, 0, 32)
	if canonical, err := filepath.EvalSymlinks(s.cfg.Root); err == nil {
		stack.push(canonical)
	} else {
		log.Printf("resolving root %s: %v", s.cfg.Root, err)
		stack.push(s.cfg.Root)
	}

	_, err := s.scanDir(s.cfg.Root, &stack)

	s.sendProgress(&Progress{Done: true, DirCount: s.DirCount()})
	return err
}

// scanDir walks dir depth-first and returns the bytes reclaimed beneath
// it. The only error it returns is the fatal platform condition from the
// cutoff evaluator; everything else is logged and absorbed so siblings
// keep scanning.
func (s *Scanner) scanDir(dir string, stack *pathStack) (int64, error) {
	if s.ctx.Err() != nil {
		return 0, nil
	}

	count := atomic.AddInt64(&s.dirCount, 1)
	s.sendProgress(&Progress{Path: dir, DirCount: count})

	var hasManifest, hasTarget bool
	var candidates []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Partial listings still get classified below.
		log.Printf("scanning directory %s: %v", dir, err)
	}
	for _, entry := range entries {
		switch entry.Name() {
		case ManifestName:
			hasManifest = true
		case TargetName:
			hasTarget = true
		}
		if hasManifest && hasTarget {
			// The remaining children don't matter: this directory is a
			// project and won't be recursed into.
			break
		}
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			candidates = append(candidates, path)
		case entry.Type()&fs.ModeSymlink != 0:
			if symlinkToDir(dir, path) {
				candidates = append(candidates, path)
			}
		}
	}

	if hasManifest && hasTarget {
		return s.evaluateProject(dir)
	}

	var total int64
	for _, candidate := range candidates {
		canonical, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			log.Printf("resolving path %s: %v", candidate, err)
			continue
		}
		if i := stack.index(canonical); i >= 0 {
			chain := append(append([]string(nil), (*stack)[i:]...), canonical)
			log.Printf("circular symlink reference detected, skipping: %s", strings.Join(chain, " -> "))
			continue
		}
		stack.push(canonical)
		n, err := s.scanDir(candidate, stack)
		stack.pop()
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// evaluateProject handles a directory holding both a manifest and a
// target directory. It reports the target when eligible, deletes it when
// authorized, and returns its pre-deletion size.
func (s *Scanner) evaluateProject(dir string) (int64, error) {
	targetPath := filepath.Join(dir, TargetName)

	var size int64
	if s.cfg.Cutoff.IsZero() {
		n, err := directorySize(targetPath)
		if err != nil {
			log.Printf("sizing %s: %v, skipping cleaning folder %s", targetPath, err, dir)
			return 0, nil
		}
		size = n
	} else {
		n, eligible, err := evaluateTarget(targetPath, s.cfg.Cutoff)
		if err != nil {
			return 0, err
		}
		if !eligible {
			return 0, nil
		}
		size = n
	}

	target := &Target{
		Path:       targetPath,
		ProjectDir: dir,
		Size:       size,
		ScannedAt:  time.Now(),
	}
	if info, err := os.Stat(targetPath); err == nil {
		target.LastModifiedAt = info.ModTime()
	}

	s.reclaimed.Add(size)
	s.emitResult(target)

	if s.cfg.Delete {
		if err := os.RemoveAll(targetPath); err != nil {
			// The measured size still counts: it reflects what was there
			// before the removal attempt.
			log.Printf("deleting target directory %s: %v", targetPath, err)
		}
	}
	return size, nil
}

// symlinkToDir follows a symlink child and reports whether it points at
// an existing directory. Relative link destinations resolve against the
// directory containing the link.
func symlinkToDir(dir, path string) bool {
	dest, err := os.Readlink(path)
	if err != nil {
		log.Printf("following symlink %s: %v", path, err)
		return false
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(dir, dest)
	}
	info, err := os.Stat(dest)
	if err != nil {
		log.Printf("reading metadata of %s behind symlink %s: %v", dest, path, err)
		return false
	}
	return info.IsDir()
}

func (s *Scanner) emitResult(t *Target) {
	select {
	case s.results <- t:
	case <-s.ctx.Done():
	}
}

func (s *Scanner) sendProgress(p *Progress) {
	select {
	case s.progress <- p:
	default:
	}
}
