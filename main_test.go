package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/SupaMaggie70Incorporated/cargosweep/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig_MissingPathIsUsageError(t *testing.T) {
	_, err := buildConfig(filepath.Join(t.TempDir(), "missing"), 0, false)
	require.Error(t, err)

	var usageErr *usageError
	assert.ErrorAs(t, err, &usageErr)
}

func TestBuildConfig_ZeroDaysDisablesCutoff(t *testing.T) {
	cfg, err := buildConfig(t.TempDir(), 0, false)
	require.NoError(t, err)
	assert.True(t, cfg.Cutoff.IsZero())
	assert.False(t, cfg.Delete)
}

func TestBuildConfig_DaysOldSetsCutoff(t *testing.T) {
	cfg, err := buildConfig(t.TempDir(), 30, true)
	require.NoError(t, err)
	assert.True(t, cfg.Delete)
	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), cfg.Cutoff, time.Minute)
}

func TestBuildConfig_ResolvesRelativePath(t *testing.T) {
	cfg, err := buildConfig(".", 0, false)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.Root))
}

func TestExitCode_PlatformErrorIsDistinct(t *testing.T) {
	err := fmt.Errorf("scan: %w", &scanner.PlatformError{Path: "/x", Err: errors.ErrUnsupported})
	assert.Equal(t, exitPlatform, exitCode(err))
}

func TestExitCode_UsageError(t *testing.T) {
	assert.Equal(t, exitUsage, exitCode(&usageError{err: errors.New("bad flag")}))
}

func TestExitCode_GenericFailure(t *testing.T) {
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}
