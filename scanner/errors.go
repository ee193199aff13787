package scanner

import "fmt"

// PlatformError reports that the host platform cannot provide file
// metadata (modification times in particular), which makes age-based
// eligibility undecidable. Unlike ordinary I/O errors it aborts the
// whole scan; the driver maps it to a distinct exit code.
type PlatformError struct {
	Path string
	Err  error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform cannot report file metadata for %s: %v", e.Path, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }
