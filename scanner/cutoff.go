package scanner

import (
	"errors"
	"io/fs"
	"log"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
)

// Sentinel errors used to stop the eligibility walk early. Neither
// escapes evaluateTarget.
var (
	errTooRecent  = errors.New("entry newer than cutoff")
	errUnreadable = errors.New("entry metadata unreadable")
)

// evaluateTarget walks the full subtree of a build-output directory and
// decides whether it may be deleted under cutoff. The directory is
// eligible when no entry in it, directories included, was modified
// strictly after the cutoff; a single newer entry stops the walk
// immediately. On eligibility the aggregate byte size of the regular
// files in the subtree is returned.
//
// The returned error is non-nil only for the fatal condition where the
// platform cannot report file metadata at all. Ordinary I/O failures on
// individual entries make the directory ineligible and are logged.
func evaluateTarget(dir string, cutoff time.Time) (int64, bool, error) {
	var total atomic.Int64
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}

	walkErr := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("accessing entry in %s: %v", dir, err)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, errors.ErrUnsupported) {
				return &PlatformError{Path: path, Err: err}
			}
			log.Printf("accessing metadata of %s: %v, skipping cleaning folder %s", path, err, dir)
			return errUnreadable
		}
		if info.ModTime().After(cutoff) {
			return errTooRecent
		}
		if info.Mode().IsRegular() {
			total.Add(info.Size())
		}
		return nil
	})

	switch {
	case walkErr == nil:
		return total.Load(), true, nil
	case errors.Is(walkErr, errTooRecent), errors.Is(walkErr, errUnreadable):
		return 0, false, nil
	default:
		var platformErr *PlatformError
		if errors.As(walkErr, &platformErr) {
			return 0, false, walkErr
		}
		log.Printf("walking %s: %v, skipping cleaning folder %s", dir, walkErr, dir)
		return 0, false, nil
	}
}
