package scanner

import (
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// directorySize sums the byte lengths of every regular file beneath dir.
// Used when no age cutoff is configured, so individual unreadable
// entries are skipped rather than failing the whole query.
func directorySize(dir string) (int64, error) {
	var total atomic.Int64
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}
	err := fastwalk.Walk(&conf, dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total.Add(info.Size())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total.Load(), nil
}
