package tui

import (
	"fmt"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/SupaMaggie70Incorporated/cargosweep/scanner"
	"github.com/dustin/go-humanize"
)

func headerStartupStatus(_ *Theme, root string) string {
	return fmt.Sprintf("[white] cargosweep — %s ", root)
}

func footerStatusMenu(_ *Theme) string {
	return "[black] s: Rescan  ↑/↓: Navigate  i: Details  d: Delete  t: Theme  q: Quit"
}

func footerStatusDeleting(_ *Theme, path string) string {
	return fmt.Sprintf(" Deleting: %s", path)
}

func footerStatusDeleted(_ *Theme, path string) string {
	return fmt.Sprintf(" Deleted: %s", path)
}

func footerStatusDeleteError(_ *Theme, path string, err error) string {
	return fmt.Sprintf("[red] Error deleting %s: %v", path, err)
}

func (a *App) updateFinalStatus() {
	if a.scanner == nil {
		return
	}

	if err := a.scanner.Err(); err != nil {
		a.header.SetText(fmt.Sprintf("[red] Error: %v", err))
		return
	}

	status := fmt.Sprintf("[white] Found: %d target dirs | Dirs scanned: %s | Elapsed: %s | Claimable: %s ",
		len(a.items),
		humanize.Comma(a.scanner.DirCount()),
		a.scanner.ElapsedTime().Round(time.Second),
		humanize.Bytes(uint64(a.claimable.Load())),
	)
	a.header.SetText(status)
	a.header.SetTextAlign(cview.AlignCenter)

	a.footer.SetText(footerStatusMenu(&a.currentTheme))
	a.footer.SetTextAlign(cview.AlignCenter)
}

func (a *App) updateProgressStatus(progress *scanner.Progress) {
	if progress.Done {
		a.updateFinalStatus()
		return
	}

	if progress.Path != "" {
		scanPath := a.replaceHomeWithTilde(progress.Path)
		w, _ := a.app.GetScreenSize()
		a.footer.SetText(" [white]Scanning: [black]" + truncatePath(scanPath, w-10))
	}
}

// truncatePath keeps the tail of path so it fits in width columns.
func truncatePath(path string, width int) string {
	if width < 0 {
		width = 0
	}
	if len(path) > width {
		return "..." + path[len(path)-width:]
	}
	return path
}
