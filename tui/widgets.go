package tui

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/SupaMaggie70Incorporated/cargosweep/scanner"
	"github.com/dustin/go-humanize"
)

func (a *App) IsScanning() bool {
	return a.scanner != nil && a.scanner.IsRunning()
}

func (a *App) startScanning() {
	a.items = a.items[:0]
	a.claimable.Store(0)

	a.scanner = scanner.New(a.cfg)
	a.scanner.Start()

	go a.processProgressEvents()
	go a.processResultEvents()
}

func (a *App) processProgressEvents() {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	var latest *scanner.Progress
	for {
		select {
		case <-a.scanner.Done():
			a.trySendUIUpdate(a.updateFinalStatus)
			return
		case progress := <-a.scanner.Progress():
			if progress != nil && progress.Done {
				a.trySendUIUpdate(a.updateFinalStatus)
				return
			}
			latest = progress
		case <-ticker.C:
			if a.scanner.IsRunning() && latest != nil {
				p := latest
				a.trySendUIUpdate(func() { a.updateProgressStatus(p) })
			}
		}
	}
}

func (a *App) processResultEvents() {
	for {
		select {
		case <-a.scanner.Done():
			a.trySendUIUpdate(a.updateFinalStatus)
			return
		case target, ok := <-a.scanner.Results():
			if !ok {
				return
			}
			a.trySendUIUpdate(func() { a.handleResult(target) })
		}
	}
}

func (a *App) handleResult(target *scanner.Target) {
	a.items = append(a.items, target)
	a.claimable.Add(target.Size)
	a.buildTable()
}

func (a *App) replaceHomeWithTilde(p string) string {
	if after, ok := strings.CutPrefix(p, a.userHomeDir); ok {
		p = "~" + after
	}
	return p
}

func (a *App) buildTable() *cview.Table {
	theme := a.currentTheme
	table := a.table
	table.Clear()

	items := a.items[:]
	for row, item := range items {
		// Age, carries the row's reference
		ageCell := cview.NewTableCell(" " + humanize.Time(item.LastModifiedAt))
		ageCell.SetTextColor(theme.fg)
		ageCell.SetAlign(cview.AlignLeft)
		ageCell.SetReference(item)
		table.SetCell(row, 0, ageCell)

		// Size
		sizeCell := cview.NewTableCell(fmt.Sprintf(" %s ", humanize.Bytes(uint64(item.Size))))
		sizeCell.SetTextColor(theme.yellow)
		sizeCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 1, sizeCell)

		// Target path
		pathCell := cview.NewTableCell(a.replaceHomeWithTilde(item.Path))
		pathCell.SetTextColor(theme.fg)
		pathCell.SetAlign(cview.AlignLeft)
		pathCell.SetExpansion(1)
		table.SetCell(row, 2, pathCell)
	}

	table.SetBorder(false)
	table.SetBorders(false)
	table.SetSelectable(true, false)
	table.SetSeparator(' ')

	return table
}

// selectedTarget resolves the table selection back to its scan result
// via the reference bound to the 0th column.
func (a *App) selectedTarget() *scanner.Target {
	row, _ := a.table.GetSelection()
	cell := a.table.GetCell(row, 0)
	if cell == nil {
		return nil
	}
	target, ok := cell.GetReference().(*scanner.Target)
	if !ok {
		return nil
	}
	return target
}

func (a *App) showItemDetail() {
	item := a.selectedTarget()
	if item == nil {
		return
	}

	var detail strings.Builder
	fmt.Fprintf(&detail, "Target: %s\n", item.Path)
	fmt.Fprintf(&detail, "Project: %s\n", item.ProjectDir)
	fmt.Fprintf(&detail, "Size: %s\n", humanize.Bytes(uint64(item.Size)))
	fmt.Fprintf(&detail, "Last Modified: %s\n", item.LastModifiedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&detail, "Scanned At: %s\n", item.ScannedAt.Format(time.Kitchen))

	a.detailModal.SetText(detail.String())
	a.showModal = true
	a.setRoot(a.detailModal, false)
}

func (a *App) confirmDelete() {
	target := a.selectedTarget()
	if target == nil {
		return
	}
	text := fmt.Sprintf("Delete '%s'?\n\nSize: %s",
		a.replaceHomeWithTilde(target.Path), humanize.Bytes(uint64(target.Size)))
	a.confirmModal.SetText(text)
	a.showModal = true
	a.setRoot(a.confirmModal, false)
}

func (a *App) enqueueSelected() {
	target := a.selectedTarget()
	if target == nil {
		return
	}
	a.pendingDeletes.Add(1)
	a.deleteQueue <- target
}

func (a *App) Stop() {
	if a.scanner != nil {
		a.scanner.Stop()
	}
}

func (a *App) Run() error {
	go func() {
		for updateFn := range a.uiUpdates {
			a.app.QueueUpdateDraw(updateFn)
		}
	}()

	a.startScanning()

	return a.app.Run()
}
