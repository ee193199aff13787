// Package tui is the interactive mode: a table of found target
// directories that can be inspected and deleted one by one.
package tui

import (
	"fmt"
	"log"
	"os"
	"slices"
	"sync/atomic"

	"codeberg.org/tslocum/cview"
	"github.com/SupaMaggie70Incorporated/cargosweep/scanner"
)

type App struct {
	app *cview.Application
	cfg scanner.Config

	scanner *scanner.Scanner

	header       *cview.TextView
	footer       *cview.TextView
	table        *cview.Table
	panels       *cview.Panels
	flex         *cview.Flex
	detailModal  *cview.Modal
	confirmModal *cview.Modal
	themeModal   *cview.Modal
	quitModal    *cview.Modal

	items     []*scanner.Target
	showModal bool

	uiUpdates chan func()

	userHomeDir string
	claimable   atomic.Int64

	currentTheme Theme

	deleteQueue    chan *scanner.Target
	deleteDone     chan *deleteResult
	activeDeletes  atomic.Int64
	pendingDeletes atomic.Int64
}

type deleteResult struct {
	target *scanner.Target
	err    error
}

// NewApp builds the application for cfg. The engine always runs as a dry
// run here: physical deletion only happens through the confirm flow.
func NewApp(cfg scanner.Config) *App {
	cfg.Delete = false

	app := cview.NewApplication()
	theme := defaultTheme()

	header := cview.NewTextView()
	header.SetDynamicColors(true)

	footer := cview.NewTextView()
	footer.SetDynamicColors(true)

	detailModal := cview.NewModal()
	detailModal.AddButtons([]string{"Okay"})

	confirmModal := cview.NewModal()
	confirmModal.AddButtons([]string{"Delete", "Cancel"})

	themeModal := cview.NewModal()
	themeNames := getThemeNames()
	themeModal.AddButtons(themeNames)

	quitModal := cview.NewModal()
	quitModal.AddButtons([]string{"Wait", "Force Quit"})

	panels := cview.NewPanels()
	table := cview.NewTable()
	panels.AddPanel("table", table, true, true)

	a := &App{
		app:          app,
		cfg:          cfg,
		header:       header,
		footer:       footer,
		table:        table,
		panels:       panels,
		detailModal:  detailModal,
		confirmModal: confirmModal,
		themeModal:   themeModal,
		quitModal:    quitModal,
		items:        make([]*scanner.Target, 0),
		uiUpdates:    make(chan func(), 128),
		currentTheme: theme,
		deleteQueue:  make(chan *scanner.Target, 100),
		deleteDone:   make(chan *deleteResult, 100),
	}

	flex := cview.NewFlex()
	flex.SetDirection(cview.FlexRow)
	flex.AddItem(header, 1, 0, false)
	flex.AddItem(panels, 0, 1, true)
	flex.AddItem(footer, 1, 0, false)
	a.flex = flex

	app.SetInputCapture(a.handleInput)

	detailModal.SetDoneFunc(func(_ int, _ string) {
		a.closeModal()
	})

	confirmModal.SetDoneFunc(func(_ int, buttonLabel string) {
		a.closeModal()
		if buttonLabel == "Delete" {
			a.enqueueSelected()
		}
	})

	themeModal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		a.closeModal()
		if buttonIndex >= 0 && buttonIndex < len(themeNames) {
			a.switchTheme(buttonLabel)
			a.applyTheme()
		}
	})

	quitModal.SetDoneFunc(func(_ int, buttonLabel string) {
		a.closeModal()
		if buttonLabel == "Force Quit" {
			a.Stop()
			a.app.Stop()
		}
	})

	home, err := os.UserHomeDir()
	if err != nil {
		log.Panicln("Error getting home:", err)
	}
	a.userHomeDir = home

	header.SetTextAlign(cview.AlignCenter)
	header.SetText(headerStartupStatus(&theme, a.replaceHomeWithTilde(cfg.Root)))
	footer.SetTextAlign(cview.AlignCenter)
	footer.SetText(footerStatusMenu(&theme))

	a.setRoot(flex, true)
	a.applyTheme()
	a.startDeleteWorkers(2)

	return a
}

func (a *App) switchTheme(themeName string) {
	if th, ok := themes[themeName]; ok {
		a.currentTheme = th
	}
}

func (a *App) applyTheme() {
	theme := a.currentTheme

	a.header.SetBackgroundColor(theme.headerBg)
	a.header.SetTextColor(theme.headerFg)

	a.footer.SetBackgroundColor(theme.footerBg)
	a.footer.SetTextColor(theme.footerFg)

	for _, modal := range []*cview.Modal{a.detailModal, a.confirmModal, a.themeModal, a.quitModal} {
		modal.SetBackgroundColor(theme.modalBg)
		modal.SetTextColor(theme.modalFg)
		modal.SetButtonBackgroundColor(theme.buttonBg)
		modal.SetButtonTextColor(theme.buttonFg)
	}

	a.table.SetBackgroundColor(theme.bg)
	a.panels.SetBackgroundColor(theme.bg)

	a.trySendUIUpdate(func() {
		a.updateFinalStatus()
		a.buildTable()
	})
}

func (a *App) showThemeSelector() {
	theme := a.currentTheme
	a.themeModal.SetText(fmt.Sprintf("Select Theme (Current: %s)", theme.Name))
	a.showModal = true
	a.setRoot(a.themeModal, false)
}

func (a *App) showQuitPrompt() {
	a.quitModal.SetText("A scan or deletion is still running. Quit anyway?")
	a.showModal = true
	a.setRoot(a.quitModal, false)
}

func (a *App) closeModal() {
	a.showModal = false
	a.setRoot(a.flex, true)
}

// trySendUIUpdate queues work for the draw goroutine, dropping it when
// the queue is full.
func (a *App) trySendUIUpdate(f func()) {
	select {
	case a.uiUpdates <- f:
	default:
	}
}

// setRoot queues a SetRoot operation to avoid data races
func (a *App) setRoot(primitive cview.Primitive, focus bool) {
	a.app.QueueUpdateDraw(func() {
		a.app.SetRoot(primitive, focus)
	})
}

func (a *App) IsDeleting() bool {
	return a.activeDeletes.Load() > 0 || a.pendingDeletes.Load() > 0
}

func (a *App) startDeleteWorkers(workers int) {
	for i := 0; i < workers; i++ {
		go a.deleteWorker()
	}
	go a.processDeleteResults()
}

func (a *App) deleteWorker() {
	for target := range a.deleteQueue {
		a.activeDeletes.Add(1)

		displayPath := a.replaceHomeWithTilde(target.Path)
		a.trySendUIUpdate(func() { a.footer.SetText(footerStatusDeleting(&a.currentTheme, displayPath)) })

		err := os.RemoveAll(target.Path)

		a.activeDeletes.Add(-1)
		a.deleteDone <- &deleteResult{target: target, err: err}
	}
}

func (a *App) processDeleteResults() {
	for result := range a.deleteDone {
		a.pendingDeletes.Add(-1)
		displayPath := a.replaceHomeWithTilde(result.target.Path)

		if result.err != nil {
			log.Printf("Error deleting target directory %s: %v", result.target.Path, result.err)
			a.trySendUIUpdate(func() { a.footer.SetText(footerStatusDeleteError(&a.currentTheme, displayPath, result.err)) })
			continue
		}

		// a.items belongs to the draw goroutine; mutate it there, like
		// the append path in handleResult.
		target := result.target
		a.trySendUIUpdate(func() {
			a.items = slices.DeleteFunc(a.items, func(t *scanner.Target) bool { return t.Path == target.Path })
			a.claimable.Add(-target.Size)
			a.buildTable()
			a.updateFinalStatus()
			a.footer.SetText(footerStatusDeleted(&a.currentTheme, displayPath))
		})
	}
}
