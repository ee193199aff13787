package tui

import "github.com/gdamore/tcell/v3"

func (a *App) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if a.showModal {
		// vi key binding for modal button selection
		switch event.Str() {
		case "l":
			return tcell.NewEventKey(tcell.KeyRight, tcell.KeyNames[tcell.KeyRight], tcell.ModNone)
		case "h":
			return tcell.NewEventKey(tcell.KeyLeft, tcell.KeyNames[tcell.KeyLeft], tcell.ModNone)
		}
		return event
	}

	switch event.Str() {
	case "s", "S":
		if !a.IsScanning() {
			a.startScanning()
		}
		return nil
	case "q", "Q":
		if a.IsScanning() || a.IsDeleting() {
			a.showQuitPrompt()
			return nil
		}
		a.Stop()
		a.app.Stop()
		return nil
	case "i", "I":
		a.showItemDetail()
	case "d", "D":
		a.confirmDelete()
	case "t", "T":
		a.showThemeSelector()
	}

	return event
}
