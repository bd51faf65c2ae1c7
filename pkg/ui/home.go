package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/yabdellah/live-cli-chat/pkg/chat"
)

type homeScreen struct {
	app     *App
	session *chat.RosterSession
	list    *tview.List
	status  *tview.TextView
	done    chan struct{}
}

func (a *App) showHome() {
	roster := chat.NewRoster(a.gw, a.log)
	h := &homeScreen{
		app:     a,
		session: chat.NewRosterSession(roster),
		list:    tview.NewList().ShowSecondaryText(false),
		status:  tview.NewTextView().SetDynamicColors(true),
		done:    make(chan struct{}),
	}
	h.list.SetBorder(true).SetTitle(" Chats ").SetTitleAlign(tview.AlignLeft)

	h.list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'n':
			h.showChatDialog("Create New Chat", "Create", func(name, code string) {
				h.session.CreateChat(a.ctx, name, code)
			})
			return nil
		case 'j':
			h.showChatDialog("Join Existing Chat", "Join", func(name, code string) {
				h.session.JoinChat(a.ctx, name, code)
			})
			return nil
		case 'e':
			h.session.ClearError()
			return nil
		}
		return event
	})

	help := tview.NewTextView().SetDynamicColors(true).
		SetText("[blue]n[-] new chat  [blue]j[-] join chat  [blue]e[-] dismiss error  [blue]enter[-] open")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(h.list, 0, 1, true).
		AddItem(h.status, 1, 0, false).
		AddItem(help, 1, 0, false)

	if err := h.session.Open(a.ctx); err != nil {
		a.log.Error().Err(err).Msg("failed to open roster")
	}
	go h.watch()

	a.mount(pageHome, layout, func() {
		close(h.done)
		h.session.Close()
	})
	h.render()
}

// watch marshals state changes back onto the UI goroutine before any redraw
// touches shared widgets.
func (h *homeScreen) watch() {
	for {
		select {
		case <-h.session.Changed():
			h.app.tv.QueueUpdateDraw(h.render)
		case <-h.done:
			return
		}
	}
}

func (h *homeScreen) render() {
	switch h.session.State() {
	case chat.RosterLoading, chat.RosterUninitialized:
		h.status.SetText("[grey]loading chats...[-]")
	case chat.RosterError:
		h.status.SetText(fmt.Sprintf("[red]roster unavailable: %s[-]", h.session.Err()))
		return
	case chat.RosterReady:
		if err := h.session.Err(); err != "" {
			h.status.SetText("[red]error: " + err + "[-]")
		} else {
			h.status.SetText("")
		}
	}

	selected := h.list.GetCurrentItem()
	h.list.Clear()
	for _, c := range h.session.Chats() {
		c := c
		h.list.AddItem(c.Name, "", 0, func() {
			h.app.showChat(c.ID, c.Name)
		})
	}
	if selected >= 0 && selected < h.list.GetItemCount() {
		h.list.SetCurrentItem(selected)
	}
}

func (h *homeScreen) showChatDialog(title, action string, submit func(name, code string)) {
	form := tview.NewForm()
	form.AddInputField("Group Name", "", 30, nil, nil).
		AddInputField("Access Code", "", 30, nil, nil).
		AddButton(action, func() {
			name := form.GetFormItemByLabel("Group Name").(*tview.InputField).GetText()
			code := form.GetFormItemByLabel("Access Code").(*tview.InputField).GetText()
			if strings.TrimSpace(name) == "" || strings.TrimSpace(code) == "" {
				// Both fields are required before the action unlocks.
				return
			}
			go submit(name, code)
			h.app.pages.RemovePage(pageDialog)
		}).
		AddButton("Cancel", func() {
			h.app.pages.RemovePage(pageDialog)
		})
	form.SetBorder(true).SetTitle(" " + title + " ").SetTitleAlign(tview.AlignLeft)
	form.SetCancelFunc(func() {
		h.app.pages.RemovePage(pageDialog)
	})

	h.app.pages.AddPage(pageDialog, modal(form, 46, 9), true, true)
}
