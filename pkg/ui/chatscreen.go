package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/yabdellah/live-cli-chat/pkg/chat"
)

type chatScreen struct {
	app     *App
	session *chat.ThreadSession
	view    *tview.TextView
	input   *tview.InputField
	done    chan struct{}
}

func (a *App) showChat(chatID, name string) {
	thread := chat.NewThread(a.gw, a.provider, a.log)
	if err := thread.Open(a.ctx, chatID); err != nil {
		a.log.Error().Err(err).Str("chat_id", chatID).Msg("failed to open chat")
		return
	}

	c := &chatScreen{
		app:     a,
		session: chat.NewThreadSession(thread),
		view:    tview.NewTextView().SetDynamicColors(true).SetScrollable(true),
		done:    make(chan struct{}),
	}
	c.view.SetBorder(true).SetTitle(" " + name + " ").SetTitleAlign(tview.AlignLeft)

	c.input = tview.NewInputField()
	c.input.SetPlaceholder("Type a message, Esc goes back").
		SetPlaceholderTextColor(tcell.ColorDeepSkyBlue)
	c.input.SetLabel(">").SetLabelColor(tcell.ColorDeepSkyBlue).SetLabelWidth(2)
	c.input.SetChangedFunc(func(text string) {
		c.session.SetInput(text)
	})
	c.input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			// Fire and forget; the buffer clears through the next render
			// once the write is issued.
			go c.session.Send(a.ctx)
		case tcell.KeyEscape:
			a.showHome()
		}
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.view, 0, 1, false).
		AddItem(c.input, 1, 0, true)

	go c.watch()
	a.mount(pageChat, layout, func() {
		close(c.done)
		c.session.Close()
	})
	c.render()
}

func (c *chatScreen) watch() {
	for {
		select {
		case <-c.session.Changed():
			c.app.tv.QueueUpdateDraw(c.render)
		case <-c.done:
			return
		}
	}
}

func (c *chatScreen) render() {
	c.view.Clear()
	for _, m := range c.session.Messages() {
		date := time.UnixMilli(m.SentAt).Format("Jan 2 15:04:05")
		author := m.SenderName
		if m.IsOwn {
			author = fmt.Sprintf("[blue::b]%s[::-]", author)
		}
		fmt.Fprintf(c.view, "%s [grey]%s[::-]\n  [white]%s[::-]\n\n", author, date, m.Body)
	}
	if err := c.session.Err(); err != "" {
		fmt.Fprintf(c.view, "[red]error:[::-] %s\n", err)
	}
	c.view.ScrollToEnd()

	if c.input.GetText() != c.session.Input() {
		c.input.SetText(c.session.Input())
	}
}
