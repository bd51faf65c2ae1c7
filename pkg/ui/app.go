package ui

import (
	"context"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/yabdellah/live-cli-chat/pkg/gateway"
	"github.com/yabdellah/live-cli-chat/pkg/identity"
)

const (
	pageLogin  = "login"
	pageSignUp = "signup"
	pageHome   = "home"
	pageChat   = "chat"
	pageDialog = "dialog"
)

// App owns the terminal application and screen navigation. Pages play the
// role of the navigation layer: exactly one screen is mounted at a time, and
// the screen being unmounted releases its session before the next one shows.
type App struct {
	ctx      context.Context
	tv       *tview.Application
	pages    *tview.Pages
	gw       gateway.Gateway
	provider identity.Provider
	log      zerolog.Logger

	mounted string
	cleanup func()
}

func New(ctx context.Context, gw gateway.Gateway, provider identity.Provider, logger zerolog.Logger) *App {
	a := &App{
		ctx:      ctx,
		tv:       tview.NewApplication(),
		pages:    tview.NewPages(),
		gw:       gw,
		provider: provider,
		log:      logger.With().Str("component", "ui").Logger(),
	}
	a.showLogin()
	a.tv.SetRoot(a.pages, true)
	return a
}

func (a *App) Run() error {
	defer func() {
		if a.cleanup != nil {
			a.cleanup()
		}
	}()
	return a.tv.Run()
}

func (a *App) mount(name string, screen tview.Primitive, cleanup func()) {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
	if a.mounted != "" {
		a.pages.RemovePage(a.mounted)
	}
	a.pages.AddAndSwitchToPage(name, screen, true)
	a.mounted = name
	a.cleanup = cleanup
}

// modal centers a primitive over the current screen.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}
