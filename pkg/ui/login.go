package ui

import (
	"github.com/rivo/tview"
)

func (a *App) showLogin() {
	status := tview.NewTextView().SetDynamicColors(true)

	form := tview.NewForm()
	form.AddInputField("Email", "", 40, nil, nil).
		AddPasswordField("Password", "", 40, '*', nil).
		AddButton("Log In", func() {
			email := form.GetFormItemByLabel("Email").(*tview.InputField).GetText()
			password := form.GetFormItemByLabel("Password").(*tview.InputField).GetText()
			if _, err := a.provider.SignIn(a.ctx, email, password); err != nil {
				status.SetText("[red]" + err.Error() + "[-]")
				return
			}
			a.showHome()
		}).
		AddButton("Sign Up", func() {
			a.showSignUp()
		})
	form.SetBorder(true).SetTitle(" Welcome Back ").SetTitleAlign(tview.AlignLeft)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)
	a.mount(pageLogin, layout, nil)
}
