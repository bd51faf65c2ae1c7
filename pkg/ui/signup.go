package ui

import (
	"github.com/rivo/tview"
)

func (a *App) showSignUp() {
	status := tview.NewTextView().SetDynamicColors(true)

	form := tview.NewForm()
	form.AddInputField("Username", "", 40, nil, nil).
		AddInputField("Email", "", 40, nil, nil).
		AddPasswordField("Password", "", 40, '*', nil).
		AddButton("Sign Up", func() {
			username := form.GetFormItemByLabel("Username").(*tview.InputField).GetText()
			email := form.GetFormItemByLabel("Email").(*tview.InputField).GetText()
			password := form.GetFormItemByLabel("Password").(*tview.InputField).GetText()
			if _, err := a.provider.SignUp(a.ctx, email, password, username); err != nil {
				status.SetText("[red]" + err.Error() + "[-]")
				return
			}
			a.showHome()
		}).
		AddButton("Log In", func() {
			a.showLogin()
		})
	form.SetBorder(true).SetTitle(" Create Account ").SetTitleAlign(tview.AlignLeft)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(status, 1, 0, false)
	a.mount(pageSignUp, layout, nil)
}
