package app

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

type loginField int

const (
	loginFieldEmail loginField = iota
	loginFieldPassword
)

type loginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    loginField
	err      string
}

func newLoginForm() *loginForm {
	email := textinput.New()
	email.Prompt = "email    "
	email.Placeholder = "you@example.com"
	email.CharLimit = 254

	password := textinput.New()
	password.Prompt = "password "
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 256

	form := &loginForm{email: email, password: password}
	form.focusField(loginFieldEmail)
	return form
}

func (f *loginForm) SetWidth(width int) {
	inner := width - 16
	if inner < 10 {
		inner = 10
	}
	f.email.SetWidth(inner)
	f.password.SetWidth(inner)
}

func (f *loginForm) focusField(field loginField) tea.Cmd {
	f.focus = field
	if field == loginFieldPassword {
		f.email.Blur()
		return f.password.Focus()
	}
	f.password.Blur()
	return f.email.Focus()
}

func (f *loginForm) credentials() (string, string, bool) {
	email := strings.TrimSpace(f.email.Value())
	password := f.password.Value()
	return email, password, email != "" && password != ""
}

// Update returns submit=true when the user confirmed complete credentials.
func (f *loginForm) Update(msg tea.Msg) (bool, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "tab", "shift+tab", "down", "up":
			if f.focus == loginFieldEmail {
				return false, f.focusField(loginFieldPassword)
			}
			return false, f.focusField(loginFieldEmail)
		case "enter":
			if _, _, ok := f.credentials(); ok {
				f.err = ""
				return true, nil
			}
			if f.focus == loginFieldEmail {
				return false, f.focusField(loginFieldPassword)
			}
			f.err = "email and password are required"
			return false, nil
		}
	}
	var cmd tea.Cmd
	if f.focus == loginFieldPassword {
		f.password, cmd = f.password.Update(msg)
	} else {
		f.email, cmd = f.email.Update(msg)
	}
	return false, cmd
}

func (f *loginForm) SetError(err string) {
	f.err = err
	f.password.SetValue("")
	f.focusField(loginFieldPassword)
}

func (f *loginForm) View() string {
	lines := []string{
		headerStyle.Render("Sign in"),
		"",
		f.email.View(),
		f.password.View(),
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render(" "+f.err+" "))
	}
	lines = append(lines, "", helpStyle.Render("tab switch field · enter sign in · ctrl+c quit"))
	return loginFrameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
