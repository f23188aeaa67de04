package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	xansi "github.com/charmbracelet/x/ansi"

	"assistant/internal/config"
	"assistant/internal/journal"
	"assistant/internal/logging"
	"assistant/internal/sanitize"
	"assistant/internal/streamsession"
)

const (
	minViewportWidth   = 20
	minContentHeight   = 3
	chromeLines        = 4
	statusTTL          = 4 * time.Second
	composePlaceholder = "Write to your journal…"
)

type uiMode int

const (
	uiModeLoading uiMode = iota
	uiModeLogin
	uiModeChat
	uiModePicker
)

type tickMsg time.Time

type Options struct {
	Context context.Context
	UI      config.UIConfig
	Logger  logging.Logger
}

type Model struct {
	ctx    context.Context
	runner *sessionRunner
	cfg    config.UIConfig
	logger logging.Logger

	mode     uiMode
	view     journal.View
	viewport viewport.Model
	input    textinput.Model
	login    *loginForm
	picker   *journalPicker
	loader   spinner.Model
	scroll   *scrollFollower

	width       int
	height      int
	inflight    int
	status      string
	statusErr   bool
	statusAt    time.Time
	lastTick    time.Time
	lastContent string
	now         func() time.Time
}

func NewModel(session Session, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With(logging.F("component", "ui"))

	vp := viewport.New(viewport.WithWidth(minViewportWidth), viewport.WithHeight(minContentHeight))
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = composePlaceholder
	input.Focus()

	loader := spinner.New()
	loader.Spinner = spinner.MiniDot
	loader.Style = activityStyle

	return Model{
		ctx:      ctx,
		runner:   newSessionRunner(ctx, session, logger),
		cfg:      opts.UI,
		logger:   logger,
		mode:     uiModeLoading,
		viewport: vp,
		input:    input,
		login:    newLoginForm(),
		picker:   newJournalPicker(),
		loader:   loader,
		scroll:   newScrollFollower(opts.UI),
		now:      time.Now,
	}
}

func (m *Model) Init() tea.Cmd {
	m.inflight++
	return tea.Batch(m.runner.bootstrap(), m.tickCmd(), m.loader.Tick)
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.TickInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tickMsg:
		return m, m.onTick(time.Time(msg))
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loader, cmd = m.loader.Update(msg)
		if m.view.Thinking {
			m.renderContent()
		}
		return m, cmd
	case sessionResultMsg:
		return m, m.onSessionResult(msg)
	case clipboardResultMsg:
		if msg.err != nil {
			m.setStatusError("copy failed: " + msg.err.Error())
		} else {
			m.setStatus("copied reply (" + msg.method.String() + ")")
		}
		return m, nil
	case tea.MouseWheelMsg:
		if m.mode == uiModeChat {
			m.handleWheel(msg)
		}
		return m, nil
	case tea.KeyPressMsg:
		return m, m.onKey(msg)
	}
	return m, m.forwardToFocused(msg)
}

func (m *Model) onTick(t time.Time) tea.Cmd {
	elapsed := time.Duration(0)
	if !m.lastTick.IsZero() {
		elapsed = t.Sub(m.lastTick)
	}
	m.lastTick = t
	if m.status != "" && m.now().Sub(m.statusAt) > statusTTL {
		m.status = ""
		m.statusErr = false
	}
	var cmds []tea.Cmd
	if m.mode == uiModeChat || m.mode == uiModePicker {
		if update, view, ok := m.runner.drain(m.cfg.EventsPerTick()); ok {
			m.applyView(view)
			cmds = append(cmds, m.onStreamUpdate(update))
		}
		m.scroll.step(&m.viewport, m.view.Streaming != nil, elapsed)
	}
	cmds = append(cmds, m.tickCmd())
	return tea.Batch(cmds...)
}

func (m *Model) onStreamUpdate(update streamsession.Update) tea.Cmd {
	switch {
	case update.Failed:
		m.setStatusError("assistant error: " + update.Error)
	case update.Closed:
		m.setStatusError("stream disconnected; ctrl+r to reconnect")
	}
	if update.Finished {
		m.logger.Debug("turn_finished", logging.F("failed", update.Failed))
		m.scroll.turnFinished()
		m.inflight++
		return m.runner.refresh()
	}
	return nil
}

func (m *Model) onSessionResult(msg sessionResultMsg) tea.Cmd {
	if m.inflight > 0 {
		m.inflight--
	}
	prevLines := m.viewport.TotalLineCount()
	prevOffset := m.viewport.YOffset()
	m.applyView(msg.view)

	switch msg.op {
	case opBootstrap, opLogin:
		if msg.err != nil {
			if msg.op == opLogin {
				m.login.SetError(msg.err.Error())
			} else {
				m.setStatusError("sync failed: " + msg.err.Error())
			}
		}
		if msg.view.LoggedIn {
			m.mode = uiModeChat
			m.scroll.jumpToBottom(&m.viewport)
			return m.input.Focus()
		}
		m.mode = uiModeLogin
		return m.login.focusField(loginFieldEmail)
	case opLogout:
		m.mode = uiModeLogin
		m.login = newLoginForm()
		m.login.SetWidth(m.width)
		if msg.err != nil {
			m.setStatusError("sign out: " + msg.err.Error())
		} else {
			m.setStatus("signed out")
		}
		return m.login.focusField(loginFieldEmail)
	case opLoadOlder:
		if msg.err != nil {
			m.setStatusError("load older: " + msg.err.Error())
			return nil
		}
		// keep the same message under the cursor after prepending
		if grown := m.viewport.TotalLineCount() - prevLines; grown > 0 {
			m.viewport.SetYOffset(prevOffset + grown)
		}
		if msg.added == 0 {
			m.setStatus("no older messages")
		}
		return nil
	case opSelect:
		if msg.err != nil {
			m.setStatusError("open journal: " + msg.err.Error())
			return nil
		}
		m.scroll.jumpToBottom(&m.viewport)
		return nil
	case opSend:
		var failure *streamsession.SendFailure
		switch {
		case msg.err == nil:
		case errors.As(msg.err, &failure):
			m.setStatusError(journal.ConnectivityMsg)
		case errors.Is(msg.err, journal.ErrReadOnly):
			m.setStatusError(journal.ReadOnlyReason)
		case errors.Is(msg.err, streamsession.ErrStreamInProgress):
			m.setStatusError("wait for the current reply to finish")
		default:
			m.setStatusError("send failed: " + msg.err.Error())
		}
		m.scroll.requestCatchup()
		return nil
	case opReattach, opRefresh:
		if msg.err != nil {
			m.setStatusError(msg.op.String() + ": " + msg.err.Error())
		}
		return nil
	}
	return nil
}

func (m *Model) onKey(msg tea.KeyPressMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	switch m.mode {
	case uiModeLoading:
		return nil
	case uiModeLogin:
		submit, cmd := m.login.Update(msg)
		if !submit {
			return cmd
		}
		email, password, _ := m.login.credentials()
		m.inflight++
		m.setStatus("signing in…")
		return m.runner.login(email, password)
	case uiModePicker:
		action, cmd := m.picker.Update(msg)
		switch action {
		case pickerSelect:
			m.mode = uiModeChat
			reference, _ := m.picker.Selected()
			if reference == m.view.Reference {
				return m.input.Focus()
			}
			m.inflight++
			return tea.Batch(m.input.Focus(), m.runner.selectReference(reference))
		case pickerClose:
			m.mode = uiModeChat
			return m.input.Focus()
		}
		return cmd
	}
	return m.reduceChatKey(msg)
}

func (m *Model) reduceChatKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "ctrl+l":
		if !m.view.HasOlder {
			m.setStatus("no older messages")
			return nil
		}
		m.inflight++
		return m.runner.loadOlder()
	case "ctrl+o":
		m.mode = uiModePicker
		m.input.Blur()
		m.picker.SetWidth(m.width)
		return m.picker.Open(m.view.Journals, m.view.Today, m.view.Reference)
	case "ctrl+y":
		text := lastAssistantText(m.view)
		if text == "" {
			m.setStatus("nothing to copy")
			return nil
		}
		return copyCmd(m.ctx, text)
	case "ctrl+x":
		m.inflight++
		return m.runner.logout()
	case "ctrl+r":
		m.inflight += 2
		return tea.Batch(m.runner.reattach(), m.runner.refresh())
	case "esc":
		m.status = ""
		if m.runner.clearNotice() {
			m.view.Notice = ""
		}
		return nil
	case "up":
		m.scrollBy(-1)
		return nil
	case "down":
		m.scrollBy(1)
		return nil
	case "pgup":
		m.scrollBy(-max(1, m.viewport.Height()-1))
		return nil
	case "pgdown":
		m.scrollBy(max(1, m.viewport.Height()-1))
		return nil
	case "home":
		m.scrollBy(-m.viewport.TotalLineCount())
		return nil
	case "end":
		m.scroll.jumpToBottom(&m.viewport)
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if !m.view.CanChat {
		m.setStatusError(journal.ReadOnlyReason)
		return nil
	}
	if m.view.Streaming != nil {
		m.setStatusError("wait for the current reply to finish")
		return nil
	}
	m.input.Reset()
	m.scroll.requestCatchup()
	m.inflight++
	return m.runner.send(text)
}

func (m *Model) scrollBy(rows int) {
	m.scroll.userScroll(&m.viewport, rows, m.view.Streaming != nil)
}

func (m *Model) handleWheel(msg tea.MouseWheelMsg) {
	switch msg.Button {
	case tea.MouseWheelUp:
		m.scrollBy(-wheelRows)
	case tea.MouseWheelDown:
		m.scrollBy(wheelRows)
	}
}

func (m *Model) forwardToFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.mode {
	case uiModeChat:
		m.input, cmd = m.input.Update(msg)
	case uiModeLogin:
		_, cmd = m.login.Update(msg)
	case uiModePicker:
		_, cmd = m.picker.Update(msg)
	}
	return cmd
}

func (m *Model) applyView(view journal.View) {
	m.view = view
	m.renderContent()
}

func (m *Model) renderContent() {
	content := renderTranscript(m.view, m.viewport.Width(), m.loader.View())
	if content == m.lastContent {
		return
	}
	m.lastContent = content
	m.viewport.SetContent(content)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	vpWidth := max(minViewportWidth, width)
	vpHeight := max(minContentHeight, height-chromeLines)
	m.viewport.SetWidth(vpWidth)
	m.viewport.SetHeight(vpHeight)
	m.input.SetWidth(max(10, width-4))
	m.login.SetWidth(width)
	m.picker.SetWidth(min(width, 60))
	m.lastContent = ""
	m.renderContent()
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.statusErr = false
	m.statusAt = m.now()
}

func (m *Model) setStatusError(status string) {
	m.status = status
	m.statusErr = true
	m.statusAt = m.now()
}

func (m *Model) View() tea.View {
	var content string
	switch m.mode {
	case uiModeLoading:
		content = m.loader.View() + " " + statusStyle.Render("loading journal…")
	case uiModeLogin:
		form := m.login.View()
		if m.status != "" {
			form = lipgloss.JoinVertical(lipgloss.Left, form, m.renderStatusLine())
		}
		content = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
	default:
		content = m.renderChat()
	}
	v := tea.NewView(content)
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (m *Model) renderChat() string {
	body := m.viewport.View()
	if m.mode == uiModePicker {
		body = lipgloss.Place(m.viewport.Width(), m.viewport.Height(), lipgloss.Center, lipgloss.Center, m.picker.View())
	}
	compose := m.input.View()
	if !m.view.CanChat && m.view.ReadOnlyReason != "" {
		compose = readOnlyStyle.Render(m.view.ReadOnlyReason)
	}
	help := helpStyle.Render(xansi.Truncate("enter send · ctrl+o journals · ctrl+l older · ctrl+y copy · ctrl+r reconnect · ctrl+x sign out · ctrl+c quit", max(10, m.width), "…"))
	return strings.Join([]string{m.renderHeader(), body, m.renderStatusLine(), compose, help}, "\n")
}

func (m *Model) renderHeader() string {
	title := "Journal"
	if m.view.Reference != "" {
		title += " " + sanitize.Line(m.view.Reference, 24)
	}
	left := headerStyle.Render(title)
	if m.view.Reference != "" && m.view.Reference == m.view.Today {
		left += " " + pickerTodayStyle.Render("today")
	}
	right := headerMetaStyle.Render(sanitize.Line(m.view.User.Email, 40))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderStatusLine() string {
	switch {
	case m.status != "" && m.statusErr:
		return errorStyle.Render(" " + m.status + " ")
	case m.status != "":
		return statusStyle.Render(m.status)
	case m.view.Notice != "":
		return noticeStyle.Render(" " + sanitize.Line(m.view.Notice, max(10, m.width-2)) + " ")
	case m.view.Streaming != nil:
		return activityStyle.Render(m.loader.View() + " assistant is replying")
	case m.inflight > 0:
		return activityStyle.Render(m.loader.View() + " syncing")
	case m.scroll.suspended():
		return dividerStyle.Render("scroll paused · end to follow")
	}
	return dividerStyle.Render(strings.Repeat("─", max(0, m.width)))
}
