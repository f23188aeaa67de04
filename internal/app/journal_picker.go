package app

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"assistant/internal/sanitize"
	"assistant/internal/types"
)

const pickerMaxRows = 12

type pickerAction int

const (
	pickerNone pickerAction = iota
	pickerSelect
	pickerClose
)

// journalPicker lists the user's journals, newest first, with a fuzzy filter
// on the reference.
type journalPicker struct {
	query    textinput.Model
	entries  []types.JournalEntry
	today    types.ConversationReference
	current  types.ConversationReference
	filtered []int
	cursor   int
	width    int
}

// journalSource adapts entries to fuzzy.Source.
type journalSource []types.JournalEntry

func (s journalSource) String(i int) string { return s[i].Reference }
func (s journalSource) Len() int            { return len(s) }

func newJournalPicker() *journalPicker {
	query := textinput.New()
	query.Prompt = "/ "
	query.Placeholder = "filter journals"
	return &journalPicker{query: query, width: 40}
}

func (p *journalPicker) Open(entries []types.JournalEntry, today, current types.ConversationReference) tea.Cmd {
	p.entries = append([]types.JournalEntry(nil), entries...)
	p.today = today
	p.current = current
	p.query.SetValue("")
	p.refilter()
	p.cursor = 0
	for i, idx := range p.filtered {
		if p.entries[idx].Reference == current {
			p.cursor = i
			break
		}
	}
	return p.query.Focus()
}

func (p *journalPicker) SetWidth(width int) {
	p.width = width
	p.query.SetWidth(max(10, width-8))
}

func (p *journalPicker) refilter() {
	q := strings.TrimSpace(p.query.Value())
	if q == "" {
		p.filtered = make([]int, len(p.entries))
		for i := range p.entries {
			p.filtered[i] = i
		}
	} else {
		matches := fuzzy.FindFrom(q, journalSource(p.entries))
		p.filtered = make([]int, 0, len(matches))
		for _, match := range matches {
			p.filtered = append(p.filtered, match.Index)
		}
	}
	if p.cursor >= len(p.filtered) {
		p.cursor = max(0, len(p.filtered)-1)
	}
}

// Selected returns the highlighted reference.
func (p *journalPicker) Selected() (types.ConversationReference, bool) {
	if p.cursor < 0 || p.cursor >= len(p.filtered) {
		return "", false
	}
	return p.entries[p.filtered[p.cursor]].Reference, true
}

func (p *journalPicker) Update(msg tea.Msg) (pickerAction, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "esc", "ctrl+o":
			p.query.Blur()
			return pickerClose, nil
		case "enter":
			if _, ok := p.Selected(); ok {
				p.query.Blur()
				return pickerSelect, nil
			}
			return pickerNone, nil
		case "up", "ctrl+p":
			if p.cursor > 0 {
				p.cursor--
			}
			return pickerNone, nil
		case "down", "ctrl+n":
			if p.cursor < len(p.filtered)-1 {
				p.cursor++
			}
			return pickerNone, nil
		}
	}
	var cmd tea.Cmd
	before := p.query.Value()
	p.query, cmd = p.query.Update(msg)
	if p.query.Value() != before {
		p.cursor = 0
		p.refilter()
	}
	return pickerNone, cmd
}

func (p *journalPicker) View() string {
	lines := []string{headerStyle.Render("Journals"), p.query.View(), ""}
	if len(p.filtered) == 0 {
		lines = append(lines, helpStyle.Render("no journals match"))
	}
	start := 0
	if p.cursor >= pickerMaxRows {
		start = p.cursor - pickerMaxRows + 1
	}
	end := min(len(p.filtered), start+pickerMaxRows)
	for i := start; i < end; i++ {
		lines = append(lines, p.renderRow(i))
	}
	lines = append(lines, "", helpStyle.Render("↑/↓ move · enter open · esc close"))
	return pickerFrameStyle.Render(strings.Join(lines, "\n"))
}

func (p *journalPicker) renderRow(i int) string {
	entry := p.entries[p.filtered[i]]
	label := fmt.Sprintf("%-12s %4d msgs", sanitize.Line(entry.Reference, 12), entry.MessageCount)
	marker := "  "
	if entry.Reference == p.current {
		marker = "• "
	}
	row := runewidth.Truncate(marker+label, max(10, p.width-6), "…")
	if entry.Reference == p.today {
		row += " " + pickerTodayStyle.Render("today")
	}
	if i == p.cursor {
		return pickerSelectedStyle.Render(row)
	}
	return pickerItemStyle.Render(row)
}
