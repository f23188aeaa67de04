package app

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	xansi "github.com/charmbracelet/x/ansi"
)

var (
	rendererMu       sync.Mutex
	renderersByWidth = map[int]*glamour.TermRenderer{}
)

// renderMarkdown renders assistant text for a bubble of the given inner
// width. Rendering failures fall back to the plain text.
func renderMarkdown(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := getRenderer(width)
	if r == nil {
		return xansi.Hardwrap(input, width, true)
	}
	out, err := r.Render(input)
	if err != nil {
		return xansi.Hardwrap(input, width, true)
	}
	out = strings.TrimRight(out, "\n")
	out = xansi.Hardwrap(out, width, true)
	return strings.TrimRight(out, "\n")
}

// renderPlain wraps user text without interpreting markdown.
func renderPlain(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if width <= 0 {
		width = 80
	}
	return xansi.Wrap(input, width, "")
}

func getRenderer(width int) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if renderer, ok := renderersByWidth[width]; ok && renderer != nil {
		return renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(buildStyleConfig()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderersByWidth[width] = r
	return r
}

func buildStyleConfig() glamouransi.StyleConfig {
	base := styles.DarkStyleConfig
	// bubble padding comes from lipgloss
	base.Document.StylePrimitive.BlockPrefix = ""
	base.Document.StylePrimitive.BlockSuffix = ""
	zero := uint(0)
	base.Document.Margin = &zero
	faint := true
	color := "245"
	base.BlockQuote.StylePrimitive.Faint = &faint
	base.BlockQuote.StylePrimitive.Color = &color
	return base
}
