package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// TermRenderer renders frames as a bordered text panel for the host emulator.
// It keeps the latest composed frame; the emulator's View polls it via Frame.
type TermRenderer struct {
	cols int
	rows int

	styled     bool
	border     lipgloss.Style
	titleStyle lipgloss.Style
	emphStyle  lipgloss.Style
	chromeBar  lipgloss.Style

	mu   sync.Mutex
	last string
}

// NewTermRenderer builds a renderer for a cols×rows badge panel. Styling is
// disabled automatically on dumb terminals.
func NewTermRenderer(cols, rows int) *TermRenderer {
	styled := termenv.ColorProfile() != termenv.Ascii
	return &TermRenderer{
		cols:       cols,
		rows:       rows,
		styled:     styled,
		border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()),
		titleStyle: lipgloss.NewStyle().Bold(true),
		emphStyle:  lipgloss.NewStyle().Reverse(true),
		chromeBar:  lipgloss.NewStyle().Faint(true),
	}
}

// Render composes the frame and stores it for View. It never fails; the
// error return satisfies the Renderer contract.
func (r *TermRenderer) Render(f Frame) error {
	var rows []string

	rows = append(rows, r.chromeLine(f.Chrome))
	if f.Doc.Title != "" {
		title := r.fit(f.Doc.Title, AlignCenter)
		if r.styled {
			title = r.titleStyle.Render(title)
		}
		rows = append(rows, title)
	}
	if f.Doc.BigText != "" {
		rows = append(rows, "", r.fit(f.Doc.BigText, AlignCenter), "")
	}
	for _, line := range f.Doc.Lines {
		text := r.fit(line.Text, line.Align)
		if line.Emphasis && r.styled {
			text = r.emphStyle.Render(text)
		}
		rows = append(rows, text)
	}
	for len(rows) < r.rows {
		rows = append(rows, strings.Repeat(" ", r.cols))
	}
	if len(rows) > r.rows {
		rows = rows[:r.rows]
	}

	body := strings.Join(rows, "\n")
	if r.styled {
		body = r.border.Render(body)
	}

	r.mu.Lock()
	r.last = body
	r.mu.Unlock()
	return nil
}

// View returns the most recently rendered frame.
func (r *TermRenderer) View() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// chromeLine formats the persistent overlay: clock left, location center,
// link and battery right.
func (r *TermRenderer) chromeLine(c Chrome) string {
	link := "·"
	if c.LinkUp {
		link = "↑"
	}
	left := c.Now.Format("15:04")
	right := fmt.Sprintf("%s %3d%%", link, c.BatteryPercent)

	middleWidth := r.cols - ansi.StringWidth(left) - ansi.StringWidth(right)
	middle := truncate(c.Location, middleWidth)
	pad := middleWidth - ansi.StringWidth(middle)
	lpad := pad / 2
	if lpad < 0 {
		lpad = 0
	}
	rpad := pad - lpad
	if rpad < 0 {
		rpad = 0
	}

	line := left + strings.Repeat(" ", lpad) + middle + strings.Repeat(" ", rpad) + right
	if r.styled {
		return r.chromeBar.Render(line)
	}
	return line
}

// fit truncates and pads text to the panel width with the given alignment.
func (r *TermRenderer) fit(text string, align Align) string {
	text = truncate(text, r.cols)
	gap := r.cols - ansi.StringWidth(text)
	if gap <= 0 {
		return text
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + text
	case AlignCenter:
		l := gap / 2
		return strings.Repeat(" ", l) + text + strings.Repeat(" ", gap-l)
	default:
		return text + strings.Repeat(" ", gap)
	}
}

// truncate cuts text to max display cells, appending an ellipsis when cut.
func truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if ansi.StringWidth(text) <= max {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && ansi.StringWidth(string(runes))+1 > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
