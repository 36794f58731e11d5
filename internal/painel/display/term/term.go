// Package term prints frames to a terminal so operators can follow what a
// kiosk is showing without looking at the screen.
package term

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
)

// Color palette
var (
	accent = lipgloss.Color("#E5A00D")
	dim    = lipgloss.Color("#6B7280")
	white  = lipgloss.Color("#F9FAFB")
	green  = lipgloss.Color("#10B981")
	red    = lipgloss.Color("#EF4444")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(white).
			Background(accent).
			Bold(true).
			Padding(0, 1)

	nameStyle  = lipgloss.NewStyle().Foreground(white)
	offerStyle = lipgloss.NewStyle().Foreground(green).Bold(true)
	priceStyle = lipgloss.NewStyle().Foreground(accent)
	emptyStyle = lipgloss.NewStyle().Foreground(dim)
	errorStyle = lipgloss.NewStyle().Foreground(red)
	infoStyle  = lipgloss.NewStyle().Foreground(dim).Italic(true)

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Padding(0, 1)
)

const nameWidth = 30

// Sink renders frames as styled text
type Sink struct {
	mu    sync.Mutex
	out   io.Writer
	title string
}

// New creates a sink writing to out
func New(out io.Writer) *Sink {
	return &Sink{out: out}
}

// Show implements display.Sink. Fade frames are not printed.
func (s *Sink) Show(ctx context.Context, frame v1alpha1.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var text string
	switch frame.Type {
	case v1alpha1.FrameTitle:
		s.title = frame.Title
		return nil
	case v1alpha1.FrameOrientation:
		text = infoStyle.Render("orientação: " + string(frame.Orientation))
	case v1alpha1.FrameSetup:
		text = s.setup(frame.Setup)
	case v1alpha1.FramePlaceholder:
		text = lipgloss.JoinVertical(lipgloss.Left, s.header(), emptyStyle.Render(frame.Message))
	case v1alpha1.FrameTable:
		text = s.table(frame.Table)
	case v1alpha1.FrameOverlay:
		text = overlay(frame.Overlay)
	case v1alpha1.FrameHide:
		text = infoStyle.Render("■ vídeo encerrado")
	default:
		return nil
	}

	_, err := fmt.Fprintln(s.out, text)
	return err
}

func (s *Sink) header() string {
	if s.title == "" {
		return ""
	}
	return titleStyle.Render(s.title)
}

func (s *Sink) setup(screen *v1alpha1.SetupScreen) string {
	lines := []string{titleStyle.Render("PAREAMENTO")}
	if screen != nil {
		lines = append(lines, infoStyle.Render(screen.Hint))
		if screen.Error != "" {
			lines = append(lines, errorStyle.Render(screen.Error))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (s *Sink) table(t *v1alpha1.TableFrame) string {
	if t == nil {
		return ""
	}

	columns := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		rows := make([]string, 0, len(col.Rows))
		for _, row := range col.Rows {
			rows = append(rows, formatRow(row))
		}
		columns = append(columns, columnStyle.Render(strings.Join(rows, "\n")))
	}

	page := infoStyle.Render(fmt.Sprintf("página %d/%d", t.Page+1, t.TotalPages))
	return lipgloss.JoinVertical(lipgloss.Left,
		s.header(),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		page,
	)
}

func formatRow(row v1alpha1.TableRow) string {
	if row.Empty {
		return emptyStyle.Render(strings.Repeat("·", nameWidth+12))
	}

	name := row.Name
	if row.Marquee {
		r := []rune(name)
		if len(r) > nameWidth-1 {
			name = string(r[:nameWidth-1]) + "»"
		}
	}

	style := nameStyle
	if row.OnOffer {
		style = offerStyle
		name = "★ " + name
	}
	return style.Width(nameWidth).Render(name) + " " + priceStyle.Render(row.Price)
}

func overlay(o *v1alpha1.OverlayFrame) string {
	if o == nil {
		return ""
	}

	lines := []string{offerStyle.Render(fmt.Sprintf("▶ %s (#%d)", o.Source, o.Sequence))}
	for _, el := range o.Elements {
		switch el.Kind {
		case v1alpha1.ElementImage:
			lines = append(lines, infoStyle.Render(fmt.Sprintf("  %s: imagem %s", el.Slot, el.Src)))
		default:
			lines = append(lines, nameStyle.Render(fmt.Sprintf("  %s: %s", el.Slot, el.Text)))
		}
	}
	return strings.Join(lines, "\n")
}
