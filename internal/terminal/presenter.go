// Package terminal renders dashboard states as styled text tables
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/yourorg/market-dashboard/internal/dashboard"
	"github.com/yourorg/market-dashboard/internal/model"
)

// Presenter writes dashboard states to a terminal
type Presenter struct {
	mu        sync.Mutex
	out       io.Writer
	view      dashboard.View
	sortState model.SortState
	styles    styles
}

type styles struct {
	title      lipgloss.Style
	dim        lipgloss.Style
	errorText  lipgloss.Style
	cardLabel  lipgloss.Style
	cardValue  lipgloss.Style
	header     lipgloss.Style
	cell       lipgloss.Style
	border     lipgloss.Style
	classStyle map[dashboard.Class]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	cell := r.NewStyle().Padding(0, 1)
	return styles{
		title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		dim:       r.NewStyle().Foreground(lipgloss.Color("245")),
		errorText: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		cardLabel: r.NewStyle().Foreground(lipgloss.Color("245")),
		cardValue: r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		header:    r.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("14")),
		cell:      cell,
		border:    r.NewStyle().Foreground(lipgloss.Color("238")),
		classStyle: map[dashboard.Class]lipgloss.Style{
			dashboard.ClassOverbought: cell.Foreground(lipgloss.Color("9")),
			dashboard.ClassOversold:   cell.Foreground(lipgloss.Color("10")),
			dashboard.ClassNegative:   cell.Foreground(lipgloss.Color("9")),
		},
	}
}

// NewPresenter creates a presenter for view writing to out
func NewPresenter(out io.Writer, view dashboard.View) *Presenter {
	return &Presenter{
		out:       out,
		view:      view,
		sortState: model.DefaultSortState(),
		styles:    newStyles(lipgloss.NewRenderer(out)),
	}
}

// SetSortIndicator marks the sorted column in subsequent renders
func (p *Presenter) SetSortIndicator(column string, direction model.Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sortState = model.SortState{Column: column, Direction: direction}
}

// Render implements dashboard.Presenter
func (p *Presenter) Render(state dashboard.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	switch state.Kind {
	case dashboard.StateLoading:
		b.WriteString(p.styles.dim.Render(fmt.Sprintf("Loading %s data...", p.view.Name)))
	case dashboard.StateEmpty:
		b.WriteString(p.styles.dim.Render("No data available. Please upload a CSV file first."))
	case dashboard.StateError:
		b.WriteString(p.styles.errorText.Render(state.Message))
	case dashboard.StateTable:
		p.writeCards(&b, state)
		b.WriteString(p.renderTable(state.Bars))
	}
	b.WriteString("\n")

	io.WriteString(p.out, b.String())
}

func (p *Presenter) writeCards(b *strings.Builder, state dashboard.State) {
	cards := p.view.Cards(state.Summary, len(state.Bars))
	if len(cards) == 0 {
		return
	}

	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = p.styles.cardLabel.Render(card.Label+": ") + p.styles.cardValue.Render(card.Value)
	}
	b.WriteString(p.styles.title.Render(strings.ToUpper(p.view.Name)))
	b.WriteString("  ")
	b.WriteString(strings.Join(parts, "   "))
	b.WriteString("\n")
}

func (p *Presenter) renderTable(bars []model.Bar) string {
	headers := make([]string, len(p.view.Columns))
	for i, column := range p.view.Columns {
		headers[i] = column.Title + indicator(column.Key, p.sortState)
	}

	cells := p.view.Project(bars)
	rows := make([][]string, len(cells))
	for i, row := range cells {
		texts := make([]string, len(row))
		for j, cell := range row {
			texts[j] = cell.Text
		}
		rows[i] = texts
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.styles.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.styles.header
			}
			if row < 0 || row >= len(cells) || col >= len(cells[row]) {
				return p.styles.cell
			}
			if style, ok := p.styles.classStyle[cells[row][col].Class]; ok {
				return style
			}
			return p.styles.cell
		})

	return t.String()
}

// indicator returns the arrow shown next to the sorted column
func indicator(key string, state model.SortState) string {
	if key != state.Column {
		return ""
	}
	if state.Direction == model.Ascending {
		return " ▲"
	}
	return " ▼"
}
