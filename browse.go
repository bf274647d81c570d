package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/kobo-highlights/internal/highlights"
)

// BrowseCmd opens an interactive list of highlights.
type BrowseCmd struct {
	DB                  string `name:"db" help:"Path to KoboReader.sqlite (default: KoboReader.sqlite)" type:"path"`
	KeepFilenameChapter bool   `name:"keep-filename-chapter" help:"Keep chapter titles that look like filenames"`
	BooksDir            string `name:"books-dir" help:"Directory holding the device's EPUB files" type:"path"`
	AutoDetect          bool   `name:"auto-detect" help:"Find the database on a mounted Kobo instead of using --db"`
}

func (c *BrowseCmd) Run(g *Globals) error {
	cfg, log, err := g.setup()
	if err != nil {
		return err
	}
	src := (&ExportCmd{
		DB:                  c.DB,
		KeepFilenameChapter: c.KeepFilenameChapter,
		BooksDir:            c.BooksDir,
		AutoDetect:          c.AutoDetect,
	}).settings(cfg).source

	res, err := load(context.Background(), src, log)
	if err != nil {
		return err
	}
	if len(res.Rows) == 0 {
		return fmt.Errorf("no highlights in %s", res.DBPath)
	}

	p := tea.NewProgram(newBrowseModel(res.Rows), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00AAFF")).
			Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	quoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("#FFAA00")).
			PaddingLeft(1).
			MarginLeft(1)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAFFAA")).
			Italic(true).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true).
			Padding(0, 1)
)

// highlightItem adapts a row to the list component.
type highlightItem struct {
	row highlights.Row
}

func (i highlightItem) Title() string {
	text := i.row.Text
	if strings.TrimSpace(text) == "" {
		text = "Note: " + i.row.Annotation
	}
	return snippet(text, 80)
}

func (i highlightItem) Description() string {
	chapter := i.row.ChapterTitle
	if chapter == "" {
		chapter = "Untitled"
	}
	book := i.row.BookTitle
	if book == "" {
		book = "Unknown Title"
	}
	return book + " · " + chapter
}

func (i highlightItem) FilterValue() string {
	return strings.Join([]string{i.row.Text, i.row.Annotation, i.row.BookTitle, i.row.Author, i.row.ChapterTitle}, " ")
}

// snippet collapses whitespace and truncates to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

type browseModel struct {
	list     list.Model
	detail   bool
	quitting bool
	width    int
	height   int
}

func newBrowseModel(rows []highlights.Row) browseModel {
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = highlightItem{row: r}
	}
	l := list.New(items, list.NewDefaultDelegate(), 80, 24)
	l.Title = fmt.Sprintf("Kobo highlights (%d)", len(rows))
	return browseModel{list: l, width: 80, height: 24}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if _, ok := m.list.SelectedItem().(highlightItem); ok {
				m.detail = !m.detail
			}
			return m, nil
		case "esc":
			if m.detail {
				m.detail = false
				return m, nil
			}
		}
		if m.detail {
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	if m.quitting {
		return ""
	}
	if m.detail {
		if it, ok := m.list.SelectedItem().(highlightItem); ok {
			return m.detailView(it.row)
		}
	}
	return m.list.View()
}

func (m browseModel) detailView(r highlights.Row) string {
	width := m.width - 4
	if width < 20 {
		width = 20
	}

	var meta []string
	for _, v := range []string{r.Author, r.ChapterTitle, r.DateCreated, r.Color} {
		if v != "" {
			meta = append(meta, v)
		}
	}

	parts := []string{
		headerStyle.Render(r.BookTitle),
		metaStyle.Render(strings.Join(meta, " • ")),
		"",
	}
	if strings.TrimSpace(r.Text) != "" {
		parts = append(parts, quoteStyle.Width(width).Render(r.Text), "")
	}
	if strings.TrimSpace(r.Annotation) != "" {
		parts = append(parts, noteStyle.Width(width).Render("Note: "+r.Annotation), "")
	}
	parts = append(parts, controlsStyle.Render("ENTER/ESC: back  Q: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
