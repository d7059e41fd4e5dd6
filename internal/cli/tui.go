package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/resolver"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailStyle       = lipgloss.NewStyle().PaddingLeft(2)
)

// =============================================================================
// BrowseModel - Interactive dataset browsing
// =============================================================================

type (
	navigateFunc func(ctx context.Context, url string) (*resolver.Resolution, error)
	listFunc     func(ctx context.Context, folder string) ([]string, error)
)

type listedMsg struct {
	folder  string
	entries []string
	err     error
}

type resolvedMsg struct {
	url string
	res *resolver.Resolution
	err error
}

// BrowseModel is the bubbletea model of the browse command. Moving the
// cursor resolves the highlighted folder; only the most recent selection is
// ever displayed.
type BrowseModel struct {
	ctx      context.Context
	list     listFunc
	navigate navigateFunc
	tools    neuroglancer.ToolOptions

	Folder  string
	Entries []string
	Cursor  int
	Offset  int
	Height  int

	// Pending is the URL of the highlighted entry. Resolution and Err hold
	// its outcome once it arrives.
	Pending    string
	Resolution *resolver.Resolution
	Err        error
}

// NewBrowseModel creates a browser rooted at folder.
func NewBrowseModel(ctx context.Context, folder string, list listFunc, navigate navigateFunc, tools neuroglancer.ToolOptions) BrowseModel {
	return BrowseModel{
		ctx:      ctx,
		list:     list,
		navigate: navigate,
		tools:    tools,
		Folder:   folder,
		Height:   15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return m.listCmd(m.Folder)
}

func (m BrowseModel) listCmd(folder string) tea.Cmd {
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		entries, err := list(ctx, folder)
		return listedMsg{folder: folder, entries: entries, err: err}
	}
}

// selectEntry starts resolving the highlighted entry.
func (m BrowseModel) selectEntry() (BrowseModel, tea.Cmd) {
	m.Resolution, m.Err = nil, nil
	if len(m.Entries) == 0 {
		m.Pending = ""
		return m, nil
	}
	url := childURL(m.Folder, m.Entries[m.Cursor])
	m.Pending = url
	navigate, ctx := m.navigate, m.ctx
	return m, func() tea.Msg {
		res, err := navigate(ctx, url)
		return resolvedMsg{url: url, res: res, err: err}
	}
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case listedMsg:
		if msg.folder != m.Folder {
			return m, nil
		}
		m.Entries, m.Cursor, m.Offset = msg.entries, 0, 0
		if msg.err != nil {
			m.Pending, m.Resolution, m.Err = "", nil, msg.err
			return m, nil
		}
		return m.selectEntry()

	case resolvedMsg:
		if msg.url != m.Pending || errors.Is(msg.err, resolver.ErrStale) {
			return m, nil
		}
		m.Resolution, m.Err = msg.res, msg.err
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
				return m.selectEntry()
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
				return m.selectEntry()
			}
		case "enter", "right", "l":
			if len(m.Entries) > 0 {
				m.Folder = childURL(m.Folder, m.Entries[m.Cursor])
				m.Entries, m.Pending, m.Resolution, m.Err = nil, "", nil, nil
				return m, m.listCmd(m.Folder)
			}
		case "backspace", "left", "h":
			if parent := parentURL(m.Folder); parent != m.Folder {
				m.Folder = parent
				m.Entries, m.Pending, m.Resolution, m.Err = nil, "", nil, nil
				return m, m.listCmd(m.Folder)
			}
		}

	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Folder))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select  ⏎ open folder  ⌫ parent  q quit"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.entriesView(), detailStyle.Render(m.detailView())))
	b.WriteString("\n\n")
	if len(m.Entries) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Entries))))
	}
	return b.String()
}

func (m BrowseModel) entriesView() string {
	if len(m.Entries) == 0 {
		return listDimStyle.Render("(no child folders)")
	}

	end := min(m.Offset+m.Height, len(m.Entries))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor + m.Entries[i]})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		}).
		Render()
}

func (m BrowseModel) detailView() string {
	switch {
	case m.Pending == "" && m.Err == nil:
		return ""
	case m.Err != nil:
		return styleIconError.Render(iconError) + " " + zerrors.UserMessage(m.Err)
	case m.Resolution == nil:
		return listDimStyle.Render("Resolving…")
	}

	res := m.Resolution
	var b strings.Builder
	line := func(key, value string) {
		b.WriteString(styleKey.Render(key) + " " + StyleValue.Render(value) + "\n")
	}

	line("Kind", res.State.String())
	if res.Array == nil {
		if res.MetadataError != "" {
			b.WriteString(StyleWarning.Render(res.MetadataError) + "\n")
		}
		return b.String()
	}
	line("Shape", formatInts(res.Array.Shape))
	line("Dtype", res.Array.Dtype)
	line("Layer type", res.LayerType().String())
	if len(res.Channels) > 0 {
		names := make([]string, len(res.Channels))
		for i, ch := range res.Channels {
			names[i] = ch.Name
		}
		line("Channels", strings.Join(names, ", "))
	}
	if res.ThumbnailError != "" {
		line("Thumbnail", res.ThumbnailError)
	}

	tools := resolver.ToolURLs(res, res.URL, m.tools)
	if tools.Neuroglancer != nil {
		b.WriteString("\n" + StyleLink.Render(truncate(*tools.Neuroglancer, 80)) + "\n")
	}
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func childURL(folder, name string) string {
	return strings.TrimSuffix(folder, "/") + "/" + name
}

// parentURL strips the last path segment, stopping at the URL root.
func parentURL(u string) string {
	trimmed := strings.TrimSuffix(u, "/")
	root := 0
	if i := strings.Index(trimmed, "://"); i >= 0 {
		root = i + len("://")
	}
	i := strings.LastIndex(trimmed, "/")
	switch {
	case i < root:
		return u
	case i == root:
		return trimmed[:i+1]
	}
	return trimmed[:i]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
