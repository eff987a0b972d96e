package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songdrop/internal/models"
	"github.com/desertthunder/songdrop/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongListView ViewState = iota
	DetailView
)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	client   services.Client
	copyFn   func(string) error
	width    int
	height   int
	songList list.Model
	selected *models.Song
	loading  bool
	status   string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model reading songs from client.
func NewModel(ctx context.Context, client services.Client) *Model {
	songList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songList.Title = "Songs"
	songList.SetShowHelp(false)

	return &Model{
		ctx:      ctx,
		view:     SongListView,
		client:   client,
		copyFn:   clipboard.WriteAll,
		songList: songList,
		loading:  true,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// WithClipboard replaces the function used to copy URLs.
func (m *Model) WithClipboard(fn func(string) error) *Model {
	m.copyFn = fn
	return m
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, client services.Client) error {
	p := tea.NewProgram(NewModel(ctx, client), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Init initializes the TUI by fetching songs from the server.
func (m *Model) Init() tea.Cmd {
	return m.fetchSongs()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SongListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSongsFetched:
		data := msg.data.(songsFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("%d songs", len(data.songs))
		return m, m.songList.SetItems(songItems(data.songs))

	case MsgURLCopied:
		data := msg.data.(urlCopied)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Copy failed: %v", data.err))
		} else {
			m.status = styles.ok.Render("✓ Copied " + data.url)
		}
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry, q to quit", m.err))
	}
	if m.loading {
		return styles.help.Render("Loading songs...")
	}

	switch m.view {
	case DetailView:
		return m.renderDetail()
	default:
		return m.renderList()
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.songList.SettingFilter() {
		var cmd tea.Cmd
		m.songList, cmd = m.songList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.loading = true
		return m, m.fetchSongs()
	case key.Matches(msg, m.keys.copy):
		if song := m.selectedSong(); song != nil {
			return m, m.copyURL(song.URL)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if song := m.selectedSong(); song != nil {
			m.selected = song
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SongListView
		m.selected = nil
		return m, nil
	case key.Matches(msg, m.keys.copy):
		return m, m.copyURL(m.selected.URL)
	}
	return m, nil
}

func (m *Model) selectedSong() *models.Song {
	item, ok := m.songList.SelectedItem().(songItem)
	if !ok {
		return nil
	}
	song := item.song
	return &song
}

func (m *Model) fetchSongs() tea.Cmd {
	return func() tea.Msg {
		songs, err := m.client.ListSongs(m.ctx)
		return songsFetchedMsg(songs, err)
	}
}

func (m *Model) copyURL(url string) tea.Cmd {
	return func() tea.Msg {
		return urlCopiedMsg(url, m.copyFn(url))
	}
}

func (m *Model) renderList() string {
	var b strings.Builder
	b.WriteString(m.songList.View())
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.filter, m.keys.copy, m.keys.reload, m.keys.quit}))
	return b.String()
}

func (m *Model) renderDetail() string {
	s := m.selected
	title := styles.title.Render(s.Title)

	info := fmt.Sprintf("URL: %s\n", styles.url.Render(s.URL))
	if !s.UploadedAt.IsZero() {
		info += fmt.Sprintf("Uploaded: %s\n", s.UploadedAt.Local().Format("2006-01-02 15:04:05"))
	}
	info += fmt.Sprintf("\nIn game: %s\n", styles.warn.Render("/streammusic "+s.URL))

	status := ""
	if m.status != "" {
		status = "\n" + m.status + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.copy, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n%s", title, info, status, helpView)
}
