package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"spindle/internal/services"
	"spindle/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	ConfirmView
	ImportView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	catalog      services.Catalog
	engine       *tasks.ImportEngine
	playlistID   string
	playlist     *services.SpotifyPlaylist
	width        int
	height       int
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.ImportResult
	errorList    list.Model
	err          error
	help         help.Model
	keys         keyMap
}

type playlistFetchedMsg struct {
	playlist *services.SpotifyPlaylist
	err      error
}

type progressUpdateMsg tasks.ProgressUpdate

type importCompleteMsg struct {
	result *tasks.ImportResult
	err    error
}

// errorItem wraps [tasks.RecordError] to implement [list.Item].
type errorItem struct {
	record tasks.RecordError
}

var _ list.Item = errorItem{}

func (i errorItem) FilterValue() string { return i.record.Item }
func (i errorItem) Title() string       { return i.record.Item }
func (i errorItem) Description() string { return i.record.Message }

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, catalog services.Catalog, engine *tasks.ImportEngine, playlistID string) *Model {
	return &Model{
		ctx:        ctx,
		view:       LoadingView,
		catalog:    catalog,
		engine:     engine,
		playlistID: playlistID,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlist metadata.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylist()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if len(m.errorList.Items()) > 0 {
			m.errorList.SetSize(msg.Width-4, msg.Height-12)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case playlistFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlist = msg.playlist
		m.view = ConfirmView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case importCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		if m.result != nil && len(m.result.Errors) > 0 {
			items := make([]list.Item, len(m.result.Errors))
			for i, record := range m.result.Errors {
				items[i] = errorItem{record: record}
			}
			m.errorList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-12)
			m.errorList.Title = fmt.Sprintf("%d failures", len(m.result.Errors))
			m.errorList.SetShowHelp(false)
		}
		return m, nil
	}

	if m.view == ResultView && len(m.errorList.Items()) > 0 {
		var cmd tea.Cmd
		m.errorList, cmd = m.errorList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return styles.help.Render(fmt.Sprintf("Fetching playlist %s...", m.playlistID))
	case ConfirmView:
		return m.renderConfirm()
	case ImportView:
		return m.renderImport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		return m, tea.Quit
	case "y", "enter":
		m.view = ImportView
		return m, m.startImport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if len(m.errorList.Items()) > 0 {
		m.errorList, cmd = m.errorList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylist() tea.Cmd {
	return func() tea.Msg {
		if err := m.catalog.Authenticate(m.ctx); err != nil {
			return playlistFetchedMsg{err: err}
		}
		playlist, err := m.catalog.Playlist(m.ctx, m.playlistID)
		return playlistFetchedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) startImport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		result, err := m.engine.Run(m.ctx, progressChan, m.playlistID)
		m.result = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return importCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return importCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Import '%s'?", m.playlist.Name))
	info := fmt.Sprintf(
		"\nPlaylist: %s\nOwner: %s\nTracks: %d\n",
		m.playlist.Name,
		m.playlist.Owner.DisplayName,
		m.playlist.TrackCount(),
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderImport() string {
	title := styles.title.Render("Importing Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.Authenticating:
		phase = "Authenticating..."
	case tasks.FetchingPlaylist, tasks.FetchingTracks:
		phase = "Fetching playlist..."
	case tasks.ProcessingRecords:
		phase = fmt.Sprintf("Processing tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.LinkingPlaylist:
		phase = "Linking playlist entries..."
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Import failed: %v\n\nPress q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Import Complete!")
	info := fmt.Sprintf(
		"\nPlaylist: %s\nImported: %d/%d tracks\nArtists: %d  Albums: %d  Covers: %d archived, %d skipped\nLinked: %d",
		m.result.PlaylistName,
		m.result.Processed,
		m.result.TotalTracks,
		m.result.ArtistsTouched,
		m.result.AlbumsTouched,
		m.result.CoversArchived,
		m.result.CoversSkipped,
		m.result.LinkedTracks,
	)

	var failed string
	if len(m.result.Errors) > 0 {
		failed = fmt.Sprintf("\n\n%s\n%s",
			styles.warn.Render(fmt.Sprintf("%d records had problems:", len(m.result.Errors))),
			m.errorList.View(),
		)
	}

	helpKeys := []key.Binding{m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
