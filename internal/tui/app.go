package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/library"
	"github.com/mmcdole/longbox/internal/poller"
	"github.com/mmcdole/longbox/internal/search"
	"github.com/mmcdole/longbox/internal/session"
	"github.com/mmcdole/longbox/internal/tui/components"
	"github.com/mmcdole/longbox/internal/tui/styles"
)

const (
	tickInterval  = 100 * time.Millisecond
	statusTimeout = 3 * time.Second
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateConfirmReset
	StateConfirmDelete
	StateHelp
)

// Pane identifies one of the two browsing lists
type Pane int

const (
	PaneGroups Pane = iota
	PaneComics
)

// Options configures a Model
type Options struct {
	Client    domain.LibraryClient
	Schedule  *poller.Schedule     // defaults to a 30s poll with 2m max backoff
	Observer  poller.FetchObserver // may be nil
	Index     library.Attribute    // initially selected index
	ServerURL string               // display only
	Logger    *slog.Logger
}

// comicRow is one rendered entry of the comic list
type comicRow struct {
	Comic   domain.Comic
	Matched []int // byte offsets of filter matches in the display title
}

// Model is the main Bubble Tea model. Update is the only caller of
// Session.Dispatch while the program runs.
type Model struct {
	State   ApplicationState
	Session *session.Session

	ctx       context.Context
	client    domain.LibraryClient
	schedule  *poller.Schedule
	observer  poller.FetchObserver
	logger    *slog.Logger
	serverURL string

	// Layout
	Width  int
	Height int

	// Browsing
	attr        library.Attribute
	focus       Pane
	groupCursor components.Cursor
	comicCursor components.Cursor

	// Filtering; each pane keeps its own query
	filterInput textinput.Model
	filterPane  Pane
	groupQuery  string
	comicQuery  string

	// Open comic detail
	detail        *domain.Comic
	detailLoading bool

	// pollSeq identifies the only scheduled poll still allowed to fire
	pollSeq       int
	pendingDelete []int64

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
}

// NewModel creates a new application model around a restored session
func NewModel(ctx context.Context, sess *session.Session, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	schedule := opts.Schedule
	if schedule == nil {
		schedule = poller.NewSchedule(30*time.Second, 0.2, 2*time.Minute)
	}

	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return Model{
		State:       StateBrowsing,
		Session:     sess,
		ctx:         ctx,
		client:      opts.Client,
		schedule:    schedule,
		observer:    opts.Observer,
		logger:      logger,
		serverURL:   opts.ServerURL,
		attr:        opts.Index,
		focus:       PaneGroups,
		groupCursor: components.NewCursor(),
		comicCursor: components.NewCursor(),
		filterInput: ti,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		TickCmd(tickInterval),
		SyncRequestCmd(0),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(tickInterval)

	case SyncRequestMsg:
		cmd := m.requestSync(msg.Seq)
		return m, cmd

	case UpdatesLoadedMsg:
		cmd := m.applyUpdates(msg)
		return m, cmd

	case UpdatesFailedMsg:
		cmd := m.applyFailure(msg)
		return m, cmd

	case ResetLibraryMsg:
		cmd := m.resetLibrary()
		return m, cmd

	case ComicsDeletedMsg:
		return m.handleComicsDeleted(msg)

	case ComicDetailMsg:
		return m.handleComicDetail(msg)

	case StatusMsg:
		m.setStatus(msg.Message, msg.IsError)
		return m, ClearStatusCmd(statusTimeout)

	case ClearStatusMsg:
		if !m.StatusIsErr {
			m.StatusMsg = ""
		}
		return m, nil

	case ErrMsg:
		m.logger.Error("ui command failed", "error", msg)
		m.setStatus(msg.Error(), true)
		return m, nil
	}

	return m, nil
}

// requestSync starts a fetch unless one is running. Scheduled polls whose
// sequence was superseded are dropped so only one poll chain is alive.
func (m *Model) requestSync(seq int) tea.Cmd {
	if seq != 0 && seq != m.pollSeq {
		return nil
	}

	res, err := m.Session.Dispatch(m.ctx, session.RequestSync{})
	if errors.Is(err, session.ErrFetchInFlight) {
		if seq == 0 {
			m.setStatus("Sync already running", false)
			return ClearStatusCmd(statusTimeout)
		}
		return nil
	}
	if err != nil {
		m.logger.Error("failed to start sync", "error", err)
		m.setStatus(err.Error(), true)
		return nil
	}

	m.pollSeq++
	return FetchUpdatesCmd(m.client, *res.Fetch)
}

// scheduleNext arms the single pending poll
func (m *Model) scheduleNext(delay time.Duration) tea.Cmd {
	m.pollSeq++
	return ScheduleSyncCmd(m.pollSeq, delay)
}

func (m *Model) applyUpdates(msg UpdatesLoadedMsg) tea.Cmd {
	if m.observer != nil {
		m.observer.ObserveFetch(msg.Duration, nil)
	}

	if _, err := m.Session.Dispatch(m.ctx, msg.Input); err != nil {
		if errors.Is(err, session.ErrStaleResponse) {
			return nil
		}
		m.logger.Error("failed to apply update batch", "error", err)
		m.setStatus(err.Error(), true)
		return m.scheduleNext(m.schedule.AfterFailure())
	}

	if m.StatusIsErr {
		m.StatusMsg = ""
		m.StatusIsErr = false
	}
	m.clampCursors()

	received := len(msg.Input.Batch.Comics)
	cmds := []tea.Cmd{m.scheduleNext(m.schedule.AfterBatch(m.Session.State(), received))}
	if m.detail != nil && m.Session.WasJustUpdated(m.detail.ID) {
		m.detailLoading = true
		cmds = append(cmds, LoadComicCmd(m.client, m.detail.ID))
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyFailure(msg UpdatesFailedMsg) tea.Cmd {
	if m.observer != nil {
		m.observer.ObserveFetch(msg.Duration, msg.Input.Err)
	}

	res, err := m.Session.Dispatch(m.ctx, msg.Input)
	if err != nil {
		if errors.Is(err, session.ErrStaleResponse) {
			return nil
		}
		m.logger.Error("failed to apply fetch failure", "error", err)
		m.setStatus(err.Error(), true)
		return m.scheduleNext(m.schedule.AfterFailure())
	}

	if res.Failure != nil {
		m.setStatus(res.Failure.Kind.Message(), true)
	}
	return m.scheduleNext(m.schedule.AfterFailure())
}

func (m *Model) resetLibrary() tea.Cmd {
	// The in-memory library is cleared even when the cache is not
	_, resetErr := m.Session.Dispatch(m.ctx, session.ResetLibrary{})

	m.detail = nil
	m.detailLoading = false
	m.updateLayout()
	m.groupQuery = ""
	m.comicQuery = ""
	m.groupCursor.Reset()
	m.comicCursor.Reset()
	if resetErr != nil {
		m.logger.Error("failed to reset library", "error", resetErr)
		m.setStatus(fmt.Sprintf("Reset failed: %v", resetErr), true)
		return m.requestSync(0)
	}
	m.setStatus("Library reset, syncing from scratch", false)

	return tea.Batch(m.requestSync(0), ClearStatusCmd(statusTimeout))
}

func (m Model) handleComicsDeleted(msg ComicsDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Error("failed to delete comics", "error", msg.Err, "count", len(msg.IDs))
		m.setStatus(fmt.Sprintf("Delete failed: %v", msg.Err), true)
		return m, nil
	}

	m.logger.Info("flagged comics for deletion", "count", len(msg.IDs))
	m.setStatus(fmt.Sprintf("Flagged %d comics for deletion", len(msg.IDs)), false)

	// Selection follows the server: the ids drop out once the update stream
	// reports them deleted
	cmd := m.requestSync(0)
	return m, tea.Batch(cmd, ClearStatusCmd(statusTimeout))
}

func (m Model) handleComicDetail(msg ComicDetailMsg) (tea.Model, tea.Cmd) {
	m.detailLoading = false
	if msg.Err != nil {
		if errors.Is(msg.Err, domain.ErrComicNotFound) {
			m.detail = nil
			m.updateLayout()
			m.setStatus("Comic no longer exists on the server", true)
			return m, nil
		}
		m.logger.Error("failed to load comic", "error", msg.Err)
		m.setStatus(fmt.Sprintf("Failed to load comic: %v", msg.Err), true)
		return m, nil
	}
	if m.detail != nil && msg.Comic != nil && msg.Comic.ID == m.detail.ID {
		m.detail = msg.Comic
	}
	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
}

// visibleGroups returns the groups of the active index after filtering
func (m Model) visibleGroups() []library.Group {
	groups := m.Session.Indexes().Groups(m.attr)
	return search.FilterGroups(groups, m.groupQuery)
}

// currentGroup returns the group under the cursor. The first row lists
// every comic and reports ok=false.
func (m Model) currentGroup() (library.Group, bool) {
	pos := m.groupCursor.Pos()
	if pos == 0 {
		return library.Group{}, false
	}
	groups := m.visibleGroups()
	if pos-1 >= len(groups) {
		return library.Group{}, false
	}
	return groups[pos-1], true
}

// visibleComics returns the comics listed for the current group after filtering
func (m Model) visibleComics() []comicRow {
	coll := m.Session.Collection()

	var ids []int64
	if g, ok := m.currentGroup(); ok {
		ids = g.Members
	} else {
		ids = coll.IDs()
	}

	comics := make([]domain.Comic, 0, len(ids))
	for _, id := range ids {
		if c, ok := coll.Get(id); ok {
			comics = append(comics, c)
		}
	}

	if m.comicQuery == "" {
		rows := make([]comicRow, len(comics))
		for i, c := range comics {
			rows[i] = comicRow{Comic: c}
		}
		return rows
	}

	results := search.NewComicIndex(comics).Filter(m.comicQuery)
	rows := make([]comicRow, 0, len(results))
	for _, r := range results {
		if c, ok := coll.Get(r.ID); ok {
			rows = append(rows, comicRow{Comic: c, Matched: r.MatchedIndexes})
		}
	}
	return rows
}

// currentComic returns the comic under the comic cursor
func (m Model) currentComic() (domain.Comic, bool) {
	rows := m.visibleComics()
	pos := m.comicCursor.Pos()
	if pos >= len(rows) {
		return domain.Comic{}, false
	}
	return rows[pos].Comic, true
}

// clampCursors keeps both cursors inside lists that may have changed
func (m *Model) clampCursors() {
	m.groupCursor.Clamp(len(m.visibleGroups()) + 1)
	m.comicCursor.Clamp(len(m.visibleComics()))
}

// nextIndex cycles the active index by step
func (m *Model) nextIndex(step int) {
	n := len(library.Attributes)
	pos := 0
	for i, a := range library.Attributes {
		if a == m.attr {
			pos = i
			break
		}
	}
	m.attr = library.Attributes[((pos+step)%n+n)%n]
	m.groupQuery = ""
	m.groupCursor.Reset()
	m.comicCursor.Reset()
}
