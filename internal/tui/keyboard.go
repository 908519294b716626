package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/longbox/internal/session"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateFiltering:
		return m.handleFilterKeys(msg)
	case StateConfirmReset:
		return m.handleConfirmReset(msg)
	case StateConfirmDelete:
		return m.handleConfirmDelete(msg)
	case StateHelp:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		m.State = StateBrowsing
		return m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Sync):
		cmd := m.requestSync(0)
		return m, cmd

	case key.Matches(msg, Keys.Reset):
		m.State = StateConfirmReset
		return m, nil

	case key.Matches(msg, Keys.NextIndex):
		m.nextIndex(1)
		return m, nil

	case key.Matches(msg, Keys.PrevIndex):
		m.nextIndex(-1)
		return m, nil

	case key.Matches(msg, Keys.Left):
		m.focus = PaneGroups
		return m, nil

	case key.Matches(msg, Keys.Right):
		m.focus = PaneComics
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.State = StateFiltering
		m.filterPane = m.focus
		m.filterInput.SetValue(m.activeQuery())
		m.filterInput.CursorEnd()
		m.filterInput.Focus()
		return m, nil

	case key.Matches(msg, Keys.Escape):
		switch {
		case m.detail != nil:
			m.detail = nil
			m.detailLoading = false
			m.updateLayout()
		case m.activeQuery() != "":
			m.setQuery(m.focus, "")
		case m.focus == PaneComics:
			m.focus = PaneGroups
		}
		return m, nil

	case key.Matches(msg, Keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, Keys.Toggle):
		return m.handleToggle()

	case key.Matches(msg, Keys.SelectAll):
		rows := m.visibleComics()
		ids := make([]int64, len(rows))
		for i, r := range rows {
			ids[i] = r.Comic.ID
		}
		m.dispatch(session.SelectComics{IDs: ids})
		return m, nil

	case key.Matches(msg, Keys.Clear):
		m.dispatch(session.ClearSelection{})
		return m, nil

	case key.Matches(msg, Keys.Delete):
		ids := m.Session.SelectedIDs()
		if len(ids) == 0 {
			m.setStatus("Nothing selected", false)
			return m, ClearStatusCmd(statusTimeout)
		}
		m.pendingDelete = ids
		m.State = StateConfirmDelete
		return m, nil
	}

	// Remaining keys move the focused cursor
	if m.focus == PaneGroups {
		before := m.groupCursor.Pos()
		if m.groupCursor.HandleKey(msg, len(m.visibleGroups())+1) && m.groupCursor.Pos() != before {
			m.comicCursor.Reset()
		}
		return m, nil
	}
	m.comicCursor.HandleKey(msg, len(m.visibleComics()))
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.focus == PaneGroups {
		m.focus = PaneComics
		return m, nil
	}

	comic, ok := m.currentComic()
	if !ok {
		return m, nil
	}
	m.detail = &comic
	m.detailLoading = true
	m.updateLayout()
	return m, LoadComicCmd(m.client, comic.ID)
}

// handleToggle flips the selection of the comic under the cursor, or of
// every member of the group under the cursor.
func (m Model) handleToggle() (tea.Model, tea.Cmd) {
	var ids []int64
	if m.focus == PaneComics {
		comic, ok := m.currentComic()
		if !ok {
			return m, nil
		}
		if comic.IsDeleted() {
			return m, nil
		}
		ids = []int64{comic.ID}
	} else {
		// Deleted comics can never be selected, so they do not count
		for _, r := range m.visibleComics() {
			if !r.Comic.IsDeleted() {
				ids = append(ids, r.Comic.ID)
			}
		}
	}
	if len(ids) == 0 {
		return m, nil
	}

	allSelected := true
	for _, id := range ids {
		if !m.Session.IsSelected(id) {
			allSelected = false
			break
		}
	}
	if allSelected {
		m.dispatch(session.DeselectComics{IDs: ids})
	} else {
		m.dispatch(session.SelectComics{IDs: ids})
	}
	return m, nil
}

func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.setQuery(m.filterPane, "")
		m.State = StateBrowsing
		return m, nil
	case tea.KeyEnter:
		m.filterInput.Blur()
		m.State = StateBrowsing
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if q := m.filterInput.Value(); q != m.queryFor(m.filterPane) {
		m.setQuery(m.filterPane, q)
	}
	return m, cmd
}

func (m Model) handleConfirmReset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		m.State = StateBrowsing
		return m, func() tea.Msg { return ResetLibraryMsg{} }
	case key.Matches(msg, Keys.Cancel):
		m.State = StateBrowsing
	}
	return m, nil
}

func (m Model) handleConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		ids := m.pendingDelete
		m.pendingDelete = nil
		m.State = StateBrowsing
		m.setStatus(fmt.Sprintf("Deleting %d comics...", len(ids)), false)
		return m, DeleteComicsCmd(m.client, ids)
	case key.Matches(msg, Keys.Cancel):
		m.pendingDelete = nil
		m.State = StateBrowsing
	}
	return m, nil
}

// dispatch applies a selection input and reports failures on the status line
func (m *Model) dispatch(in session.Input) {
	if _, err := m.Session.Dispatch(m.ctx, in); err != nil {
		m.logger.Error("failed to update selection", "error", err)
		m.setStatus(err.Error(), true)
	}
}

func (m Model) activeQuery() string {
	return m.queryFor(m.focus)
}

func (m Model) queryFor(p Pane) string {
	if p == PaneGroups {
		return m.groupQuery
	}
	return m.comicQuery
}

// setQuery changes a pane's filter and moves its cursor back to the top
func (m *Model) setQuery(p Pane, q string) {
	if p == PaneGroups {
		m.groupQuery = q
		m.groupCursor.Reset()
	} else {
		m.comicQuery = q
	}
	m.comicCursor.Reset()
}
