package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/library"
	"github.com/mmcdole/longbox/internal/session"
	"github.com/mmcdole/longbox/internal/tui/styles"
)

const (
	// GroupColumnPercent is the share of the width given to the group list
	GroupColumnPercent = 35
	// MinColumnWidth keeps narrow terminals usable
	MinColumnWidth = 20
	// DetailHeight is the number of rows used by the open comic panel
	DetailHeight = 9

	allComicsLabel = "All comics"
)

// chromeHeight is the header, the status bar and the filter line
const chromeHeight = 3

// updateLayout sizes the cursors to the current window
func (m *Model) updateLayout() {
	rows := m.listRows()
	m.groupCursor.SetHeight(rows)
	m.comicCursor.SetHeight(m.comicRows())
}

// listRows is the number of list entries visible inside a bordered pane
func (m Model) listRows() int {
	return max(m.Height-chromeHeight-2, 1)
}

func (m Model) comicRows() int {
	rows := m.listRows()
	if m.detail != nil {
		rows -= DetailHeight + 2
	}
	return max(rows, 1)
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderModal(m.renderHelp())
	case StateConfirmReset:
		return m.renderModal(m.renderConfirm(
			"Reset library?",
			"Discards every local comic and selection and syncs from scratch.",
		))
	case StateConfirmDelete:
		return m.renderModal(m.renderConfirm(
			fmt.Sprintf("Delete %d comics?", len(m.pendingDelete)),
			"The server flags the selected comics for deletion.",
		))
	}

	header := m.renderHeader()
	body := m.renderBody()
	filter := m.renderFilterLine()
	status := m.renderStatusBar()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, filter, status)
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("longbox")
	if m.serverURL != "" {
		title += " " + styles.DimStyle.Render(m.serverURL)
	}

	tabs := make([]string, 0, len(library.Attributes))
	for _, attr := range library.Attributes {
		label := attr.String()
		if attr == m.attr {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}

	return styles.Pad(title+"  "+strings.Join(tabs, ""), m.Width)
}

func (m Model) renderBody() string {
	groupWidth := max(m.Width*GroupColumnPercent/100, MinColumnWidth)
	comicWidth := max(m.Width-groupWidth, MinColumnWidth)
	paneHeight := m.listRows()

	groups := m.renderGroupPane(groupWidth-2, paneHeight)
	comics := m.renderComicPane(comicWidth-2, paneHeight)

	return lipgloss.JoinHorizontal(lipgloss.Top, groups, comics)
}

func paneBorder(focused bool) lipgloss.Style {
	if focused {
		return styles.ActiveBorder
	}
	return styles.InactiveBorder
}

func (m Model) renderGroupPane(width, height int) string {
	groups := m.visibleGroups()
	total := len(groups) + 1
	start, end := m.groupCursor.Window(total)

	lines := make([]string, 0, height)
	for i := start; i < end; i++ {
		selected := i == m.groupCursor.Pos()
		if i == 0 {
			count := m.Session.Collection().Len()
			lines = append(lines, renderGroupRow(allComicsLabel, count, selected, width))
			continue
		}
		g := groups[i-1]
		lines = append(lines, renderGroupRow(g.Value, g.Count(), selected, width))
	}

	content := fillLines(lines, height)
	return paneBorder(m.focus == PaneGroups).Width(width).Height(height).Render(content)
}

func renderGroupRow(value string, count int, selected bool, width int) string {
	badge := fmt.Sprintf("%d", count)
	title := styles.Truncate(value, width-lipgloss.Width(badge)-4)

	dim := styles.DimGray
	return styles.RenderListRow([]styles.RowPart{
		{Text: styles.Pad(title, width-lipgloss.Width(badge)-3)},
		{Text: " " + badge, Foreground: &dim},
	}, selected, width)
}

func (m Model) renderComicPane(width, height int) string {
	rows := m.visibleComics()
	listHeight := height
	if m.detail != nil {
		listHeight = m.comicRows()
	}
	start, end := m.comicCursor.Window(len(rows))

	lines := make([]string, 0, listHeight)
	if len(rows) == 0 {
		lines = append(lines, styles.DimStyle.Render(" "+m.emptyListText()))
	}
	for i := start; i < end; i++ {
		selected := m.focus == PaneComics && i == m.comicCursor.Pos()
		lines = append(lines, m.renderComicRow(rows[i], selected, width))
	}

	content := fillLines(lines, listHeight)
	if m.detail != nil {
		content += "\n" + m.renderDetail(width)
	}
	return paneBorder(m.focus == PaneComics).Width(width).Height(height).Render(content)
}

func (m Model) emptyListText() string {
	switch {
	case m.comicQuery != "":
		return "No matches"
	case m.Session.State() == session.StateFetching && m.Session.Collection().Len() == 0:
		return "Syncing library..."
	default:
		return "No comics"
	}
}

// renderComicRow renders one comic with its selection mark and state marker
func (m Model) renderComicRow(row comicRow, selected bool, width int) string {
	c := row.Comic
	amber := styles.Amber
	red := styles.Red
	dim := styles.DimGray

	mark := styles.UnselectedChar
	var markFg *lipgloss.Color
	if m.Session.IsSelected(c.ID) {
		mark = styles.SelectedChar
		markFg = &amber
	}

	state := " "
	var stateFg *lipgloss.Color
	switch {
	case c.IsDeleted():
		state = styles.DeletedChar
		stateFg = &red
	case m.Session.WasJustUpdated(c.ID):
		state = styles.UpdatedChar
		stateFg = &amber
	}

	badge := ""
	switch {
	case c.IsDeleted():
	case c.State != "" && c.State != domain.ComicStateStable:
		badge = " " + strings.ToLower(string(c.State))
	case c.IsDuplicate():
		badge = " dup"
	}

	titleWidth := width - 6 - lipgloss.Width(badge)
	title := styles.Truncate(c.DisplayTitle(), titleWidth)

	parts := []styles.RowPart{
		{Text: mark, Foreground: markFg},
		{Text: " "},
		{Text: state, Foreground: stateFg},
		{Text: " "},
	}
	if c.IsDeleted() {
		parts = append(parts, styles.RowPart{Text: title, Foreground: &dim})
	} else {
		parts = append(parts, highlightMatches(title, row.Matched)...)
	}
	if badge != "" {
		parts = append(parts, styles.RowPart{Text: badge, Foreground: &dim})
	}
	return styles.RenderListRow(parts, selected, width)
}

// highlightMatches splits title into plain and matched runs
func highlightMatches(title string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	amber := styles.Amber
	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = &amber
		}
		parts = append(parts, part)
		run.Reset()
	}
	for i, r := range title {
		if hit[i] != runHit {
			flush()
			runHit = hit[i]
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

// renderDetail renders the open comic below the list
func (m Model) renderDetail(width int) string {
	c := m.detail
	var b strings.Builder

	b.WriteString(strings.Repeat("─", max(width, 0)))
	b.WriteString("\n")
	title := styles.TitleStyle.Render(styles.Truncate(c.DisplayTitle(), width-12))
	if m.detailLoading {
		title += " " + RenderSpinner(m.SpinnerFrame)
	}
	b.WriteString(title)
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf("%-11s", label)))
		b.WriteString(styles.Truncate(value, width-11))
		b.WriteString("\n")
	}
	field("Publisher", c.Publisher)
	field("State", strings.ToLower(string(c.State)))
	field("Characters", strings.Join(c.Characters, ", "))
	field("Teams", strings.Join(c.Teams, ", "))
	field("Stories", strings.Join(c.Stories, ", "))
	updated := ""
	if c.UpdatedAt > 0 {
		updated = time.UnixMilli(c.UpdatedAt).Format("2006-01-02 15:04")
	}
	field("Updated", updated)

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderFilterLine() string {
	if m.State == StateFiltering {
		return m.filterInput.View()
	}
	var parts []string
	if m.groupQuery != "" {
		parts = append(parts, fmt.Sprintf("%s: %q", m.attr.String(), m.groupQuery))
	}
	if m.comicQuery != "" {
		parts = append(parts, fmt.Sprintf("comics: %q", m.comicQuery))
	}
	if len(parts) == 0 {
		return ""
	}
	return styles.FilterPromptStyle.Render("filter ") + styles.DimStyle.Render(strings.Join(parts, "  "))
}

// renderStatusBar renders the sync state, counts and watermark
func (m Model) renderStatusBar() string {
	sess := m.Session
	coll := sess.Collection()

	var state string
	switch sess.State() {
	case session.StateFetching:
		state = RenderSpinner(m.SpinnerFrame) + " " + styles.AccentStyle.Render("syncing")
	case session.StateExhausted:
		state = styles.SuccessStyle.Render("up to date")
	default:
		state = styles.DimStyle.Render("idle")
	}

	counts := fmt.Sprintf("%d comics", coll.Len())
	if deleted := coll.Len() - coll.ActiveCount(); deleted > 0 {
		counts += fmt.Sprintf(" (%d deleted)", deleted)
	}
	counts += " · since " + sess.Watermark().String()

	left := state + "  " + styles.DimStyle.Render(counts)
	if n := sess.SelectionCount(); n > 0 {
		left += " " + styles.BadgeStyle.Render(fmt.Sprintf("%d selected", n))
	}
	if processing, rescan := sess.PendingWork(); processing > 0 || rescan > 0 {
		left += " " + styles.DimBadgeStyle.Render(fmt.Sprintf("server: %d processing, %d rescanning", processing, rescan))
	}

	var right string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		right = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		right = styles.SuccessStyle.Render(m.StatusMsg)
	default:
		right = styles.HelpKeyStyle.Render("?") + " " + styles.HelpDescStyle.Render("help")
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.Truncate(left, m.Width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHelp() string {
	bindings := []key.Binding{
		Keys.Sync, Keys.Reset,
		Keys.Toggle, Keys.SelectAll, Keys.Clear, Keys.Delete,
		Keys.NextIndex, Keys.PrevIndex, Keys.Left, Keys.Right, Keys.Enter,
		Keys.Filter, Keys.Escape, Keys.Quit,
	}

	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render("Keys"))
	b.WriteString("\n")
	for _, kb := range bindings {
		h := kb.Help()
		b.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("%-8s", h.Key)))
		b.WriteString(styles.HelpDescStyle.Render(h.Desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("press any key to close"))
	return b.String()
}

func (m Model) renderConfirm(title, body string) string {
	var b strings.Builder
	b.WriteString(styles.ModalTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.SubtitleStyle.Render(body))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpKeyStyle.Render("y") + " " + styles.HelpDescStyle.Render("confirm") + "   ")
	b.WriteString(styles.HelpKeyStyle.Render("n") + " " + styles.HelpDescStyle.Render("cancel"))
	return b.String()
}

func (m Model) renderModal(content string) string {
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(content))
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}

// fillLines joins lines and pads the result to height rows
func fillLines(lines []string, height int) string {
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
