package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"threadhub/internal/api"
	"threadhub/internal/comments"
	"threadhub/internal/session"
	"threadhub/internal/tui/components"
	"threadhub/internal/tui/styles"
	"threadhub/pkg/models"
	"threadhub/pkg/utils"
)

const requestTimeout = 15 * time.Second

// EventSource opens the live event stream of an article
type EventSource interface {
	Subscribe(ctx context.Context, articleID int64, token string) (*api.EventStream, error)
}

// ThreadKeyMap holds the bindings of the thread view
type ThreadKeyMap struct {
	Up             key.Binding
	Down           key.Binding
	Top            key.Binding
	Bottom         key.Binding
	Comment        key.Binding
	Reply          key.Binding
	Delete         key.Binding
	Like           key.Binding
	Dislike        key.Binding
	ArticleLike    key.Binding
	ArticleDislike key.Binding
	Reload         key.Binding
	Submit         key.Binding
	Cancel         key.Binding
	Confirm        key.Binding
}

// DefaultThreadKeyMap returns the default thread bindings
func DefaultThreadKeyMap() ThreadKeyMap {
	return ThreadKeyMap{
		Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:            key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:         key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Comment:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "comment")),
		Reply:          key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reply")),
		Delete:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Like:           key.NewBinding(key.WithKeys("l", "+"), key.WithHelp("l", "like")),
		Dislike:        key.NewBinding(key.WithKeys("x", "-"), key.WithHelp("x", "dislike")),
		ArticleLike:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "like article")),
		ArticleDislike: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "dislike article")),
		Reload:         key.NewBinding(key.WithKeys("ctrl+r", "R"), key.WithHelp("ctrl+r", "reload")),
		Submit:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Cancel:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Confirm:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	}
}

type threadMode int

const (
	modeBrowse threadMode = iota
	modeCompose
	modeConfirmDelete
)

// row is one visible comment with its indentation level
type row struct {
	comment *models.Comment
	depth   int
}

// ThreadModel shows one article's discussion and drives the session
// controller from key presses
type ThreadModel struct {
	ctrl   *session.Controller
	events EventSource
	token  func() string
	keys   ThreadKeyMap

	rows     []row
	cursor   int
	offset   int
	selected models.CommentID

	mode    threadMode
	replyTo *models.CommentID
	compose components.Input

	spinner components.Spinner
	busy    int
	loading bool
	stale   bool
	loadErr components.ErrorView

	notice      string
	noticeIsErr bool
	// rowErrors holds the last failure of an operation on a comment,
	// rendered under that comment
	rowErrors map[models.CommentID]string

	stream  *api.EventStream
	live    bool
	liveGen int64

	relativeTimes bool
	now           func() time.Time

	width  int
	height int
}

// NewThreadModel creates the thread view. events may be nil to disable live
// updates; token returns the bearer token used to subscribe.
func NewThreadModel(ctrl *session.Controller, events EventSource, token func() string, relativeTimes bool) ThreadModel {
	if token == nil {
		token = func() string { return "" }
	}
	compose := components.NewInput("New comment", "Write something…", ctrl.Policy().MaxContentLength)
	return ThreadModel{
		ctrl:          ctrl,
		events:        events,
		token:         token,
		keys:          DefaultThreadKeyMap(),
		compose:       compose,
		rowErrors:     make(map[models.CommentID]string),
		spinner:       components.NewSpinner("Working…"),
		loading:       true,
		relativeTimes: relativeTimes,
		now:           time.Now,
	}
}

// Capturing reports whether key presses go to a text field
func (m ThreadModel) Capturing() bool {
	return m.mode == modeCompose
}

// Close ends the live subscription. Messages from it that are still in
// flight are ignored.
func (m *ThreadModel) Close() {
	m.liveGen++
	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}
	m.live = false
}

// Init loads the thread and starts the live subscription
func (m ThreadModel) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.subscribe())
}

// Reload fetches the thread again
func (m *ThreadModel) Reload() tea.Cmd {
	m.loading = true
	m.stale = false
	ctrl := m.ctrl
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return threadLoadedMsg{err: ctrl.Load(ctx)}
	})
}

// Update handles messages
func (m ThreadModel) Update(msg tea.Msg) (ThreadModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.compose.SetWidth(msg.Width - 8)

	case tea.KeyMsg:
		switch m.mode {
		case modeCompose:
			m, cmd = m.updateCompose(msg)
		case modeConfirmDelete:
			m, cmd = m.updateConfirm(msg)
		default:
			m, cmd = m.updateBrowse(msg)
		}

	case spinner.TickMsg:
		if m.loading || m.busy > 0 {
			cmd = m.spinner.Update(msg)
		}

	case threadLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = components.NewErrorView(msg.err, "Could not load the discussion")
		} else {
			m.loadErr.Clear()
			clear(m.rowErrors)
		}

	case commentPostedMsg:
		m.busy--
		if msg.err != nil {
			m.setError(msg.parent, "Comment not posted", msg.err)
		} else {
			m.clearRowError(msg.parent)
			if msg.comment != nil {
				m.selected = msg.comment.ID
			}
			m.setNotice("✓ Comment posted")
		}
		cmd = m.afterOperation()

	case commentDeletedMsg:
		m.busy--
		if msg.err != nil {
			m.setError(&msg.id, "Delete failed", msg.err)
		} else {
			m.setNotice(fmt.Sprintf("✓ Deleted %d comment(s)", len(msg.removed)))
		}
		cmd = m.afterOperation()

	case reactionDoneMsg:
		m.busy--
		switch {
		case msg.err == nil:
			m.clearRowError(msg.id)
		case !errors.Is(msg.err, models.ErrInFlight):
			m.setError(msg.id, "Reaction not saved", msg.err)
		}
		cmd = m.afterOperation()

	case liveConnectedMsg:
		if msg.gen != m.liveGen {
			msg.stream.Close()
			break
		}
		m.stream = msg.stream
		m.live = true
		cmd = listen(msg.stream, msg.gen)

	case liveEventMsg:
		if msg.gen != m.liveGen {
			break
		}
		if m.busy > 0 || m.loading {
			m.stale = true
			cmd = listen(m.stream, m.liveGen)
		} else {
			cmd = tea.Batch(m.Reload(), listen(m.stream, m.liveGen))
		}

	case liveClosedMsg:
		if msg.gen != m.liveGen {
			break
		}
		m.live = false
		m.stream = nil
		if msg.err != nil {
			m.setError(nil, "Live updates stopped", msg.err)
		}
	}

	m.refreshRows()
	return m, cmd
}

func (m ThreadModel) updateBrowse(msg tea.KeyMsg) (ThreadModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-len(m.rows))
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.rows))

	case key.Matches(msg, m.keys.Reload):
		if m.busy > 0 {
			m.stale = true
			m.setNotice("Reloading once pending changes settle")
			return m, nil
		}
		return m, m.Reload()

	case key.Matches(msg, m.keys.Comment):
		if _, ok := m.ctrl.Viewer(); !ok {
			m.setError(nil, "Sign in to comment", models.ErrUnauthenticated)
			return m, nil
		}
		return m, m.startCompose(nil)

	case key.Matches(msg, m.keys.Reply):
		current, ok := m.current()
		if !ok {
			return m, nil
		}
		if !m.ctrl.CanReply(current.ID) {
			m.setNotice(m.replyBlockedReason(current))
			return m, nil
		}
		id := current.ID
		return m, m.startCompose(&id)

	case key.Matches(msg, m.keys.Delete):
		current, ok := m.current()
		if !ok || !m.ownedByViewer(current) {
			return m, nil
		}
		m.mode = modeConfirmDelete

	case key.Matches(msg, m.keys.Like):
		return m.reactToCurrent(models.ReactionLike)
	case key.Matches(msg, m.keys.Dislike):
		return m.reactToCurrent(models.ReactionDislike)
	case key.Matches(msg, m.keys.ArticleLike):
		return m.reactToArticle(models.ReactionLike)
	case key.Matches(msg, m.keys.ArticleDislike):
		return m.reactToArticle(models.ReactionDislike)
	}
	return m, nil
}

func (m ThreadModel) updateCompose(msg tea.KeyMsg) (ThreadModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.compose.Blur()
		m.compose.Reset()
		m.replyTo = nil
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		content, err := m.ctrl.ValidateContent(m.compose.Value())
		if err != nil {
			m.compose.SetError(models.Classify(err).UserMessage())
			return m, nil
		}
		m.mode = modeBrowse
		m.compose.Blur()
		m.compose.Reset()
		parent := m.replyTo
		m.replyTo = nil
		return m, m.begin(postComment(m.ctrl, parent, content))
	}

	return m, m.compose.Update(msg)
}

func (m ThreadModel) updateConfirm(msg tea.KeyMsg) (ThreadModel, tea.Cmd) {
	m.mode = modeBrowse
	if !key.Matches(msg, m.keys.Confirm) {
		return m, nil
	}
	current, ok := m.current()
	if !ok {
		return m, nil
	}
	return m, m.begin(deleteComment(m.ctrl, current.ID))
}

func (m *ThreadModel) startCompose(parent *models.CommentID) tea.Cmd {
	m.mode = modeCompose
	m.replyTo = parent
	m.notice = ""
	if parent == nil {
		m.compose.SetLabel("New comment")
	} else if c, ok := m.ctrl.Comment(*parent); ok {
		m.compose.SetLabel("Reply to " + c.Creator.DisplayName)
	}
	return m.compose.Focus()
}

func (m ThreadModel) reactToCurrent(desired models.Reaction) (ThreadModel, tea.Cmd) {
	current, ok := m.current()
	if !ok {
		return m, nil
	}
	if current.ID.IsPending() {
		m.setNotice("Wait until the comment is posted")
		return m, nil
	}
	if _, ok := m.ctrl.Viewer(); !ok {
		m.setError(nil, "Sign in to react", models.ErrUnauthenticated)
		return m, nil
	}
	ctrl, id := m.ctrl, current.ID
	return m, m.begin(func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := ctrl.ReactToComment(ctx, id, desired)
		return reactionDoneMsg{id: &id, err: err}
	})
}

func (m ThreadModel) reactToArticle(desired models.Reaction) (ThreadModel, tea.Cmd) {
	if _, ok := m.ctrl.Viewer(); !ok {
		m.setError(nil, "Sign in to react", models.ErrUnauthenticated)
		return m, nil
	}
	ctrl := m.ctrl
	return m, m.begin(func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := ctrl.ReactToArticle(ctx, desired)
		return reactionDoneMsg{err: err}
	})
}

// begin counts an operation in flight and keeps the spinner running so
// optimistic changes are redrawn while it waits
func (m *ThreadModel) begin(op tea.Cmd) tea.Cmd {
	m.busy++
	if m.busy == 1 && !m.loading {
		return tea.Batch(op, m.spinner.Tick)
	}
	return op
}

// afterOperation reloads once every operation has settled if live events
// arrived in the meantime
func (m *ThreadModel) afterOperation() tea.Cmd {
	if m.busy < 0 {
		m.busy = 0
	}
	if m.busy == 0 && m.stale && !m.loading {
		return m.Reload()
	}
	return nil
}

func (m ThreadModel) replyBlockedReason(c *models.Comment) string {
	if _, ok := m.ctrl.Viewer(); !ok {
		return "Sign in to reply"
	}
	if c.ID.IsPending() {
		return "Wait until the comment is posted"
	}
	return fmt.Sprintf("Replies stop at depth %d", m.ctrl.Policy().MaxDepth)
}

func (m ThreadModel) ownedByViewer(c *models.Comment) bool {
	viewer, ok := m.ctrl.Viewer()
	return ok && !c.ID.IsPending() && c.Creator.ID == viewer.UserID
}

func (m *ThreadModel) setNotice(s string) {
	m.notice = s
	m.noticeIsErr = false
}

// setError reports a failure. Failures of an operation on a comment are
// shown under that comment; the rest go to the notice line.
func (m *ThreadModel) setError(id *models.CommentID, prefix string, err error) {
	text := prefix + ": " + models.Classify(err).UserMessage()
	if id == nil {
		m.notice = text
		m.noticeIsErr = true
		return
	}
	m.rowErrors[*id] = text
}

func (m *ThreadModel) clearRowError(id *models.CommentID) {
	if id != nil {
		delete(m.rowErrors, *id)
	}
}

// refreshRows rebuilds the visible rows from the controller, keeping the
// cursor on the selected comment when it still exists
func (m *ThreadModel) refreshRows() {
	rows := make([]row, 0, len(m.rows))
	comments.Walk(m.ctrl.Tree(), func(c *models.Comment, depth int) bool {
		rows = append(rows, row{comment: c, depth: depth})
		return true
	})
	m.rows = rows

	if len(m.rowErrors) > 0 {
		present := make(map[models.CommentID]bool, len(rows))
		for _, r := range rows {
			present[r.comment.ID] = true
		}
		for id := range m.rowErrors {
			if !present[id] {
				delete(m.rowErrors, id)
			}
		}
	}

	for i, r := range m.rows {
		if r.comment.ID == m.selected {
			m.cursor = i
			return
		}
	}
	m.moveCursor(0)
}

func (m *ThreadModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if len(m.rows) > 0 {
		m.selected = m.rows[m.cursor].comment.ID
	}
}

func (m ThreadModel) current() (*models.Comment, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil, false
	}
	return m.rows[m.cursor].comment, true
}

// View renders the thread
func (m ThreadModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(styles.RenderDivider(m.contentWidth()))
	b.WriteString("\n\n")

	switch {
	case m.loadErr.HasError():
		b.WriteString(m.loadErr.View())
	case m.loading && len(m.rows) == 0:
		b.WriteString(m.spinner.View())
	case len(m.rows) == 0:
		b.WriteString(styles.HelpStyle.Render("No comments yet. Press c to start the discussion."))
	default:
		b.WriteString(m.renderRows())
	}
	b.WriteString("\n\n")

	switch m.mode {
	case modeCompose:
		b.WriteString(m.compose.View())
		b.WriteString("\n")
	case modeConfirmDelete:
		if c, ok := m.current(); ok {
			prompt := "Delete this comment? y/n"
			if n := len(comments.Flatten(c.Replies)); n > 0 {
				prompt = fmt.Sprintf("Delete this comment and its %d replies? y/n", n)
			}
			b.WriteString(styles.DialogStyle.Render(styles.WarningStyle.Render(prompt)))
			b.WriteString("\n")
		}
	}

	if m.notice != "" {
		style := styles.SuccessStyle
		if m.noticeIsErr {
			style = styles.ErrorStyle
		}
		b.WriteString(style.Render(m.notice))
		b.WriteString("\n")
	}
	if m.busy > 0 || (m.loading && len(m.rows) > 0) {
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

func (m ThreadModel) renderHeader() string {
	state := m.ctrl.ArticleReaction()
	title := styles.TitleStyle.Render(fmt.Sprintf("💬 Article #%d", m.ctrl.ArticleID()))
	count := styles.SubtitleStyle.Render(fmt.Sprintf("%d comments", m.ctrl.Count()))
	live := styles.MetaStyle.Render("○ offline")
	if m.live {
		live = styles.SuccessStyle.Render("● live")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", count, "  ", renderReactions(state), "  ", live)
}

// renderRows renders the rows that fit on screen, scrolled so the cursor
// stays visible
func (m *ThreadModel) renderRows() string {
	blocks := make([]string, len(m.rows))
	for i, r := range m.rows {
		blocks[i] = m.renderComment(r, i == m.cursor)
	}

	avail := m.height - 12
	if avail < 5 {
		return strings.Join(blocks, "\n")
	}

	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	for m.offset < m.cursor && blockHeight(blocks[m.offset:m.cursor+1]) > avail {
		m.offset++
	}

	var visible []string
	used := 0
	for i := m.offset; i < len(blocks); i++ {
		h := lipgloss.Height(blocks[i]) + 1
		if used+h > avail && len(visible) > 0 {
			break
		}
		visible = append(visible, blocks[i])
		used += h
	}

	out := strings.Join(visible, "\n")
	if m.offset > 0 {
		out = styles.HelpStyle.Render(fmt.Sprintf("↑ %d more", m.offset)) + "\n" + out
	}
	if rest := len(blocks) - m.offset - len(visible); rest > 0 {
		out += "\n" + styles.HelpStyle.Render(fmt.Sprintf("↓ %d more", rest))
	}
	return out
}

func blockHeight(blocks []string) int {
	h := 0
	for _, b := range blocks {
		h += lipgloss.Height(b) + 1
	}
	return h
}

func (m ThreadModel) renderComment(r row, selected bool) string {
	c := r.comment
	indent := strings.Repeat("  ", r.depth)

	when := utils.FormatTimestamp(c.CreatedAt)
	if m.relativeTimes {
		when = utils.TimeAgoFrom(c.CreatedAt, m.now())
	}
	meta := styles.MetaStyle.Render(" · " + when)
	if c.ID.IsPending() {
		meta = styles.PendingStyle.Render(" · sending…")
	}

	header := styles.AuthorStyle.Render(c.Creator.DisplayName) + meta + "  " + renderReactions(c.Reactions())

	width := m.contentWidth() - len(indent) - 4
	body := lipgloss.NewStyle().Width(max(width, 20)).Render(c.Content)

	style := styles.CommentStyle
	if selected {
		style = styles.CommentSelectedStyle
	}
	block := style.Render(header + "\n" + body)

	if msg, ok := m.rowErrors[c.ID]; ok {
		block += "\n" + styles.ErrorStyle.Render("  ! "+msg)
	}

	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}

func renderReactions(state models.ReactionState) string {
	like := styles.LikeStyle
	dislike := styles.DislikeStyle
	switch state.UserReaction {
	case models.ReactionLike:
		like = styles.LikeActiveStyle
	case models.ReactionDislike:
		dislike = styles.DislikeActiveStyle
	}
	return like.Render(fmt.Sprintf("▲ %d", state.LikeCount)) + " " + dislike.Render(fmt.Sprintf("▼ %d", state.DislikeCount))
}

func (m ThreadModel) renderHelp() string {
	switch m.mode {
	case modeCompose:
		return styles.RenderKeyHint("enter", "send", "esc", "cancel")
	case modeConfirmDelete:
		return styles.RenderKeyHint("y", "delete", "any key", "keep")
	}

	pairs := []string{"↑/↓", "move", "c", "comment"}
	if current, ok := m.current(); ok {
		if m.ctrl.CanReply(current.ID) {
			pairs = append(pairs, "r", "reply")
		}
		pairs = append(pairs, "l/x", "like/dislike")
		if m.ownedByViewer(current) {
			pairs = append(pairs, "d", "delete")
		}
	}
	pairs = append(pairs, "L/X", "article", "ctrl+r", "reload")
	return styles.RenderKeyHint(pairs...)
}

func (m ThreadModel) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width - 4
}

// Commands

func postComment(ctrl *session.Controller, parent *models.CommentID, content string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			c   *models.Comment
			err error
		)
		if parent == nil {
			c, err = ctrl.AddComment(ctx, content)
		} else {
			c, err = ctrl.Reply(ctx, *parent, content)
		}
		return commentPostedMsg{parent: parent, comment: c, err: err}
	}
}

func deleteComment(ctrl *session.Controller, id models.CommentID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		removed, err := ctrl.Delete(ctx, id)
		return commentDeletedMsg{id: id, removed: removed, err: err}
	}
}

func (m ThreadModel) subscribe() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events, articleID, token, gen := m.events, m.ctrl.ArticleID(), m.token(), m.liveGen
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		stream, err := events.Subscribe(ctx, articleID, token)
		if err != nil {
			return liveClosedMsg{gen: gen, err: err}
		}
		return liveConnectedMsg{gen: gen, stream: stream}
	}
}

func listen(stream *api.EventStream, gen int64) tea.Cmd {
	if stream == nil {
		return nil
	}
	return func() tea.Msg {
		event, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return liveClosedMsg{gen: gen}
			}
			return liveClosedMsg{gen: gen, err: err}
		}
		return liveEventMsg{gen: gen, event: event}
	}
}

// Messages

type threadLoadedMsg struct{ err error }

type commentPostedMsg struct {
	parent  *models.CommentID
	comment *models.Comment
	err     error
}

type commentDeletedMsg struct {
	id      models.CommentID
	removed []models.CommentID
	err     error
}

// reactionDoneMsg reports a toggle; id is nil for the article itself
type reactionDoneMsg struct {
	id  *models.CommentID
	err error
}

type liveConnectedMsg struct {
	gen    int64
	stream *api.EventStream
}

type liveEventMsg struct {
	gen   int64
	event models.CommentEvent
}

type liveClosedMsg struct {
	gen int64
	err error
}
