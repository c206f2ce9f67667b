package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/creatorsconnections/liveboard/internal/config"
	"github.com/creatorsconnections/liveboard/internal/discord"
	"github.com/creatorsconnections/liveboard/internal/livestream"
	"github.com/creatorsconnections/liveboard/internal/render"
	"github.com/creatorsconnections/liveboard/internal/repository"
	"github.com/creatorsconnections/liveboard/internal/telemetry"
	"github.com/creatorsconnections/liveboard/internal/webhook"
)

const (
	roleTopGifter  = "Top Gifter"
	roleSoreFinger = "Sore Finger"

	boardFilename = "creators_board.png"
)

var (
	ErrNoSourceHandle  = errors.New("no live-stream host configured")
	ErrNoReportChannel = errors.New("no report channel configured")
)

// communityState exists while tracking is active for a community. The session
// and accumulators are nil until the source's connect event opens a broadcast.
type communityState struct {
	stream   livestream.Stream
	host     string
	session  *repository.LiveSession
	gifts    *counter
	likes    *counter
	comments *counter
}

// Manager is the live aggregator: it owns per-community tracking state, feeds
// the in-memory tallies from source events, and flushes them to the ledger at
// session end. Events for one community are handled serially by that
// community's consume goroutine; the mutex only guards the state map against
// snapshot reads from the roll-up engine.
type Manager struct {
	cfg      *config.Config
	repo     repository.Repository
	discord  discord.Client
	source   livestream.Source
	renderer render.Renderer
	webhook  webhook.Sender
	ladder   *Ladder

	now func() time.Time

	mu     sync.Mutex
	states map[string]*communityState
}

func NewManager(cfg *config.Config, repo repository.Repository, dc discord.Client, source livestream.Source, renderer render.Renderer, wh webhook.Sender, ladder *Ladder) *Manager {
	m := &Manager{
		cfg:      cfg,
		repo:     repo,
		discord:  dc,
		source:   source,
		renderer: renderer,
		webhook:  wh,
		ladder:   ladder,
		now:      time.Now,
		states:   make(map[string]*communityState),
	}
	ladder.SetNotify(m.announceRankUp)
	return m
}

// StartTracking opens an event stream for the community's configured host.
// Missing configuration aborts before any state is touched.
func (m *Manager) StartTracking(ctx context.Context, communityID string) error {
	cfg, err := m.repo.GetCommunityConfig(ctx, communityID)
	if err != nil {
		return err
	}
	if cfg == nil || cfg.SourceHandle == "" {
		return ErrNoSourceHandle
	}
	if cfg.ReportChannelID == "" {
		return ErrNoReportChannel
	}

	m.StopTracking(communityID)

	stream, err := m.source.Open(ctx, cfg.SourceHandle)
	if err != nil {
		return err
	}

	state := &communityState{stream: stream, host: cfg.SourceHandle}
	m.mu.Lock()
	m.states[communityID] = state
	m.mu.Unlock()
	slog.Info("tracking started", "community_id", communityID, "host", cfg.SourceHandle)

	go m.consume(communityID, state)
	return nil
}

// StopTracking tears down the community's stream. In-flight event handling
// completes, but no new events are dispatched. No flush happens here.
func (m *Manager) StopTracking(communityID string) {
	m.mu.Lock()
	state, ok := m.states[communityID]
	if ok {
		delete(m.states, communityID)
	}
	openCount := m.openSessionCount()
	m.mu.Unlock()
	if !ok {
		return
	}
	telemetry.SetOpenSessions(openCount)
	if err := state.stream.Close(); err != nil {
		slog.Warn("failed to close stream", "error", err, "community_id", communityID)
	}
	slog.Info("tracking stopped", "community_id", communityID)
}

func (m *Manager) IsTracking(communityID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[communityID]
	return ok
}

func (m *Manager) consume(communityID string, state *communityState) {
	for ev := range state.stream.Events() {
		m.HandleEvent(context.Background(), communityID, ev)
	}
	m.handleStreamClosed(communityID, state)
}

// handleStreamClosed cleans up when the stream ends without a proper end
// event (unclean disconnect). Any unflushed accumulator is lost; the next
// session-start overwrites it.
func (m *Manager) handleStreamClosed(communityID string, state *communityState) {
	m.mu.Lock()
	current, ok := m.states[communityID]
	if !ok || current != state {
		m.mu.Unlock()
		return
	}
	delete(m.states, communityID)
	hadOpenSession := state.session != nil
	openCount := m.openSessionCount()
	m.mu.Unlock()
	telemetry.SetOpenSessions(openCount)
	if hadOpenSession {
		slog.Warn("stream closed with an open session; unflushed tallies lost",
			"community_id", communityID, "session_id", state.session.ID)
	}
	slog.Info("stream closed", "community_id", communityID)
}

// HandleEvent dispatches one source event for a community.
func (m *Manager) HandleEvent(ctx context.Context, communityID string, ev livestream.Event) {
	telemetry.CountEvent(ev.Kind.String())
	switch ev.Kind {
	case livestream.EventConnect:
		m.onSessionStart(ctx, communityID)
	case livestream.EventGift:
		m.onGift(ctx, communityID, ev)
	case livestream.EventLike:
		m.onLike(communityID, ev)
	case livestream.EventComment:
		m.onComment(communityID, ev)
	case livestream.EventEnd:
		m.onSessionEnd(ctx, communityID)
	}
}

func (m *Manager) onSessionStart(ctx context.Context, communityID string) {
	m.mu.Lock()
	state, ok := m.states[communityID]
	if !ok {
		m.mu.Unlock()
		slog.Warn("connect event without tracking state", "community_id", communityID)
		return
	}
	if state.session != nil {
		// The prior session's end event never arrived. Its accumulator is
		// discarded without flush; see the ledger orphan close below.
		slog.Warn("discarding unflushed accumulator for replaced session",
			"community_id", communityID, "session_id", state.session.ID)
	}
	state.session = nil
	state.gifts = nil
	state.likes = nil
	state.comments = nil
	host := state.host
	m.mu.Unlock()

	if n, err := m.repo.CloseOpenSessions(ctx, communityID, m.now()); err != nil {
		slog.Error("failed to close stale open sessions", "error", err, "community_id", communityID)
	} else if n > 0 {
		slog.Warn("closed stale open sessions without tallies", "community_id", communityID, "count", n)
	}

	created, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		CommunityID: communityID,
		HostHandle:  host,
		StartedAt:   m.now(),
	})
	if err != nil {
		slog.Error("failed to create session", "error", err, "community_id", communityID)
		return
	}

	m.mu.Lock()
	if current, ok := m.states[communityID]; ok {
		current.session = created
		current.gifts = newCounter()
		current.likes = newCounter()
		current.comments = newCounter()
	}
	openCount := m.openSessionCount()
	m.mu.Unlock()
	telemetry.CountSessionStarted()
	telemetry.SetOpenSessions(openCount)
	slog.Info("session opened", "session_id", created.ID, "community_id", communityID, "host", host)

	if cfg, err := m.repo.GetCommunityConfig(ctx, communityID); err == nil && cfg != nil && cfg.ReportChannelID != "" {
		if err := m.discord.SendChannelMessage(cfg.ReportChannelID, trackingStartedMessage(host)); err != nil {
			slog.Warn("failed to announce session start", "error", err, "community_id", communityID)
		}
	}
}

func (m *Manager) onGift(ctx context.Context, communityID string, ev livestream.Event) {
	repeat := ev.Repeat
	if repeat <= 0 {
		repeat = 1
	}

	m.mu.Lock()
	state, ok := m.states[communityID]
	if !ok || state.session == nil {
		m.mu.Unlock()
		return
	}
	state.gifts.Add(ev.Performer, repeat)
	m.mu.Unlock()

	xpPerUnit := int64(m.cfg.DefaultXPPerGift)
	if ev.Diamonds > 0 {
		xpPerUnit = ev.Diamonds
	}
	gain := repeat * xpPerUnit

	memberID, err := m.repo.GetLinkedMember(ctx, communityID, ev.Performer)
	if err != nil {
		slog.Error("failed to resolve link for gift", "error", err, "community_id", communityID, "performer", ev.Performer)
		return
	}
	if memberID == "" {
		// Experience is never attributed to an unresolved handle.
		return
	}
	if err := m.ladder.Award(ctx, communityID, memberID, gain); err != nil {
		slog.Error("failed to award experience", "error", err, "community_id", communityID, "member_id", memberID)
	}
}

func (m *Manager) onLike(communityID string, ev livestream.Event) {
	likes := ev.Likes
	if likes <= 0 {
		likes = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[communityID]
	if !ok || state.session == nil {
		return
	}
	state.likes.Add(ev.Performer, likes)
}

func (m *Manager) onComment(communityID string, ev livestream.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[communityID]
	if !ok || state.session == nil {
		return
	}
	state.comments.Add(ev.Performer, 1)
}

func (m *Manager) onSessionEnd(ctx context.Context, communityID string) {
	m.mu.Lock()
	state, ok := m.states[communityID]
	if !ok || state.session == nil {
		m.mu.Unlock()
		slog.Warn("end event without an open session", "community_id", communityID)
		return
	}
	session := state.session
	gifts := state.gifts.Snapshot()
	likes := state.likes.Snapshot()
	comments := state.comments.Snapshot()
	// Clear unconditionally: the snapshots above carry everything the flush
	// needs, and no downstream failure may leave stale counts behind.
	state.session = nil
	state.gifts = nil
	state.likes = nil
	state.comments = nil
	openCount := m.openSessionCount()
	m.mu.Unlock()
	telemetry.SetOpenSessions(openCount)

	if err := m.repo.CloseSession(ctx, session.ID, m.now()); err != nil {
		slog.Error("failed to close session", "error", err, "session_id", session.ID)
	}

	records := make([]repository.TallyRecord, 0, len(gifts)+len(likes)+len(comments))
	records = append(records, tallyRecords(session, repository.MetricGift, gifts)...)
	records = append(records, tallyRecords(session, repository.MetricLike, likes)...)
	records = append(records, tallyRecords(session, repository.MetricComment, comments)...)
	if err := m.repo.InsertTallies(ctx, records); err != nil {
		slog.Error("failed to persist tallies", "error", err, "session_id", session.ID, "records", len(records))
	}
	telemetry.CountSessionFlushed()
	slog.Info("session flushed", "session_id", session.ID, "community_id", communityID,
		"gifters", len(gifts), "likers", len(likes), "commenters", len(comments))

	giftRanking := rankTotals(gifts)
	likeRanking := rankTotals(likes)

	// Reporting is best-effort from here on: failures are logged, never
	// propagated, and cannot resurrect the cleared accumulator.
	cfg, err := m.repo.GetCommunityConfig(ctx, communityID)
	if err != nil || cfg == nil || cfg.ReportChannelID == "" {
		slog.Warn("no report channel for session report", "community_id", communityID)
		return
	}

	left := m.resolveRows(ctx, communityID, giftRanking)
	right := m.resolveRows(ctx, communityID, likeRanking)
	if err := m.postBoard(cfg.ReportChannelID, messageSessionReportTitle, left, right); err != nil {
		slog.Error("failed to post session report", "error", err, "community_id", communityID)
	} else {
		telemetry.CountReport(string(webhook.ReportSessionEnd))
	}

	if winner := m.rotateRoleToTop(ctx, communityID, roleTopGifter, giftRanking, "Top gifter of last live"); winner != "" {
		slog.Info("top gifter role rotated", "community_id", communityID, "member_id", winner)
	}

	m.mirrorReport(ctx, webhook.ReportSessionEnd, communityID, left, right)
}

func tallyRecords(session *repository.LiveSession, metric repository.MetricKind, totals []repository.MetricTotal) []repository.TallyRecord {
	records := make([]repository.TallyRecord, 0, len(totals))
	for _, t := range totals {
		if t.Total <= 0 {
			continue
		}
		records = append(records, repository.TallyRecord{
			SessionID:       session.ID,
			CommunityID:     session.CommunityID,
			PerformerHandle: t.PerformerHandle,
			Metric:          metric,
			Count:           t.Total,
		})
	}
	return records
}

// LiveSnapshot returns the open session's current gift and like counts in
// first-seen order. The snapshot is additive input for window roll-ups; it is
// not transactionally consistent with the ledger.
func (m *Manager) LiveSnapshot(communityID string) (gifts, likes []repository.MetricTotal, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[communityID]
	if !ok || state.session == nil {
		return nil, nil, false
	}
	return state.gifts.Snapshot(), state.likes.Snapshot(), true
}

func (m *Manager) openSessionCount() int {
	n := 0
	for _, s := range m.states {
		if s.session != nil {
			n++
		}
	}
	return n
}

// resolveRows maps ranked performer handles to display names: the linked
// member's guild display name when available, otherwise the formatted handle.
func (m *Manager) resolveRows(ctx context.Context, communityID string, ranked []repository.MetricTotal) []render.Row {
	rows := make([]render.Row, 0, len(ranked))
	for _, t := range ranked {
		name := fallbackDisplayName(t.PerformerHandle)
		memberID, err := m.repo.GetLinkedMember(ctx, communityID, t.PerformerHandle)
		if err != nil {
			slog.Warn("failed to resolve link", "error", err, "community_id", communityID, "performer", t.PerformerHandle)
		} else if memberID != "" {
			if display := m.discord.ResolveDisplayName(communityID, memberID); display != "" {
				name = display
			}
		}
		rows = append(rows, render.Row{Name: name, Score: t.Total})
	}
	return rows
}

func (m *Manager) postBoard(channelID, title string, left, right []render.Row) error {
	img, err := m.renderer.Render(left, right)
	if err != nil {
		return err
	}
	return m.discord.SendChannelMessageWithFile(discord.FileMessage{
		ChannelID: channelID,
		Content:   title,
		Filename:  boardFilename,
		FileBody:  img,
	})
}

// rotateRoleToTop assigns the named single-holder role to the linked member of
// the top-ranked performer. No-op when the ranking is empty or the top
// performer is unlinked. Returns the winner's member id when rotated.
func (m *Manager) rotateRoleToTop(ctx context.Context, communityID, roleName string, ranked []repository.MetricTotal, reason string) string {
	if len(ranked) == 0 {
		return ""
	}
	memberID, err := m.repo.GetLinkedMember(ctx, communityID, ranked[0].PerformerHandle)
	if err != nil {
		slog.Error("failed to resolve link for role rotation", "error", err, "community_id", communityID)
		return ""
	}
	if memberID == "" {
		return ""
	}
	roleID, err := m.discord.EnsureRole(communityID, roleName)
	if err != nil {
		slog.Error("failed to ensure role", "error", err, "community_id", communityID, "role", roleName)
		return ""
	}
	if err := m.discord.RotateSingleHolderRole(communityID, roleID, memberID, reason); err != nil {
		slog.Error("failed to rotate role", "error", err, "community_id", communityID, "role", roleName)
		return ""
	}
	return memberID
}

func (m *Manager) mirrorReport(ctx context.Context, kind webhook.ReportKind, communityID string, left, right []render.Row) {
	payload := webhook.ReportPayload{
		ReportID:    telemetry.NewReportID(),
		Kind:        kind,
		CommunityID: communityID,
		PostedAt:    m.now(),
		TopGifters:  reportEntries(left),
		TopLikers:   reportEntries(right),
	}
	if err := m.webhook.SendReport(ctx, payload); err != nil {
		slog.Warn("failed to mirror report", "error", err, "community_id", communityID, "report_id", payload.ReportID)
	}
}

func reportEntries(rows []render.Row) []webhook.ReportEntry {
	entries := make([]webhook.ReportEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, webhook.ReportEntry{Name: r.Name, Score: r.Score})
	}
	return entries
}

func (m *Manager) announceRankUp(ctx context.Context, up RankUp) {
	cfg, err := m.repo.GetCommunityConfig(ctx, up.CommunityID)
	if err != nil || cfg == nil || cfg.ReportChannelID == "" {
		return
	}
	msg := rankUpMessage(m.discord.MentionMember(up.MemberID), up.OldRank.Name, up.NewRank.Name, up.NewTotal)
	if err := m.discord.SendChannelMessage(cfg.ReportChannelID, msg); err != nil {
		slog.Warn("failed to announce rank up", "error", err, "community_id", up.CommunityID)
	}
}

// HandleMemberJoin DMs new members the connect prompt so they can link their
// handle.
func (m *Manager) HandleMemberJoin(ev discord.MemberJoinEvent) {
	if err := m.discord.SendDirectMessage(ev.UserID, messageWelcomeDM); err != nil {
		slog.Debug("failed to DM new member", "error", err, "user_id", ev.UserID)
	}
}

// BootstrapRoles creates both badge roles in every joined guild.
func (m *Manager) BootstrapRoles() {
	for _, guildID := range m.discord.ListGuildIDs() {
		for _, name := range []string{roleTopGifter, roleSoreFinger} {
			if _, err := m.discord.EnsureRole(guildID, name); err != nil {
				slog.Warn("failed to bootstrap role", "error", err, "guild_id", guildID, "role", name)
			}
		}
	}
}
