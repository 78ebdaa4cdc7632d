// internal/game/match.go
package game

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wordrush-io/wordrush/internal/cards"
	"github.com/wordrush-io/wordrush/internal/models"
)

// OnMatchEndFunc is invoked once when a match produces a winner, so the
// owning room can broadcast results and reset ready states.
type OnMatchEndFunc func(roomID uuid.UUID, winner TeamColor, scores map[TeamColor]int)

// SyncFunc receives match events destined for the remote mirror. Calls
// are fire-and-forget: the engine commits its local state first and never
// waits on (or reads back from) the mirror.
type SyncFunc func(matchID uuid.UUID, eventType MatchEventType, payload map[string]interface{})

// Match holds the entire state for one match instance in memory. All
// exported methods lock; methods with the Locked suffix assume the caller
// holds Mu.
type Match struct {
	ID     uuid.UUID
	RoomID uuid.UUID

	Settings MatchSettings

	Players []*models.Player // join order
	Teams   [NumTeamColors]*Team

	deck    *cards.Deck
	usedIDs map[string]struct{}

	// Turn state. Active is nil while idle; turnSeq increments on every
	// started turn and guards against stale timer callbacks.
	Active     *Turn
	activeCard *cards.Card
	turnSeq    int
	turnTimer  *time.Timer

	// Rotation memory: the team that spoke last and each team's last
	// speaker.
	lastTeam     TeamColor
	hadFirstTurn bool
	lastSpeaker  map[TeamColor]uuid.UUID

	Started   bool
	MatchOver bool
	Winner    *TeamColor

	lastSeen map[uuid.UUID]time.Time
	Mu       sync.Mutex

	// BroadcastFn sends an event to every connected player. If nil, no
	// broadcast is done.
	BroadcastFn func(ev MatchEvent)

	// BroadcastToPlayerFn sends an event to a single specific player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev MatchEvent)

	// OnMatchEnd is invoked when a team reaches the target score.
	OnMatchEnd OnMatchEndFunc

	// SyncFn enqueues events for the asynchronous remote mirror.
	SyncFn SyncFunc
}

// NewMatch builds a match over the given card set, filtered per the
// settings.
func NewMatch(settings MatchSettings, set []*cards.Card) *Match {
	id, _ := uuid.NewRandom()
	m := &Match{
		ID:          id,
		Settings:    settings,
		deck:        cards.NewDeck(set, settings.Category, settings.Difficulty),
		usedIDs:     make(map[string]struct{}),
		lastSpeaker: make(map[TeamColor]uuid.UUID),
		lastSeen:    make(map[uuid.UUID]time.Time),
	}
	for _, c := range AllTeamColors() {
		m.Teams[c] = newTeam(c)
	}
	if m.deck.Size() == 0 {
		log.Printf("Match %s: filtered card set is empty (category=%q difficulty=%q); draws will fail until settings change.",
			m.ID, settings.Category, settings.Difficulty)
	}
	return m
}

// AddPlayer adds a player to the match or refreshes their connection if
// they already exist.
func (m *Match) AddPlayer(p *models.Player) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for i, pl := range m.Players {
		if pl.ID == p.ID {
			m.Players[i].Conn = p.Conn
			m.Players[i].Connected = true
			if p.DisplayName != "" {
				m.Players[i].DisplayName = p.DisplayName
			}
			m.lastSeen[p.ID] = time.Now()
			log.Printf("Player %s reconnected to match %s", p.ID, m.ID)
			return
		}
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	m.Players = append(m.Players, p)
	m.lastSeen[p.ID] = time.Now()
	log.Printf("Player %s added to match %s", p.ID, m.ID)
}

// JoinTeam assigns the player to a team, removing them from any previous
// one. Join order within the team is the order of JoinTeam calls.
func (m *Match) JoinTeam(playerID uuid.UUID, color TeamColor) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if !color.Valid() {
		return ErrNoEligibleTeam
	}
	if m.getPlayerLocked(playerID) == nil {
		return ErrSpeakerNotOnTeam
	}
	for _, t := range m.Teams {
		if t.Color != color {
			t.removeMember(playerID)
		}
	}
	if !m.Teams[color].HasMember(playerID) {
		m.Teams[color].MemberIDs = append(m.Teams[color].MemberIDs, playerID)
	}
	m.fireEventLocked(MatchEvent{
		Type: EventPlayerJoinTeam,
		Team: &color,
		User: &EventUser{ID: playerID},
	})
	return nil
}

// StartMatch begins play. Teams keep whatever membership they have; the
// first turn is started separately through StartNextTurn.
func (m *Match) StartMatch() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Started {
		return nil
	}
	if m.MatchOver {
		return ErrMatchOver
	}
	m.Started = true
	log.Printf("Match %s started.", m.ID)
	m.fireEventLocked(MatchEvent{Type: EventMatchStart})
	m.broadcastSyncStateLocked()
	m.enqueueSyncLocked(EventMatchStart, nil)
	return nil
}

// StartTurn begins a turn for the given team and speaker. Legal only
// while no turn is active.
func (m *Match) StartTurn(color TeamColor, speakerID uuid.UUID) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.startTurnLocked(color, speakerID)
}

func (m *Match) startTurnLocked(color TeamColor, speakerID uuid.UUID) error {
	if m.MatchOver {
		return ErrMatchOver
	}
	if !m.Started {
		return ErrMatchNotStarted
	}
	if m.Active != nil {
		return ErrTurnActive
	}
	if !m.Teams[color].HasMember(speakerID) {
		return ErrSpeakerNotOnTeam
	}

	m.Active = &Turn{
		TeamColor:        color,
		SpeakerID:        speakerID,
		SecondsRemaining: m.Settings.TurnDurationSec,
	}
	m.turnSeq++
	m.lastTeam = color
	m.hadFirstTurn = true
	m.lastSpeaker[color] = speakerID

	m.fireEventLocked(MatchEvent{
		Type: EventTurnStart,
		Team: &color,
		User: &EventUser{ID: speakerID},
		Payload: map[string]interface{}{
			"seconds":   m.Settings.TurnDurationSec,
			"wordIndex": m.Teams[color].WordIndex,
		},
	})
	m.enqueueSyncLocked(EventTurnStart, map[string]interface{}{
		"team":    color.String(),
		"speaker": speakerID.String(),
	})

	m.drawNextCardLocked()
	m.scheduleTurnTimerLocked()
	return nil
}

// StartNextTurn picks the next team and speaker via rotation and starts
// their turn. It returns who is up so the caller can surface it.
func (m *Match) StartNextTurn() (TeamColor, uuid.UUID, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Active != nil {
		return 0, uuid.Nil, ErrTurnActive
	}

	current := m.lastTeam
	if !m.hadFirstTurn {
		// Before the first turn, rotation starts from yellow so red (the
		// next color in the cycle) speaks first when eligible.
		current = Yellow
	}
	color, err := NextTeam(current, &m.Teams)
	if err != nil {
		return 0, uuid.Nil, err
	}
	speaker, err := NextSpeaker(m.Teams[color], m.Players, m.lastSpeaker[color])
	if err != nil {
		return 0, uuid.Nil, err
	}
	if err := m.startTurnLocked(color, speaker); err != nil {
		return 0, uuid.Nil, err
	}
	return color, speaker, nil
}

// RecordCorrect counts a correct guess and reveals the next card. A
// correct guess always reveals a new prompt while the team stays on the
// same word slot.
func (m *Match) RecordCorrect() error {
	return m.recordOutcome(EventTurnCorrect)
}

// RecordPass skips the current card with no effect on score or movement.
func (m *Match) RecordPass() error {
	return m.recordOutcome(EventTurnPass)
}

// RecordSkip penalizes the team and moves on to the next card.
func (m *Match) RecordSkip() error {
	return m.recordOutcome(EventTurnPenalty)
}

// RecordMistake penalizes the team and moves on to the next card. At this
// layer it is identical to RecordSkip; clients distinguish the labels.
func (m *Match) RecordMistake() error {
	return m.recordOutcome(EventTurnPenalty)
}

func (m *Match) recordOutcome(ev MatchEventType) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.MatchOver {
		return ErrMatchOver
	}
	if m.Active == nil {
		return ErrNoActiveTurn
	}

	switch ev {
	case EventTurnCorrect:
		m.Active.CardsWon++
	case EventTurnPass:
		m.Active.CardsPassed++
	case EventTurnPenalty:
		m.Active.Penalties++
	}
	color := m.Active.TeamColor
	m.fireEventLocked(MatchEvent{
		Type: ev,
		Team: &color,
		User: &EventUser{ID: m.Active.SpeakerID},
		Payload: map[string]interface{}{
			"cardsWon":    m.Active.CardsWon,
			"cardsPassed": m.Active.CardsPassed,
			"penalties":   m.Active.Penalties,
		},
	})
	m.drawNextCardLocked()
	return nil
}

// Tick applies elapsed wall-clock seconds reported by the room's ticker.
// The remaining time floors at zero; the server's own turn timer ends the
// turn, so Tick never finalizes anything itself.
func (m *Match) Tick(secondsElapsed int) (int, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Active == nil {
		return 0, ErrNoActiveTurn
	}
	m.Active.SecondsRemaining -= secondsElapsed
	if m.Active.SecondsRemaining < 0 {
		m.Active.SecondsRemaining = 0
	}
	remaining := m.Active.SecondsRemaining
	m.fireEventLocked(MatchEvent{
		Type:    EventTurnTick,
		Payload: map[string]interface{}{"seconds": remaining},
	})
	return remaining, nil
}

// EndTurn finalizes the active turn, applies its movement to the owning
// team, and returns the result. Ending early by user action is identical
// to natural timer expiry.
func (m *Match) EndTurn() (TurnResult, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.endTurnLocked()
}

func (m *Match) endTurnLocked() (TurnResult, error) {
	if m.Active == nil {
		return TurnResult{}, ErrNoActiveTurn
	}
	if m.turnTimer != nil {
		m.turnTimer.Stop()
		m.turnTimer = nil
	}

	color := m.Active.TeamColor
	result := m.Active.result()
	m.Active = nil
	m.activeCard = nil

	m.applyTurnResultLocked(color, result)

	m.fireEventLocked(MatchEvent{
		Type: EventTurnEnd,
		Team: &color,
		Payload: map[string]interface{}{
			"movement":    result.Movement,
			"cardsWon":    result.CardsWon,
			"cardsPassed": result.CardsPassed,
			"penalties":   result.Penalties,
			"score":       m.Teams[color].Score,
			"wordIndex":   m.Teams[color].WordIndex,
		},
	})
	m.enqueueSyncLocked(EventTurnEnd, map[string]interface{}{
		"team":        color.String(),
		"movement":    result.Movement,
		"cardsWon":    result.CardsWon,
		"cardsPassed": result.CardsPassed,
		"penalties":   result.Penalties,
		"score":       m.Teams[color].Score,
	})

	if m.checkWinLocked(color) {
		m.finishMatchLocked(color)
	}
	return result, nil
}

// ApplyTurnResult feeds a finished turn's outcome into the team's
// persistent state.
func (m *Match) ApplyTurnResult(color TeamColor, result TurnResult) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.applyTurnResultLocked(color, result)
}

func (m *Match) applyTurnResultLocked(color TeamColor, result TurnResult) {
	team := m.Teams[color]

	// Score only ever grows: penalties cost movement, not points.
	team.Score += result.CardsWon
	team.WordIndex = WrapWordIndex(team.WordIndex, result.Movement)
	if result.Movement > 0 {
		team.TrackPosition += result.Movement
	}
	summary := TurnSummary{
		Movement:    result.Movement,
		CardsWon:    result.CardsWon,
		CardsPassed: result.CardsPassed,
		Penalties:   result.Penalties,
	}
	team.LastTurn = &summary
}

// CheckWin reports whether the team has reached the target score.
func (m *Match) CheckWin(color TeamColor) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.checkWinLocked(color)
}

func (m *Match) checkWinLocked(color TeamColor) bool {
	return m.Teams[color].Score >= m.Settings.TargetScore
}

func (m *Match) finishMatchLocked(winner TeamColor) {
	m.MatchOver = true
	w := winner
	m.Winner = &w
	if m.turnTimer != nil {
		m.turnTimer.Stop()
		m.turnTimer = nil
	}
	log.Printf("Match %s: team %s wins with %d points.", m.ID, winner, m.Teams[winner].Score)

	scores := make(map[TeamColor]int, NumTeamColors)
	scorePayload := make(map[string]interface{}, NumTeamColors)
	for _, c := range AllTeamColors() {
		scores[c] = m.Teams[c].Score
		scorePayload[c.String()] = m.Teams[c].Score
	}
	m.fireEventLocked(MatchEvent{
		Type: EventMatchWin,
		Team: &w,
		Payload: map[string]interface{}{
			"scores": scorePayload,
		},
	})
	m.enqueueSyncLocked(EventMatchWin, map[string]interface{}{
		"winner": winner.String(),
		"scores": scorePayload,
	})

	if m.OnMatchEnd != nil {
		m.OnMatchEnd(m.RoomID, winner, scores)
	}
}

// ResetMatch returns every team to its starting state for a rematch.
// Team membership and connected players are retained.
func (m *Match) ResetMatch() {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.turnTimer != nil {
		m.turnTimer.Stop()
		m.turnTimer = nil
	}
	m.Active = nil
	m.activeCard = nil
	m.MatchOver = false
	m.Winner = nil
	m.Started = false
	m.hadFirstTurn = false
	m.usedIDs = make(map[string]struct{})
	m.lastSpeaker = make(map[TeamColor]uuid.UUID)
	for _, t := range m.Teams {
		t.reset()
	}

	m.fireEventLocked(MatchEvent{Type: EventMatchReset})
	m.broadcastSyncStateLocked()
	m.enqueueSyncLocked(EventMatchReset, nil)
}

// HandleDisconnect marks a player disconnected. The turn keeps running if
// the speaker drops; the turn timer will end it.
func (m *Match) HandleDisconnect(playerID uuid.UUID) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	p := m.getPlayerLocked(playerID)
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	p.Conn = nil
	log.Printf("Match %s: player %s disconnected.", m.ID, playerID)
	m.fireEventLocked(MatchEvent{
		Type: EventPlayerGone,
		User: &EventUser{ID: playerID},
	})
	m.broadcastSyncStateLocked()
}

// HandleReconnect marks a player connected again and sends them a fresh
// snapshot.
func (m *Match) HandleReconnect(playerID uuid.UUID, p *models.Player) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	existing := m.getPlayerLocked(playerID)
	if existing == nil {
		log.Printf("Match %s: reconnecting player %s not found.", m.ID, playerID)
		return
	}
	existing.Connected = true
	existing.Conn = p.Conn
	m.lastSeen[playerID] = time.Now()
	m.fireEventLocked(MatchEvent{
		Type: EventPlayerBack,
		User: &EventUser{ID: playerID},
	})
	m.sendSyncStateLocked(playerID)
	m.broadcastSyncStateLocked()
}

// drawNextCardLocked draws the next prompt card for the speaker, clearing
// the used set when the pool is exhausted. Returns nil only when the
// filtered pool itself is empty.
func (m *Match) drawNextCardLocked() *cards.Card {
	if m.Active == nil {
		return nil
	}
	card := m.deck.Draw(m.usedIDs)
	if card == nil {
		if m.deck.Size() == 0 {
			log.Printf("Match %s: WARNING: no cards match the current filter; cannot draw.", m.ID)
			m.activeCard = nil
			return nil
		}
		// Every card has been seen: reshuffle and go again.
		m.usedIDs = make(map[string]struct{})
		m.fireEventLocked(MatchEvent{
			Type:    EventDeckReshuffle,
			Payload: map[string]interface{}{"deckSize": m.deck.Size()},
		})
		card = m.deck.Draw(m.usedIDs)
		if card == nil {
			return nil
		}
	}
	m.usedIDs[card.ID] = struct{}{}
	m.activeCard = card

	if ec := m.activeEventCardLocked(); ec != nil {
		m.fireEventToPlayerLocked(m.Active.SpeakerID, MatchEvent{
			Type: EventPrivateCard,
			Card: ec,
		})
	}
	return card
}

// activeEventCardLocked builds the speaker-facing view of the active
// card: its ID plus the single word selected by the team's word index.
func (m *Match) activeEventCardLocked() *EventCard {
	if m.Active == nil || m.activeCard == nil {
		return nil
	}
	idx := m.Teams[m.Active.TeamColor].WordIndex
	return &EventCard{
		ID:         m.activeCard.ID,
		Word:       m.activeCard.WordAt(idx),
		WordIndex:  idx,
		Category:   m.activeCard.Category,
		Difficulty: m.activeCard.Difficulty,
	}
}

// scheduleTurnTimerLocked arms the server-side turn timer. The sequence
// number guards against a stale callback firing after the turn it
// belonged to has already ended.
func (m *Match) scheduleTurnTimerLocked() {
	if m.Settings.TurnDurationSec <= 0 {
		return
	}
	if m.turnTimer != nil {
		m.turnTimer.Stop()
	}
	seq := m.turnSeq
	m.turnTimer = time.AfterFunc(time.Duration(m.Settings.TurnDurationSec)*time.Second, func() {
		m.Mu.Lock()
		defer m.Mu.Unlock()
		if m.Active == nil || m.turnSeq != seq || m.MatchOver {
			log.Printf("Match %s: stale turn timer fired (seq %d, current %d). Ignoring.", m.ID, seq, m.turnSeq)
			return
		}
		log.Printf("Match %s: turn timer expired for team %s.", m.ID, m.Active.TeamColor)
		if _, err := m.endTurnLocked(); err != nil {
			log.Printf("Match %s: failed to end turn on expiry: %v", m.ID, err)
		}
	})
}

func (m *Match) getPlayerLocked(id uuid.UUID) *models.Player {
	for _, p := range m.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CountConnectedPlayers returns how many players are currently connected.
func (m *Match) CountConnectedPlayers() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	n := 0
	for _, p := range m.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (m *Match) fireEventLocked(ev MatchEvent) {
	if m.BroadcastFn != nil {
		m.BroadcastFn(ev)
	}
}

func (m *Match) fireEventToPlayerLocked(playerID uuid.UUID, ev MatchEvent) {
	if m.BroadcastToPlayerFn == nil {
		return
	}
	p := m.getPlayerLocked(playerID)
	if p != nil && p.Connected {
		m.BroadcastToPlayerFn(playerID, ev)
	}
}

func (m *Match) enqueueSyncLocked(ev MatchEventType, payload map[string]interface{}) {
	if m.SyncFn != nil {
		m.SyncFn(m.ID, ev, payload)
	}
}

func (m *Match) sendSyncStateLocked(playerID uuid.UUID) {
	state := m.snapshotLocked(playerID)
	m.fireEventToPlayerLocked(playerID, MatchEvent{
		Type:  EventPrivateSync,
		State: &state,
	})
}

func (m *Match) broadcastSyncStateLocked() {
	if m.BroadcastToPlayerFn == nil {
		return
	}
	for _, p := range m.Players {
		if p.Connected {
			m.sendSyncStateLocked(p.ID)
		}
	}
}
