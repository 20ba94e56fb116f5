// Package session holds the synchronization core: one presentation state and
// one game state per session, mutated only by the session's event router and
// rebroadcast to every connected client.
//
// The trust model is cooperative, not adversarial: any connection may emit
// any control event, and the admin/controller distinction is a client-side
// UI gate. Authorize exists so a real check can be injected per event without
// touching the router.
package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Emitter delivers outbound events. Sends must never block; a slow or dead
// connection is the transport's problem, not the router's.
type Emitter interface {
	Broadcast(event string, payload interface{})
	SendTo(connectionID, event string, payload interface{})
}

// AuthorizeFunc decides whether a connection may emit an event. Event names
// are unprefixed. A nil func allows everything.
type AuthorizeFunc func(connectionID, event string) bool

// Options tunes a session beyond its prefix.
type Options struct {
	// QAHistoryLimit bounds the stored Q&A history; 0 keeps it unbounded.
	QAHistoryLimit int
	// TeamNames overrides DefaultTeamNames when non-empty.
	TeamNames []string
	// Authorize gates inbound events; nil allows everything.
	Authorize AuthorizeFunc
}

type handlerFunc func(connectionID string, data json.RawMessage) error

// Session is one (PresentationState, GameState) pair plus its event router.
// Two instances run side by side, distinguished by an event-name prefix on
// the wire ("" and "malawi-").
//
// A single mutex serializes every event to completion, mutation and emit
// included, so broadcasts observe states in mutation order.
type Session struct {
	prefix    string
	emitter   Emitter
	logger    *zap.Logger
	authorize AuthorizeFunc

	mu   sync.Mutex
	pres *PresentationState
	game *GameState

	handlers map[string]handlerFunc
}

// New builds a session routing events carrying the given prefix.
func New(prefix string, emitter Emitter, logger *zap.Logger, opts Options) *Session {
	teams := opts.TeamNames
	if len(teams) == 0 {
		teams = DefaultTeamNames
	}
	s := &Session{
		prefix:    prefix,
		emitter:   emitter,
		logger:    logger.With(zap.String("session", prefixLabel(prefix))),
		authorize: opts.Authorize,
		pres:      NewPresentationState(opts.QAHistoryLimit),
		game:      NewGameState(teams),
	}
	s.handlers = map[string]handlerFunc{
		EventSetSlide:        s.handleSetSlide,
		EventToggleActive:    s.handleToggleActive,
		EventSetScrollMode:   s.handleSetScrollMode,
		EventScrollToElement: s.handleScrollToElement,
		EventScrollPosition:  s.handleScrollPosition,
		EventSetImageFocus:   s.handleSetImageFocus,
		EventToggleQA:        s.handleToggleQA,
		EventSubmitQuestion:  s.handleSubmitQuestion,

		EventJoin:                 s.handleJoin,
		EventRequestAnswer:        s.handleRequestAnswer,
		EventToggleGame:           s.handleToggleGame,
		EventLoadQuestions:        s.handleLoadQuestions,
		EventNextQuestion:         s.handleNextQuestion,
		EventPreviousQuestion:     s.handlePreviousQuestion,
		EventJumpToQuestion:       s.handleJumpToQuestion,
		EventAnswerResult:         s.handleAnswerResult,
		EventClearAnswerer:        s.handleClearAnswerer,
		EventToggleOnePerQuestion: s.handleToggleOnePerQuestion,
		EventGetQuestions:         s.handleGetQuestions,
	}
	return s
}

func prefixLabel(prefix string) string {
	if prefix == "" {
		return "generic"
	}
	return strings.TrimSuffix(prefix, "-")
}

// Prefix returns the session's event-name prefix.
func (s *Session) Prefix() string { return s.prefix }

// Dispatch routes one inbound event. It reports false when the event does not
// belong to this session so a registry can try the next one. Malformed
// payloads and handler failures are logged and dropped; one bad message never
// disturbs the shared session.
func (s *Session) Dispatch(connectionID, event string, data json.RawMessage) bool {
	name, ok := strings.CutPrefix(event, s.prefix)
	if !ok {
		return false
	}
	handler, ok := s.handlers[name]
	if !ok {
		return false
	}
	if s.authorize != nil && !s.authorize(connectionID, name) {
		s.logger.Warn("event not authorized",
			zap.String("event", name),
			zap.String("connection_id", connectionID),
		)
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := handler(connectionID, data); err != nil {
		s.logger.Warn("event dropped",
			zap.String("event", name),
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
	}
	return true
}

// HandleConnect pushes the late-joiner sync to a new connection: the full
// presentation snapshot (Q&A history included), one image-focus replay per
// recorded item, and the minimal game flag. Full game state arrives only when
// the client actually joins a team.
func (s *Session) HandleConnect(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendTo(connectionID, EventPresentationState, s.pres.Snapshot())
	for itemID, imageIndex := range s.pres.FocusedImages {
		s.sendTo(connectionID, EventImageFocusChanged, ImageFocusPayload{ItemID: itemID, ImageIndex: imageIndex})
	}
	s.sendTo(connectionID, EventGameStatus, GameStatusPayload{IsActive: s.game.IsActive})
}

// HandleDisconnect reconciles a closed connection: the participant riding it
// leaves their team, and the answer slot is freed if they held it.
func (s *Session) HandleDisconnect(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participantID, wasAnswerer, found := s.game.DropConnection(connectionID)
	if !found {
		return
	}
	s.logger.Info("participant disconnected",
		zap.String("participant_id", participantID),
		zap.String("connection_id", connectionID),
	)
	if wasAnswerer {
		s.broadcast(EventAnswererCleared, nil)
	}
	s.broadcast(EventTeamsUpdated, s.game.CopyTeams())
}

// broadcast and sendTo prepend the session prefix; outbound events share the
// namespace of their inbound counterparts.
func (s *Session) broadcast(event string, payload interface{}) {
	s.emitter.Broadcast(s.prefix+event, payload)
}

func (s *Session) sendTo(connectionID, event string, payload interface{}) {
	s.emitter.SendTo(connectionID, s.prefix+event, payload)
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// --- presentation events ---

func (s *Session) handleSetSlide(connectionID string, data json.RawMessage) error {
	var index int
	if err := decode(data, &index); err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("negative slide index %d", index)
	}
	s.pres.CurrentSlide = index
	s.logger.Debug("slide changed", zap.Int("index", index))
	s.broadcast(EventSlideChanged, index)
	return nil
}

func (s *Session) handleToggleActive(connectionID string, data json.RawMessage) error {
	var active bool
	if err := decode(data, &active); err != nil {
		return err
	}
	s.pres.IsActive = active
	s.broadcast(EventActiveChanged, active)
	return nil
}

func (s *Session) handleSetScrollMode(connectionID string, data json.RawMessage) error {
	var mode ScrollMode
	if err := decode(data, &mode); err != nil {
		return err
	}
	if !mode.Valid() {
		return fmt.Errorf("unknown scroll mode %q", mode)
	}
	s.pres.ScrollMode = mode
	s.broadcast(EventScrollModeChanged, mode)
	return nil
}

func (s *Session) handleScrollToElement(connectionID string, data json.RawMessage) error {
	var elementID string
	if err := decode(data, &elementID); err != nil {
		return err
	}
	if elementID == "" {
		return fmt.Errorf("empty element id")
	}
	s.pres.TargetElement = elementID
	s.broadcast(EventScrollToElement, elementID)
	return nil
}

// Scroll positions are pass-through: viewers apply them directly and nothing
// is stored, so a late joiner only catches up on the next scroll.
func (s *Session) handleScrollPosition(connectionID string, data json.RawMessage) error {
	var pos ScrollPositionPayload
	if err := decode(data, &pos); err != nil {
		return err
	}
	s.broadcast(EventScrollToPosition, pos)
	return nil
}

func (s *Session) handleSetImageFocus(connectionID string, data json.RawMessage) error {
	var focus ImageFocusPayload
	if err := decode(data, &focus); err != nil {
		return err
	}
	if focus.ItemID == "" {
		return fmt.Errorf("empty item id")
	}
	if focus.ImageIndex < 0 {
		return fmt.Errorf("negative image index %d", focus.ImageIndex)
	}
	s.pres.FocusedImages[focus.ItemID] = focus.ImageIndex
	s.broadcast(EventImageFocusChanged, focus)
	return nil
}

func (s *Session) handleToggleQA(connectionID string, data json.RawMessage) error {
	var enabled bool
	if err := decode(data, &enabled); err != nil {
		return err
	}
	s.pres.QAEnabled = enabled
	s.broadcast(EventQAStatusChanged, enabled)
	return nil
}

func (s *Session) handleSubmitQuestion(connectionID string, data json.RawMessage) error {
	var payload SubmitQuestionPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	if payload.Question == "" {
		return fmt.Errorf("empty question")
	}
	if payload.UserName == "" {
		payload.UserName = "Anonymous"
	}
	msg := s.pres.AppendQA(connectionID, payload.Question, payload.UserName)
	s.broadcast(EventQAMessageReceived, msg)
	return nil
}

// --- game events ---

func (s *Session) handleJoin(connectionID string, data json.RawMessage) error {
	var payload JoinPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	if payload.ParticipantID == "" || payload.Name == "" {
		return fmt.Errorf("join requires participantId and name")
	}
	if err := s.game.Join(payload.ParticipantID, payload.Name, payload.TeamName, connectionID); err != nil {
		return err
	}
	s.logger.Info("participant joined",
		zap.String("participant_id", payload.ParticipantID),
		zap.String("name", payload.Name),
		zap.String("team", payload.TeamName),
	)
	s.sendTo(connectionID, EventGameState, s.game.Snapshot())
	s.broadcast(EventTeamsUpdated, s.game.CopyTeams())
	return nil
}

func (s *Session) handleRequestAnswer(connectionID string, data json.RawMessage) error {
	var payload RequestAnswerPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	outcome, err := s.game.RequestAnswer(payload.ParticipantID, connectionID)
	if err != nil {
		return err
	}
	switch {
	case outcome.Granted != nil:
		s.logger.Debug("answer slot granted", zap.String("participant_id", payload.ParticipantID))
		s.broadcast(EventAnswering, *outcome.Granted)
	case outcome.Rejected != nil:
		s.sendTo(connectionID, EventAnswerRejected, *outcome.Rejected)
	default:
		s.logger.Debug("answer slot taken", zap.String("participant_id", payload.ParticipantID))
	}
	return nil
}

func (s *Session) handleToggleGame(connectionID string, data json.RawMessage) error {
	var active bool
	if err := decode(data, &active); err != nil {
		return err
	}
	s.game.SetActive(active)
	s.logger.Info("game toggled", zap.Bool("active", active))
	s.broadcast(EventGameStatusChanged, active)
	return nil
}

func (s *Session) handleLoadQuestions(connectionID string, data json.RawMessage) error {
	var questions []Question
	if err := decode(data, &questions); err != nil {
		return err
	}
	s.game.LoadQuestions(questions)
	s.logger.Info("questions loaded", zap.Int("count", len(questions)))
	s.broadcast(EventQuestionsLoaded, len(questions))
	s.broadcast(EventQuestionsList, s.game.QuestionSummaries())
	return nil
}

func (s *Session) handleNextQuestion(connectionID string, data json.RawMessage) error {
	display, ok := s.game.Advance()
	return s.finishNavigation(connectionID, display, ok)
}

func (s *Session) handlePreviousQuestion(connectionID string, data json.RawMessage) error {
	display, ok := s.game.Retreat()
	return s.finishNavigation(connectionID, display, ok)
}

func (s *Session) handleJumpToQuestion(connectionID string, data json.RawMessage) error {
	var index int
	if err := decode(data, &index); err != nil {
		return err
	}
	display, ok := s.game.Present(index)
	return s.finishNavigation(connectionID, display, ok)
}

// finishNavigation broadcasts a successful question display, or tells the
// sender the request was out of range. The original swallowed bad navigation
// silently, desyncing the requester's optimistic UI; the typed rejection
// mirrors the already-answered path.
func (s *Session) finishNavigation(connectionID string, display QuestionDisplayPayload, ok bool) error {
	if !ok {
		s.logger.Warn("question navigation out of range",
			zap.Int("current", s.game.CurrentQuestion),
			zap.Int("total", len(s.game.Questions)),
			zap.String("connection_id", connectionID),
		)
		s.sendTo(connectionID, EventAnswerRejected, Rejection{
			Code:    RejectOutOfRange,
			Message: "No question at the requested position.",
		})
		return nil
	}
	s.logger.Debug("question displayed",
		zap.Int("number", display.QuestionNumber),
		zap.Int("total", display.TotalQuestions),
	)
	s.broadcast(EventQuestionDisplay, display)
	return nil
}

func (s *Session) handleAnswerResult(connectionID string, data json.RawMessage) error {
	var payload AnswerResultPayload
	if err := decode(data, &payload); err != nil {
		return err
	}
	outcome, ok := s.game.ResolveAnswer(payload.IsCorrect, payload.Points)
	if !ok {
		return fmt.Errorf("answer result without a current answerer")
	}
	s.broadcast(EventAnswerResult, outcome.Result)
	if outcome.Finished {
		s.logger.Info("game finished", zap.String("winner", outcome.Final.Winner.Name))
		s.broadcast(EventGameFinished, outcome.Final)
	}
	return nil
}

func (s *Session) handleClearAnswerer(connectionID string, data json.RawMessage) error {
	s.game.ClearAnswerer()
	s.broadcast(EventAnswererCleared, nil)
	return nil
}

func (s *Session) handleToggleOnePerQuestion(connectionID string, data json.RawMessage) error {
	enabled := s.game.ToggleOnePerQuestion()
	s.broadcast(EventOnePerQuestionChanged, enabled)
	return nil
}

func (s *Session) handleGetQuestions(connectionID string, data json.RawMessage) error {
	s.sendTo(connectionID, EventQuestionsList, s.game.QuestionSummaries())
	return nil
}
