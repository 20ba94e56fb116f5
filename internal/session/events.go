package session

// Inbound event names, without the session prefix. The "malawi-" instance
// receives the same events prefixed on the wire.
const (
	EventSetSlide        = "set-slide"
	EventToggleActive    = "toggle-active"
	EventSetScrollMode   = "set-scroll-mode"
	EventScrollToElement = "scroll-to-element"
	EventScrollPosition  = "scroll-position"
	EventSetImageFocus   = "set-image-focus"
	EventToggleQA        = "toggle-qa"
	EventSubmitQuestion  = "submit-question"

	EventJoin                 = "join"
	EventRequestAnswer        = "request-answer"
	EventToggleGame           = "toggle-game"
	EventLoadQuestions        = "load-questions"
	EventNextQuestion         = "next-question"
	EventPreviousQuestion     = "previous-question"
	EventJumpToQuestion       = "jump-to-question"
	EventAnswerResult         = "answer-result"
	EventClearAnswerer        = "clear-answerer"
	EventToggleOnePerQuestion = "toggle-one-per-question"
	EventGetQuestions         = "get-questions"
)

// Outbound event names. EventScrollToElement and EventAnswerResult are reused
// verbatim on the way out.
const (
	EventSlideChanged          = "slide-changed"
	EventActiveChanged         = "active-changed"
	EventScrollModeChanged     = "scroll-mode-changed"
	EventScrollToPosition      = "scroll-to-position"
	EventImageFocusChanged     = "image-focus-changed"
	EventQAStatusChanged       = "qa-status-changed"
	EventQAMessageReceived     = "qa-message-received"
	EventPresentationState     = "presentation-state"
	EventGameState             = "game-state"
	EventGameStatus            = "game-status"
	EventTeamsUpdated          = "teams-updated"
	EventAnswering             = "answering"
	EventAnswerRejected        = "answer-rejected"
	EventGameStatusChanged     = "status-changed"
	EventQuestionsLoaded       = "questions-loaded"
	EventQuestionsList         = "questions-list"
	EventQuestionDisplay       = "question-display"
	EventGameFinished          = "game-finished"
	EventAnswererCleared       = "answerer-cleared"
	EventOnePerQuestionChanged = "one-per-question-changed"
)

// Rejection codes unicast with EventAnswerRejected.
const (
	RejectAlreadyAnswered = "already_answered"
	RejectOutOfRange      = "out_of_range"
)

// Rejection is the typed error unicast to a sender whose request was refused.
type Rejection struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrollPositionPayload is passed through to viewers without being stored.
type ScrollPositionPayload struct {
	Position   float64 `json:"position"`
	Percentage float64 `json:"percentage"`
}

// ImageFocusPayload selects which image of a gallery item is focused.
type ImageFocusPayload struct {
	ItemID     string `json:"itemId"`
	ImageIndex int    `json:"imageIndex"`
}

// SubmitQuestionPayload is an audience Q&A submission.
type SubmitQuestionPayload struct {
	Question string `json:"question"`
	UserName string `json:"userName"`
}

// JoinPayload registers (or re-registers) a participant on a team.
type JoinPayload struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	TeamName      string `json:"teamName"`
}

// RequestAnswerPayload is a participant buzzing in.
type RequestAnswerPayload struct {
	ParticipantID string `json:"participantId"`
}

// AnswerResultPayload is the controller's verdict on the current answerer.
type AnswerResultPayload struct {
	IsCorrect bool `json:"isCorrect"`
	Points    int  `json:"points"`
}

// QuestionDisplayPayload is broadcast when a question is presented.
type QuestionDisplayPayload struct {
	Question       Question `json:"question"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

// AnswerResultBroadcast is the resolved verdict sent to everyone.
type AnswerResultBroadcast struct {
	IsCorrect     bool            `json:"isCorrect"`
	Points        int             `json:"points"`
	CorrectAnswer string          `json:"correctAnswer"`
	Answerer      Answerer        `json:"answerer"`
	Teams         map[string]Team `json:"teams"`
}

// GameFinishedPayload carries the final ranking.
type GameFinishedPayload struct {
	Results []TeamStanding `json:"results"`
	Winner  TeamStanding   `json:"winner"`
}

// GameStatusPayload is the minimal game flag unicast to every new connection,
// so spectators who never join a team still know a game is running.
type GameStatusPayload struct {
	IsActive bool `json:"isActive"`
}
