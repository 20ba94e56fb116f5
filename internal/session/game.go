package session

import (
	"fmt"
	"sort"
)

// DefaultTeamNames is the fixed team roster every game starts with. Teams are
// never added or removed; only membership and scores change.
var DefaultTeamNames = []string{"Team 1", "Team 2", "Team 3", "Team 4", "Team 5"}

// noQuestion is the sentinel index before the first question is presented.
const noQuestion = -1

// Question is opaque to the core beyond a display field and the correct
// answer. Media carries an optional image URL for landmark-style questions.
type Question struct {
	Display string `json:"display"`
	Answer  string `json:"answer"`
	Media   string `json:"media,omitempty"`
}

// QuestionSummary is the redacted form sent to clients in question lists:
// position and display fields only, never the answer.
type QuestionSummary struct {
	Index   int    `json:"index"`
	Display string `json:"display"`
	Media   string `json:"media,omitempty"`
}

// TeamMember is one roster entry.
type TeamMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team holds a score and the ordered member roster.
type Team struct {
	Score   int          `json:"score"`
	Members []TeamMember `json:"members"`
}

// Participant is a game-joined identity. ParticipantID is client-generated
// and survives reconnects; ConnectionID does not.
type Participant struct {
	Name         string `json:"name"`
	TeamName     string `json:"teamName"`
	ConnectionID string `json:"connectionId"`
}

// Answerer identifies who currently holds the answer slot.
type Answerer struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	TeamName      string `json:"teamName"`
	ConnectionID  string `json:"connectionId"`
}

// TeamStanding is one row of the final ranking.
type TeamStanding struct {
	Name    string       `json:"name"`
	Score   int          `json:"score"`
	Members []TeamMember `json:"members"`
}

// GameState is the canonical trivia state for one session. The session router
// is its only writer; all methods assume the session lock is held.
type GameState struct {
	IsActive        bool
	Questions       []Question
	CurrentQuestion int
	Teams           map[string]*Team
	Participants    map[string]*Participant
	CurrentAnswerer *Answerer
	ShowAnswer      bool
	OnePerQuestion  bool
	Answered        map[string]bool
}

// NewGameState seeds an inactive game with the given empty teams.
func NewGameState(teamNames []string) *GameState {
	teams := make(map[string]*Team, len(teamNames))
	for _, name := range teamNames {
		teams[name] = &Team{Members: []TeamMember{}}
	}
	return &GameState{
		CurrentQuestion: noQuestion,
		Teams:           teams,
		Participants:    make(map[string]*Participant),
		Answered:        make(map[string]bool),
	}
}

// Join upserts a participant onto a team. Rejoining moves the roster entry
// instead of duplicating it, so profile edits and reconnects stay idempotent.
func (g *GameState) Join(participantID, name, teamName, connectionID string) error {
	team, ok := g.Teams[teamName]
	if !ok {
		return fmt.Errorf("unknown team %q", teamName)
	}
	g.removeMembership(participantID)
	team.Members = append(team.Members, TeamMember{ID: participantID, Name: name})
	g.Participants[participantID] = &Participant{
		Name:         name,
		TeamName:     teamName,
		ConnectionID: connectionID,
	}
	return nil
}

func (g *GameState) removeMembership(participantID string) {
	for _, team := range g.Teams {
		for i, m := range team.Members {
			if m.ID == participantID {
				team.Members = append(team.Members[:i], team.Members[i+1:]...)
				break
			}
		}
	}
}

// RequestOutcome is the result of a buzz-in attempt. At most one of Granted
// and Rejected is set; both nil/false means the request was a no-op.
type RequestOutcome struct {
	Granted  *Answerer
	Rejected *Rejection
}

// RequestAnswer resolves a buzz-in strictly first-come-first-served: the
// answer slot is granted only when free, and in one-per-question mode only to
// participants who have not answered the current question.
func (g *GameState) RequestAnswer(participantID, connectionID string) (RequestOutcome, error) {
	p, ok := g.Participants[participantID]
	if !ok {
		return RequestOutcome{}, fmt.Errorf("participant %q has not joined", participantID)
	}
	switch {
	case g.CurrentAnswerer == nil && (!g.OnePerQuestion || !g.Answered[participantID]):
		g.CurrentAnswerer = &Answerer{
			ParticipantID: participantID,
			Name:          p.Name,
			TeamName:      p.TeamName,
			ConnectionID:  connectionID,
		}
		return RequestOutcome{Granted: g.CurrentAnswerer}, nil
	case g.OnePerQuestion && g.Answered[participantID]:
		return RequestOutcome{Rejected: &Rejection{
			Code:    RejectAlreadyAnswered,
			Message: "You have already answered this question. Please wait for other participants.",
		}}, nil
	default:
		// Slot taken; the loser learns via the broadcast naming the winner.
		return RequestOutcome{}, nil
	}
}

// SetActive toggles the game. Turning it off resets the answer slot and
// question progress but deliberately keeps scores, so a multi-round class
// accumulates points across rounds.
func (g *GameState) SetActive(active bool) {
	g.IsActive = active
	if !active {
		g.CurrentAnswerer = nil
		g.ShowAnswer = false
		g.CurrentQuestion = noQuestion
	}
}

// LoadQuestions replaces the question set and rewinds to the sentinel.
func (g *GameState) LoadQuestions(questions []Question) {
	g.Questions = questions
	g.CurrentQuestion = noQuestion
	g.Answered = make(map[string]bool)
}

// Present moves to the question at index and returns it with its 1-based
// position. Out-of-range indexes leave the state untouched.
func (g *GameState) Present(index int) (QuestionDisplayPayload, bool) {
	if index < 0 || index >= len(g.Questions) {
		return QuestionDisplayPayload{}, false
	}
	g.CurrentQuestion = index
	g.CurrentAnswerer = nil
	g.ShowAnswer = false
	g.Answered = make(map[string]bool)
	return QuestionDisplayPayload{
		Question:       g.Questions[index],
		QuestionNumber: index + 1,
		TotalQuestions: len(g.Questions),
	}, true
}

// Advance presents the next question; from the sentinel it presents the first.
func (g *GameState) Advance() (QuestionDisplayPayload, bool) {
	return g.Present(g.CurrentQuestion + 1)
}

// Retreat presents the previous question.
func (g *GameState) Retreat() (QuestionDisplayPayload, bool) {
	return g.Present(g.CurrentQuestion - 1)
}

// AnswerOutcome is the resolved verdict for the current answerer.
type AnswerOutcome struct {
	Result   AnswerResultBroadcast
	Finished bool
	Final    GameFinishedPayload
}

// ResolveAnswer applies the controller's verdict to the current answerer:
// scores the team on a correct answer, records the participant in
// one-per-question mode, reveals the answer and advances the question index.
// Advancing past the last question finishes the game exactly once. Returns
// false when no answerer holds the slot.
func (g *GameState) ResolveAnswer(isCorrect bool, points int) (AnswerOutcome, bool) {
	if g.CurrentAnswerer == nil {
		return AnswerOutcome{}, false
	}
	if points <= 0 {
		points = 1
	}
	answerer := *g.CurrentAnswerer
	if isCorrect {
		if team, ok := g.Teams[answerer.TeamName]; ok {
			team.Score += points
		}
	}
	if g.OnePerQuestion {
		g.Answered[answerer.ParticipantID] = true
	}
	g.ShowAnswer = true

	var correctAnswer string
	if g.CurrentQuestion >= 0 && g.CurrentQuestion < len(g.Questions) {
		correctAnswer = g.Questions[g.CurrentQuestion].Answer
	}

	out := AnswerOutcome{
		Result: AnswerResultBroadcast{
			IsCorrect:     isCorrect,
			Points:        points,
			CorrectAnswer: correctAnswer,
			Answerer:      answerer,
			Teams:         g.CopyTeams(),
		},
	}

	g.CurrentAnswerer = nil
	wasLast := g.CurrentQuestion == len(g.Questions)-1 && len(g.Questions) > 0
	g.CurrentQuestion++
	if wasLast {
		standings := g.Standings()
		out.Finished = true
		out.Final = GameFinishedPayload{Results: standings, Winner: standings[0]}
	}
	return out, true
}

// ClearAnswerer frees the answer slot, reporting whether it was held.
func (g *GameState) ClearAnswerer() bool {
	if g.CurrentAnswerer == nil {
		return false
	}
	g.CurrentAnswerer = nil
	return true
}

// ToggleOnePerQuestion flips the mode and returns the new value. The answered
// set resets on every flip, so no stale locks survive a mode change.
func (g *GameState) ToggleOnePerQuestion() bool {
	g.OnePerQuestion = !g.OnePerQuestion
	g.Answered = make(map[string]bool)
	return g.OnePerQuestion
}

// DropConnection removes whichever participant rode the closed connection.
// Reports the removed participant id and whether they held the answer slot.
func (g *GameState) DropConnection(connectionID string) (participantID string, wasAnswerer bool, found bool) {
	for id, p := range g.Participants {
		if p.ConnectionID == connectionID {
			participantID = id
			found = true
			break
		}
	}
	if !found {
		return "", false, false
	}
	g.removeMembership(participantID)
	delete(g.Participants, participantID)
	if g.CurrentAnswerer != nil && g.CurrentAnswerer.ParticipantID == participantID {
		g.CurrentAnswerer = nil
		wasAnswerer = true
	}
	return participantID, wasAnswerer, true
}

// Standings ranks teams by score descending; ties break by team name
// ascending so the ranking is deterministic.
func (g *GameState) Standings() []TeamStanding {
	standings := make([]TeamStanding, 0, len(g.Teams))
	for name, team := range g.Teams {
		members := make([]TeamMember, len(team.Members))
		copy(members, team.Members)
		standings = append(standings, TeamStanding{Name: name, Score: team.Score, Members: members})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Score != standings[j].Score {
			return standings[i].Score > standings[j].Score
		}
		return standings[i].Name < standings[j].Name
	})
	return standings
}

// QuestionSummaries returns the redacted question list.
func (g *GameState) QuestionSummaries() []QuestionSummary {
	out := make([]QuestionSummary, len(g.Questions))
	for i, q := range g.Questions {
		out[i] = QuestionSummary{Index: i, Display: q.Display, Media: q.Media}
	}
	return out
}

// CopyTeams returns a deep copy of the team map safe to serialize after the
// session lock is released.
func (g *GameState) CopyTeams() map[string]Team {
	out := make(map[string]Team, len(g.Teams))
	for name, team := range g.Teams {
		members := make([]TeamMember, len(team.Members))
		copy(members, team.Members)
		out[name] = Team{Score: team.Score, Members: members}
	}
	return out
}

// GameSnapshot is the client-facing view of a game, unicast on join. The
// question set itself stays redacted, consistent with question lists.
type GameSnapshot struct {
	IsActive             bool             `json:"isActive"`
	CurrentQuestionIndex int              `json:"currentQuestionIndex"`
	QuestionCount        int              `json:"questionCount"`
	CurrentQuestion      *QuestionSummary `json:"currentQuestion,omitempty"`
	Teams                map[string]Team  `json:"teams"`
	CurrentAnswerer      *Answerer        `json:"currentAnswerer,omitempty"`
	ShowAnswer           bool             `json:"showAnswer"`
	OnePerQuestion       bool             `json:"onePerQuestion"`
}

// Snapshot returns the client-facing view of the current game state.
func (g *GameState) Snapshot() GameSnapshot {
	snap := GameSnapshot{
		IsActive:             g.IsActive,
		CurrentQuestionIndex: g.CurrentQuestion,
		QuestionCount:        len(g.Questions),
		Teams:                g.CopyTeams(),
		ShowAnswer:           g.ShowAnswer,
		OnePerQuestion:       g.OnePerQuestion,
	}
	if g.CurrentQuestion >= 0 && g.CurrentQuestion < len(g.Questions) {
		q := g.Questions[g.CurrentQuestion]
		snap.CurrentQuestion = &QuestionSummary{Index: g.CurrentQuestion, Display: q.Display, Media: q.Media}
	}
	if g.CurrentAnswerer != nil {
		a := *g.CurrentAnswerer
		snap.CurrentAnswerer = &a
	}
	return snap
}
