package session

import (
	"testing"
)

func newGame() *GameState {
	return NewGameState(DefaultTeamNames)
}

func questions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{Display: "Landmark", Answer: "Country"}
	}
	return qs
}

func TestJoinRejoinMovesMembership(t *testing.T) {
	g := newGame()
	if err := g.Join("p1", "Alice", "Team 1", "conn-1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := g.Join("p1", "Alice", "Team 2", "conn-1"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	if got := len(g.Teams["Team 1"].Members); got != 0 {
		t.Errorf("Team 1 members = %d, want 0", got)
	}
	if got := len(g.Teams["Team 2"].Members); got != 1 {
		t.Fatalf("Team 2 members = %d, want 1", got)
	}
	if m := g.Teams["Team 2"].Members[0]; m.ID != "p1" || m.Name != "Alice" {
		t.Errorf("member = %+v", m)
	}
	if p := g.Participants["p1"]; p.TeamName != "Team 2" {
		t.Errorf("participant team = %q, want Team 2", p.TeamName)
	}
}

func TestJoinSameTeamTwiceKeepsOneEntry(t *testing.T) {
	g := newGame()
	for i := 0; i < 3; i++ {
		if err := g.Join("p1", "Alice", "Team 3", "conn-1"); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if got := len(g.Teams["Team 3"].Members); got != 1 {
		t.Errorf("Team 3 members = %d, want 1", got)
	}
}

func TestJoinUnknownTeam(t *testing.T) {
	g := newGame()
	if err := g.Join("p1", "Alice", "Team 99", "conn-1"); err == nil {
		t.Fatal("expected error for unknown team")
	}
	if len(g.Participants) != 0 {
		t.Error("participant stored despite unknown team")
	}
}

func TestRequestAnswerFirstComeFirstServed(t *testing.T) {
	g := newGame()
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")
	mustJoin(t, g, "p2", "Bob", "Team 2", "conn-2")

	first, err := g.RequestAnswer("p1", "conn-1")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if first.Granted == nil || first.Granted.ParticipantID != "p1" {
		t.Fatalf("first request not granted: %+v", first)
	}

	second, err := g.RequestAnswer("p2", "conn-2")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if second.Granted != nil {
		t.Error("second request granted while slot held")
	}
	if second.Rejected != nil {
		t.Error("second request rejected; expected silent no-op outside one-per-question mode")
	}
	if g.CurrentAnswerer.ParticipantID != "p1" {
		t.Errorf("answerer = %q, want p1", g.CurrentAnswerer.ParticipantID)
	}
}

func TestRequestAnswerUnjoined(t *testing.T) {
	g := newGame()
	if _, err := g.RequestAnswer("ghost", "conn-9"); err == nil {
		t.Fatal("expected error for unjoined participant")
	}
}

func TestResolveAnswerScoresOnlyAnswererTeam(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(3))
	g.Present(0)
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")
	mustBuzz(t, g, "p1", "conn-1")

	out, ok := g.ResolveAnswer(true, 2)
	if !ok {
		t.Fatal("resolve returned not ok")
	}
	if g.Teams["Team 1"].Score != 2 {
		t.Errorf("Team 1 score = %d, want 2", g.Teams["Team 1"].Score)
	}
	for _, name := range []string{"Team 2", "Team 3", "Team 4", "Team 5"} {
		if g.Teams[name].Score != 0 {
			t.Errorf("%s score = %d, want 0", name, g.Teams[name].Score)
		}
	}
	if out.Result.CorrectAnswer != "Country" {
		t.Errorf("correct answer = %q", out.Result.CorrectAnswer)
	}
	if g.CurrentAnswerer != nil {
		t.Error("answerer not cleared after result")
	}
	if g.CurrentQuestion != 1 {
		t.Errorf("question index = %d, want 1", g.CurrentQuestion)
	}
	if !g.ShowAnswer {
		t.Error("show answer not set")
	}
}

func TestResolveAnswerIncorrectKeepsScore(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(2))
	g.Present(0)
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")
	mustBuzz(t, g, "p1", "conn-1")

	if _, ok := g.ResolveAnswer(false, 5); !ok {
		t.Fatal("resolve returned not ok")
	}
	if g.Teams["Team 1"].Score != 0 {
		t.Errorf("score = %d, want 0", g.Teams["Team 1"].Score)
	}
}

func TestResolveAnswerDefaultsToOnePoint(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(2))
	g.Present(0)
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")
	mustBuzz(t, g, "p1", "conn-1")

	out, _ := g.ResolveAnswer(true, 0)
	if out.Result.Points != 1 {
		t.Errorf("points = %d, want 1", out.Result.Points)
	}
	if g.Teams["Team 1"].Score != 1 {
		t.Errorf("score = %d, want 1", g.Teams["Team 1"].Score)
	}
}

func TestResolveAnswerWithoutAnswerer(t *testing.T) {
	g := newGame()
	if _, ok := g.ResolveAnswer(true, 1); ok {
		t.Fatal("resolve succeeded without an answerer")
	}
}

func TestGameFinishesExactlyOnce(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(3))
	g.Present(0)
	mustJoin(t, g, "p1", "Alice", "Team 2", "conn-1")

	finishes := 0
	for i := 0; i < 3; i++ {
		mustBuzz(t, g, "p1", "conn-1")
		out, ok := g.ResolveAnswer(true, 1)
		if !ok {
			t.Fatalf("resolve %d returned not ok", i)
		}
		if out.Finished {
			finishes++
			if out.Final.Winner.Name != "Team 2" {
				t.Errorf("winner = %q, want Team 2", out.Final.Winner.Name)
			}
		}
	}
	if finishes != 1 {
		t.Errorf("game finished %d times, want 1", finishes)
	}
}

func TestStandingsTieBreakByName(t *testing.T) {
	g := newGame()
	g.Teams["Team 3"].Score = 5
	g.Teams["Team 1"].Score = 5
	g.Teams["Team 4"].Score = 7

	standings := g.Standings()
	want := []string{"Team 4", "Team 1", "Team 3", "Team 2", "Team 5"}
	for i, name := range want {
		if standings[i].Name != name {
			t.Errorf("standings[%d] = %q, want %q", i, standings[i].Name, name)
		}
	}
}

func TestToggleGameOffResetsProgressNotScores(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(3))
	g.Present(1)
	g.Teams["Team 1"].Score = 4
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")
	mustBuzz(t, g, "p1", "conn-1")
	g.ShowAnswer = true

	g.SetActive(false)
	if g.CurrentAnswerer != nil {
		t.Error("answerer survived game stop")
	}
	if g.ShowAnswer {
		t.Error("show answer survived game stop")
	}
	if g.CurrentQuestion != noQuestion {
		t.Errorf("question index = %d, want sentinel", g.CurrentQuestion)
	}
	if g.Teams["Team 1"].Score != 4 {
		t.Errorf("score = %d, want 4; scores must survive stop/start", g.Teams["Team 1"].Score)
	}
}

func TestOnePerQuestionMarksOnResolve(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(3))
	g.ToggleOnePerQuestion()
	g.Present(0)
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")

	mustBuzz(t, g, "p1", "conn-1")
	if _, ok := g.ResolveAnswer(false, 1); !ok {
		t.Fatal("resolve failed")
	}

	out, err := g.RequestAnswer("p1", "conn-1")
	if err != nil {
		t.Fatalf("re-request: %v", err)
	}
	if out.Rejected == nil || out.Rejected.Code != RejectAlreadyAnswered {
		t.Fatalf("expected already_answered rejection, got %+v", out)
	}
}

func TestPresentResetsAnsweredSet(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(3))
	g.ToggleOnePerQuestion()
	g.Present(0)
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")
	mustBuzz(t, g, "p1", "conn-1")
	if _, ok := g.ResolveAnswer(true, 1); !ok {
		t.Fatal("resolve failed")
	}

	g.Present(1)
	out, err := g.RequestAnswer("p1", "conn-1")
	if err != nil {
		t.Fatalf("request on new question: %v", err)
	}
	if out.Granted == nil {
		t.Fatal("participant still locked out after new question presented")
	}
}

func TestToggleOnePerQuestionClearsAnswered(t *testing.T) {
	g := newGame()
	g.Answered["p1"] = true
	if on := g.ToggleOnePerQuestion(); !on {
		t.Fatal("expected mode on")
	}
	if len(g.Answered) != 0 {
		t.Error("answered set survived mode toggle")
	}
}

func TestPresentBounds(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(3))

	if _, ok := g.Present(3); ok {
		t.Error("presented past the end")
	}
	if _, ok := g.Present(-1); ok {
		t.Error("presented the sentinel")
	}
	if g.CurrentQuestion != noQuestion {
		t.Errorf("index moved to %d on failed present", g.CurrentQuestion)
	}

	display, ok := g.Advance()
	if !ok {
		t.Fatal("advance from sentinel failed")
	}
	if display.QuestionNumber != 1 || display.TotalQuestions != 3 {
		t.Errorf("display = %d of %d, want 1 of 3", display.QuestionNumber, display.TotalQuestions)
	}
	if _, ok := g.Retreat(); ok {
		t.Error("retreated before the first question")
	}
}

func TestDropConnection(t *testing.T) {
	g := newGame()
	mustJoin(t, g, "p1", "Alice", "Team 1", "conn-1")
	mustJoin(t, g, "p2", "Bob", "Team 1", "conn-2")
	mustBuzz(t, g, "p1", "conn-1")

	pid, wasAnswerer, found := g.DropConnection("conn-1")
	if !found || pid != "p1" || !wasAnswerer {
		t.Fatalf("drop = (%q, %v, %v)", pid, wasAnswerer, found)
	}
	if _, ok := g.Participants["p1"]; ok {
		t.Error("participant record survived drop")
	}
	if got := len(g.Teams["Team 1"].Members); got != 1 {
		t.Errorf("Team 1 members = %d, want 1", got)
	}

	if _, _, found := g.DropConnection("conn-unknown"); found {
		t.Error("drop of unknown connection reported found")
	}
}

func TestSnapshotRedactsAnswers(t *testing.T) {
	g := newGame()
	g.LoadQuestions(questions(2))
	g.Present(0)

	snap := g.Snapshot()
	if snap.QuestionCount != 2 {
		t.Errorf("question count = %d", snap.QuestionCount)
	}
	if snap.CurrentQuestion == nil || snap.CurrentQuestion.Display != "Landmark" {
		t.Fatalf("current question = %+v", snap.CurrentQuestion)
	}
	for _, s := range g.QuestionSummaries() {
		if s.Display == "" {
			t.Error("summary missing display")
		}
	}
}

func mustJoin(t *testing.T, g *GameState, pid, name, team, conn string) {
	t.Helper()
	if err := g.Join(pid, name, team, conn); err != nil {
		t.Fatalf("join %s: %v", pid, err)
	}
}

func mustBuzz(t *testing.T, g *GameState, pid, conn string) {
	t.Helper()
	out, err := g.RequestAnswer(pid, conn)
	if err != nil {
		t.Fatalf("request answer %s: %v", pid, err)
	}
	if out.Granted == nil {
		t.Fatalf("request answer %s not granted: %+v", pid, out)
	}
}
