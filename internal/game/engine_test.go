package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/ids"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type captureRecorder struct {
	mu    sync.Mutex
	calls []Completion
	err   error
}

func (c *captureRecorder) RecordCompletion(_ context.Context, comp Completion) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, comp)
	return c.err
}

// hiPoem: two ungrouped participating words, red "chat" and blue "dort",
// mystery word HI (masculine).
func hiPoem() *grammar.Poem {
	return &grammar.Poem{
		ID:    "poem-hi",
		Verse: "Le chat dort",
		Words: []grammar.Word{
			{Text: "Le", Class: "Déterminant"},
			{Text: "chat", Class: "Nom", IsSelected: true},
			{Text: "dort", Class: "Verbe", IsSelected: true},
		},
		ParticipatingWordIndices: []int{1, 2},
		WordColors:               map[int]grammar.ColorToken{1: "#ff0000", 2: "#0000ff"},
		TargetWord:               "HI",
		TargetGender:             grammar.Masculine,
	}
}

// groupPoem: "le petit chat" grouped, plus "dort".
func groupPoem() *grammar.Poem {
	return &grammar.Poem{
		ID:    "poem-group",
		Verse: "le petit chat dort",
		Words: []grammar.Word{
			{Text: "le", Class: "Déterminant", GroupID: "g"},
			{Text: "petit", Class: "Adjectif", GroupID: "g"},
			{Text: "chat", Class: "Nom", GroupID: "g"},
			{Text: "dort", Class: "Verbe"},
		},
		Groups:                   []grammar.WordGroup{{ID: "g", Name: "le petit chat", Color: "#00aa00", WordIndices: []int{0, 1, 2}}},
		ParticipatingWordIndices: []int{0, 1, 2, 3},
		TargetWord:               "OK",
		TargetGender:             grammar.Feminine,
	}
}

func newTestRound(t *testing.T, rec Recorder) (*Round, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	r := New("round-1", Options{
		Owner:    "device-1",
		Clock:    clk,
		IDs:      ids.NewSequence("id"),
		Model:    grammar.NewModel("gris", "X"),
		Recorder: rec,
	})
	return r, clk
}

// classifyAll assigns the correct class to every working word.
func classifyAll(t *testing.T, r *Round) {
	t.Helper()
	for i, w := range r.View().Words {
		if w.Class != "" {
			continue
		}
		if _, err := r.AssignClass(i, r.snapshot[w.SourceIndex].Class); err != nil {
			t.Fatalf("AssignClass(%d): %v", i, err)
		}
	}
}

func paletteID(t *testing.T, r *Round, letter string) string {
	t.Helper()
	for _, e := range r.View().Palette {
		if e.Letter == letter {
			return e.ID
		}
	}
	t.Fatalf("letter %s not in palette", letter)
	return ""
}

func dropWord(t *testing.T, r *Round, word string) {
	t.Helper()
	for _, ch := range word {
		if _, err := r.DropLetter(paletteID(t, r, string(ch))); err != nil {
			t.Fatalf("DropLetter(%c): %v", ch, err)
		}
	}
}

// toMystery brings a fresh round on p to step 3.
func toMystery(t *testing.T, r *Round, p *grammar.Poem) {
	t.Helper()
	if err := r.SelectPoem(p); err != nil {
		t.Fatalf("SelectPoem: %v", err)
	}
	classifyAll(t, r)
	if err := r.ProceedToStep3(); err != nil {
		t.Fatalf("ProceedToStep3: %v", err)
	}
}

func TestSelectPoemBuildsWorkingWords(t *testing.T) {
	r, _ := newTestRound(t, nil)
	if err := r.SelectPoem(hiPoem()); err != nil {
		t.Fatalf("SelectPoem: %v", err)
	}
	v := r.View()
	if v.Step != StepClassify {
		t.Fatalf("step = %v, want classify", v.Step)
	}
	if len(v.Words) != 2 || v.Words[0].Text != "chat" || v.Words[1].Text != "dort" {
		t.Fatalf("words = %+v, want chat, dort", v.Words)
	}
	for _, w := range v.Words {
		if w.Class != "" {
			t.Errorf("%q class = %q, want cleared", w.Text, w.Class)
		}
	}
	if err := r.SelectPoem(hiPoem()); !errors.Is(err, ErrWrongStep) {
		t.Errorf("second SelectPoem = %v, want ErrWrongStep", err)
	}
}

func TestScenarioAReachesGenderStep(t *testing.T) {
	r, _ := newTestRound(t, nil)
	toMystery(t, r, hiPoem())

	for _, e := range r.View().Palette {
		want := grammar.ColorToken("gris")
		switch e.Letter {
		case "H":
			want = "#ff0000"
		case "I":
			want = "#0000ff"
		}
		if e.Color != want {
			t.Errorf("palette %s = %q, want %q", e.Letter, e.Color, want)
		}
	}

	dropWord(t, r, "HI")
	ok, err := r.CheckWord()
	if err != nil || !ok {
		t.Fatalf("CheckWord = %v, %v; want true", ok, err)
	}
	v := r.View()
	if v.Step != StepGender || v.FoundWord != "HI" {
		t.Fatalf("step=%v found=%q, want gender/HI", v.Step, v.FoundWord)
	}
}

func TestScenarioCMisassignCostsOneLife(t *testing.T) {
	r, _ := newTestRound(t, nil)
	_ = r.SelectPoem(hiPoem())

	lost, err := r.AssignClass(0, "Verbe")
	if err != nil || !lost {
		t.Fatalf("first wrong assign = %v, %v; want life lost", lost, err)
	}
	if lost, _ := r.AssignClass(0, "Verbe"); lost {
		t.Error("repeating the wrong class lost another life")
	}
	if lost, _ := r.AssignClass(0, "Nom"); lost {
		t.Error("correcting the class lost a life")
	}
	if got := r.View().Lives; got != 2 {
		t.Errorf("lives = %d, want 2", got)
	}
}

func TestGroupPropagation(t *testing.T) {
	r, _ := newTestRound(t, nil)
	_ = r.SelectPoem(groupPoem())

	lost, err := r.AssignClass(1, "Verbe")
	if err != nil {
		t.Fatalf("AssignClass: %v", err)
	}
	if !lost {
		t.Fatal("wrong class on a group member should cost a life")
	}
	v := r.View()
	for _, w := range v.Words[:3] {
		if w.Class != "Verbe" {
			t.Errorf("%q class = %q, want propagated Verbe", w.Text, w.Class)
		}
	}
	if v.Words[3].Class != "" {
		t.Errorf("ungrouped word changed: %q", v.Words[3].Class)
	}
	if v.Lives != 2 {
		t.Errorf("lives = %d, want exactly one loss for the group action", v.Lives)
	}
	if lost, _ := r.AssignClass(2, "Nom"); lost {
		t.Error("member already set by propagation should not lose a life")
	}
}

func TestAssignClassRejections(t *testing.T) {
	r, _ := newTestRound(t, nil)
	if _, err := r.AssignClass(0, "Nom"); !errors.Is(err, ErrWrongStep) {
		t.Errorf("before poem: %v, want ErrWrongStep", err)
	}
	_ = r.SelectPoem(hiPoem())
	if _, err := r.AssignClass(5, "Nom"); !errors.Is(err, ErrUnknownWord) {
		t.Errorf("bad index: %v, want ErrUnknownWord", err)
	}
	if _, err := r.AssignClass(0, "Animal"); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("bad class: %v, want ErrUnknownClass", err)
	}
	if err := r.ProceedToStep3(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("ProceedToStep3 unclassified: %v, want ErrIncomplete", err)
	}
}

func TestLetterReuse(t *testing.T) {
	r, _ := newTestRound(t, nil)
	toMystery(t, r, hiPoem())
	h := paletteID(t, r, "H")

	a, err := r.DropLetter(h)
	if err != nil {
		t.Fatalf("first drop: %v", err)
	}
	b, err := r.DropLetter(h)
	if err != nil {
		t.Fatalf("second drop: %v", err)
	}
	if a.ID == b.ID || a.ID == h || b.ID == h {
		t.Fatalf("ids not distinct: palette=%s a=%s b=%s", h, a.ID, b.ID)
	}
	if _, err := r.DropLetter(h); !errors.Is(err, ErrSlotsFull) {
		t.Errorf("third drop = %v, want ErrSlotsFull", err)
	}

	if err := r.RemoveLetter(a.ID); err != nil {
		t.Fatalf("RemoveLetter: %v", err)
	}
	v := r.View()
	if len(v.Dropped) != 1 || v.Dropped[0].ID != b.ID {
		t.Fatalf("dropped = %+v, want only %s", v.Dropped, b.ID)
	}
	if paletteID(t, r, "H") != h {
		t.Error("palette source changed after remove")
	}
	if err := r.RemoveLetter("nope"); !errors.Is(err, ErrUnknownLetter) {
		t.Errorf("RemoveLetter(nope) = %v, want ErrUnknownLetter", err)
	}
	if _, err := r.DropLetter("nope"); !errors.Is(err, ErrUnknownLetter) {
		t.Errorf("DropLetter(nope) = %v, want ErrUnknownLetter", err)
	}
}

func TestCheckWordRequiresAllSlots(t *testing.T) {
	r, _ := newTestRound(t, nil)
	toMystery(t, r, hiPoem())
	dropWord(t, r, "H")
	if _, err := r.CheckWord(); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("CheckWord = %v, want ErrIncomplete", err)
	}
	if got := r.View().Lives; got != 3 {
		t.Errorf("lives = %d, want untouched 3", got)
	}
}

func TestScenarioDThreeMissesEndTheRound(t *testing.T) {
	r, clk := newTestRound(t, nil)
	toMystery(t, r, hiPoem())

	for i := 1; i <= 3; i++ {
		clk.Advance(10 * time.Second)
		dropWord(t, r, "IH")
		ok, err := r.CheckWord()
		if err != nil || ok {
			t.Fatalf("attempt %d = %v, %v; want miss", i, ok, err)
		}
		if got := len(r.View().Dropped); got != 0 {
			t.Fatalf("attempt %d left %d dropped letters", i, got)
		}
	}
	v := r.View()
	if v.Lives != 0 || !v.IsOver || v.State != "lost" {
		t.Fatalf("after 3 misses: lives=%d over=%v state=%s", v.Lives, v.IsOver, v.State)
	}
	frozen := v.ElapsedSeconds

	// Game-over lock: nothing but reset changes the round.
	if _, err := r.CheckWord(); !errors.Is(err, ErrGameOver) {
		t.Errorf("4th CheckWord = %v, want ErrGameOver", err)
	}
	if _, err := r.DropLetter(v.Palette[0].ID); !errors.Is(err, ErrGameOver) {
		t.Errorf("DropLetter after over = %v, want ErrGameOver", err)
	}
	if _, err := r.AssignClass(0, "Nom"); !errors.Is(err, ErrGameOver) {
		t.Errorf("AssignClass after over = %v, want ErrGameOver", err)
	}
	clk.Advance(time.Minute)
	after := r.View()
	if after.Lives != 0 || after.Step != StepMystery || len(after.Dropped) != 0 {
		t.Errorf("state changed after game over: %+v", after)
	}
	if after.ElapsedSeconds != frozen {
		t.Errorf("clock resurrected: %d, want %d", after.ElapsedSeconds, frozen)
	}
}

func TestScenarioESuccessfulCompletion(t *testing.T) {
	rec := &captureRecorder{}
	r, clk := newTestRound(t, rec)
	_ = r.SelectPoem(hiPoem())
	if lost, _ := r.AssignClass(0, "Adverbe"); !lost {
		t.Fatal("expected a life loss")
	}
	classifyAll(t, r)
	if err := r.ProceedToStep3(); err != nil {
		t.Fatalf("ProceedToStep3: %v", err)
	}
	dropWord(t, r, "HI")
	if ok, _ := r.CheckWord(); !ok {
		t.Fatal("CheckWord should succeed")
	}
	clk.Advance(120 * time.Second)

	ok, err := r.SelectGender(context.Background(), grammar.Masculine)
	if err != nil || !ok {
		t.Fatalf("SelectGender = %v, %v", ok, err)
	}
	v := r.View()
	if !v.IsOver || !v.Won || v.State != "won" {
		t.Fatalf("over=%v won=%v state=%s", v.IsOver, v.Won, v.State)
	}
	if v.FinalScore != 1580 {
		t.Errorf("FinalScore = %d, want 1580", v.FinalScore)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("recorder called %d times, want 1", len(rec.calls))
	}
	c := rec.calls[0]
	if c.ContentID != "poem-hi" || c.Score != 1580 || c.LivesRemaining != 2 || c.ElapsedSeconds != 120 {
		t.Errorf("completion = %+v", c)
	}
	if _, err := r.SelectGender(context.Background(), grammar.Masculine); !errors.Is(err, ErrGameOver) {
		t.Errorf("second SelectGender = %v, want ErrGameOver", err)
	}
}

func TestWrongGenderCostsLifeOnce(t *testing.T) {
	rec := &captureRecorder{}
	r, _ := newTestRound(t, rec)
	toMystery(t, r, hiPoem())
	dropWord(t, r, "HI")
	_, _ = r.CheckWord()

	ok, err := r.SelectGender(context.Background(), grammar.Feminine)
	if err != nil || ok {
		t.Fatalf("SelectGender(wrong) = %v, %v", ok, err)
	}
	if _, err := r.SelectGender(context.Background(), grammar.Masculine); !errors.Is(err, ErrAlreadyAnswered) {
		t.Errorf("second answer = %v, want ErrAlreadyAnswered", err)
	}
	v := r.View()
	if v.Lives != 2 || v.IsOver || v.SelectedGender != grammar.Feminine {
		t.Errorf("lives=%d over=%v gender=%q", v.Lives, v.IsOver, v.SelectedGender)
	}
	if len(rec.calls) != 0 {
		t.Error("a wrong answer must not record progress")
	}
}

func TestRecorderFailureKeepsWin(t *testing.T) {
	rec := &captureRecorder{err: errors.New("db down")}
	r, clk := newTestRound(t, rec)
	toMystery(t, r, hiPoem())
	dropWord(t, r, "HI")
	_, _ = r.CheckWord()
	clk.Advance(30 * time.Second)

	ok, err := r.SelectGender(context.Background(), grammar.Masculine)
	if err != nil || !ok {
		t.Fatalf("SelectGender = %v, %v", ok, err)
	}
	v := r.View()
	if !v.Won || !v.IsOver || v.FinalScore != Score(3, 30) {
		t.Errorf("win reverted: %+v", v)
	}
	if v.RecordError == "" {
		t.Error("record failure should be surfaced on the view")
	}
}

func TestResetAndStartNewRound(t *testing.T) {
	r, clk := newTestRound(t, nil)
	_ = r.SelectPoem(hiPoem())
	_, _ = r.AssignClass(0, "Verbe")
	clk.Advance(5 * time.Second)

	r.Reset()
	v := r.View()
	if v.Step != StepSelectPoem || v.Lives != 3 || v.ElapsedSeconds != 0 || v.PoemID != "" {
		t.Fatalf("after Reset: %+v", v)
	}
	clk.Advance(5 * time.Second)
	if got := r.View().ElapsedSeconds; got != 0 {
		t.Errorf("clock runs after reset: %d", got)
	}

	r.StartNewRound()
	clk.Advance(7 * time.Second)
	if got := r.View().ElapsedSeconds; got != 7 {
		t.Errorf("elapsed after StartNewRound = %d, want 7", got)
	}
	_ = r.SelectPoem(hiPoem())
	clk.Advance(3 * time.Second)
	if got := r.View().ElapsedSeconds; got != 10 {
		t.Errorf("SelectPoem restarted the clock: elapsed = %d, want 10", got)
	}
}

func TestLivesNeverIncreaseOrGoNegative(t *testing.T) {
	r, _ := newTestRound(t, nil)
	toMystery(t, r, hiPoem())
	prev := r.View().Lives
	for i := 0; i < 6; i++ {
		dropWord(t, r, "II")
		_, _ = r.CheckWord()
		cur := r.View().Lives
		if cur > prev || cur < 0 {
			t.Fatalf("lives went %d -> %d", prev, cur)
		}
		prev = cur
		if r.View().IsOver {
			break
		}
	}
}

func TestPollerStopsOnClose(t *testing.T) {
	clk := newFakeClock()
	r := New("", Options{Clock: clk, IDs: ids.NewSequence("r"), Tick: time.Millisecond})
	if r.ID() != "r-1" {
		t.Errorf("generated id = %q, want r-1", r.ID())
	}
	r.StartNewRound()
	if r.stopTick == nil {
		t.Fatal("poller not started")
	}
	r.Close()
	if r.stopTick != nil {
		t.Error("Close did not stop the poller")
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		lives, elapsed, want int
	}{
		{3, 0, 0},
		{3, -5, 0},
		{3, 400, 1600},
		{0, 60, 1240},
		{2, 120, 1580},
		{3, 300, 1600},
		{1, 1, 1499},
	}
	for _, tt := range tests {
		if got := Score(tt.lives, tt.elapsed); got != tt.want {
			t.Errorf("Score(%d, %d) = %d, want %d", tt.lives, tt.elapsed, got, tt.want)
		}
	}
}
