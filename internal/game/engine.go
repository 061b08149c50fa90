// internal/game/engine.go
//
// Round engine for a single play session.
// Responsibilities:
//   - Drive the four steps: poem → classes → mystery word → gender.
//   - Account for lives through a single loseLife chokepoint.
//   - Keep the elapsed-time clock and stop it when the round ends.
//   - Compute the final score and hand the completion to the Recorder.
//
// Notes:
//   - Every transition is synchronous over in-memory state, guarded by mu.
//   - Once the round is over only Reset and StartNewRound are accepted.
//   - The poem is cloned on selection; the round never mutates content.
package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/mystery"
)

const defaultMaxLives = 3

// Round holds the state of one play session.
type Round struct {
	mu   sync.Mutex
	id   string
	opts Options

	step     Step
	poem     *grammar.Poem
	snapshot []grammar.Word // correct answers, indexed like poem.Words
	working  []WorkingWord
	lives    int
	palette  []mystery.PaletteEntry
	dropped  []mystery.PaletteEntry
	gender   grammar.Gender
	found    string

	started  time.Time
	elapsed  int
	stopTick context.CancelFunc

	over      bool
	won       bool
	score     int
	recordErr error

	lastActive time.Time
}

// New constructs a round at step 1 with full lives. An empty id is
// replaced by one from opts.IDs.
func New(id string, opts Options) *Round {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = ids.ULID{}
	}
	if opts.MaxLives <= 0 {
		opts.MaxLives = defaultMaxLives
	}
	if opts.Model.Unknown == "" {
		opts.Model.Unknown = "X"
	}
	if id == "" {
		id = opts.IDs.NewID()
	}
	r := &Round{id: id, opts: opts}
	r.resetLocked()
	return r
}

func (r *Round) ID() string    { return r.id }
func (r *Round) Owner() string { return r.opts.Owner }

// LastActive reports when the round last changed.
func (r *Round) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// SelectPoem starts the round on p. Only the first selection since the
// last reset starts the clock.
func (r *Round) SelectPoem(p *grammar.Poem) error {
	if p == nil {
		return ErrNoPoem
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guardLocked(StepSelectPoem); err != nil {
		return err
	}
	r.touchLocked()

	r.poem = p.Clone()
	r.snapshot = append([]grammar.Word(nil), p.Words...)
	r.working = r.working[:0]
	for _, idx := range r.poem.ParticipatingWordIndices {
		if idx < 0 || idx >= len(r.poem.Words) {
			continue
		}
		ww := WorkingWord{SourceIndex: idx, Text: r.poem.Words[idx].Text}
		if g := r.poem.GroupOfIndex(idx); g != nil {
			ww.GroupID = g.ID
		}
		r.working = append(r.working, ww)
	}
	if r.started.IsZero() {
		r.startClockLocked()
	}
	r.step = StepClassify
	return nil
}

// AssignClass sets the class of working word i and propagates it to the
// other in-round members of its group. A wrong first assignment costs one
// life for the whole action; reassignments never do.
func (r *Round) AssignClass(i int, class string) (lifeLost bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guardLocked(StepClassify); err != nil {
		return false, err
	}
	if i < 0 || i >= len(r.working) {
		return false, ErrUnknownWord
	}
	if !grammar.IsClass(class) {
		return false, ErrUnknownClass
	}
	r.touchLocked()

	w := &r.working[i]
	first := w.Class == ""
	w.Class = class
	if w.GroupID != "" {
		for j := range r.working {
			if j != i && r.working[j].GroupID == w.GroupID {
				r.working[j].Class = class
			}
		}
	}
	if first && class != r.snapshot[w.SourceIndex].Class {
		r.loseLifeLocked()
		return true, nil
	}
	return false, nil
}

// ProceedToStep3 builds the palette once every word is classified.
func (r *Round) ProceedToStep3() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guardLocked(StepClassify); err != nil {
		return err
	}
	for _, w := range r.working {
		if w.Class == "" {
			return ErrIncomplete
		}
	}
	r.touchLocked()
	r.palette = mystery.BuildPalette(r.poem, r.opts.Model, r.opts.IDs)
	r.dropped = nil
	r.step = StepMystery
	return nil
}

// DropLetter places a copy of palette entry paletteID in the next slot.
// The palette entry stays available for reuse.
func (r *Round) DropLetter(paletteID string) (mystery.PaletteEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guardLocked(StepMystery); err != nil {
		return mystery.PaletteEntry{}, err
	}
	if len(r.dropped) >= r.slotsLocked() {
		return mystery.PaletteEntry{}, ErrSlotsFull
	}
	for _, e := range r.palette {
		if e.ID == paletteID {
			r.touchLocked()
			e.ID = r.opts.IDs.NewID()
			r.dropped = append(r.dropped, e)
			return e, nil
		}
	}
	return mystery.PaletteEntry{}, ErrUnknownLetter
}

// RemoveLetter takes a dropped letter back out by its instance id.
func (r *Round) RemoveLetter(droppedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guardLocked(StepMystery); err != nil {
		return err
	}
	for i, e := range r.dropped {
		if e.ID == droppedID {
			r.touchLocked()
			r.dropped = append(r.dropped[:i], r.dropped[i+1:]...)
			return nil
		}
	}
	return ErrUnknownLetter
}

// CheckWord compares the filled slots with the mystery word. A miss costs
// a life and empties the slots.
func (r *Round) CheckWord() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guardLocked(StepMystery); err != nil {
		return false, err
	}
	if len(r.dropped) != r.slotsLocked() {
		return false, ErrIncomplete
	}
	r.touchLocked()

	var b strings.Builder
	for _, e := range r.dropped {
		b.WriteString(e.Letter)
	}
	if b.String() == strings.ToUpper(r.poem.TargetWord) {
		r.found = b.String()
		r.step = StepGender
		return true, nil
	}
	r.loseLifeLocked()
	r.dropped = nil
	return false, nil
}

// SelectGender answers the last step. It is accepted once per round. The
// right answer stops the clock, scores the round, ends it and records the
// completion; a recording failure is logged and kept on the round.
func (r *Round) SelectGender(ctx context.Context, g grammar.Gender) (bool, error) {
	c, correct, err := r.answerGender(g)
	if err != nil || !correct {
		return correct, err
	}
	if r.opts.Recorder == nil {
		return true, nil
	}
	if rerr := r.opts.Recorder.RecordCompletion(ctx, c); rerr != nil {
		log.Warn().Err(rerr).Str("round", r.id).Str("owner", r.opts.Owner).Str("poem", c.ContentID).
			Msg("record completion")
		r.mu.Lock()
		r.recordErr = rerr
		r.mu.Unlock()
	}
	return true, nil
}

func (r *Round) answerGender(g grammar.Gender) (Completion, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.guardLocked(StepGender); err != nil {
		return Completion{}, false, err
	}
	if r.gender != "" {
		return Completion{}, false, ErrAlreadyAnswered
	}
	if g != grammar.Masculine && g != grammar.Feminine {
		return Completion{}, false, ErrInvalidGender
	}
	r.touchLocked()
	r.gender = g
	if g != r.poem.TargetGender {
		r.loseLifeLocked()
		return Completion{}, false, nil
	}

	r.stopClockLocked()
	r.score = Score(r.lives, r.elapsed)
	r.over, r.won = true, true
	return Completion{
		RoundID:        r.id,
		ContentID:      r.poem.ID,
		VerseLabel:     r.poem.Label(),
		Score:          r.score,
		LivesRemaining: r.lives,
		ElapsedSeconds: r.elapsed,
		CompletedAt:    r.opts.Clock.Now().UTC(),
	}, true, nil
}

// Reset returns the round to step 1 with full lives and a stopped clock.
func (r *Round) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// StartNewRound resets and immediately starts the clock.
func (r *Round) StartNewRound() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
	r.startClockLocked()
}

// Close stops the clock poller. The round stays readable.
func (r *Round) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopTick != nil {
		r.stopTick()
		r.stopTick = nil
	}
}

// View returns a snapshot of the round.
func (r *Round) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncClockLocked()

	v := View{
		ID:             r.id,
		Step:           r.step,
		StepName:       r.step.String(),
		State:          r.stateLocked(),
		Words:          append([]WorkingWord{}, r.working...),
		Lives:          r.lives,
		Palette:        append([]mystery.PaletteEntry{}, r.palette...),
		Dropped:        append([]mystery.PaletteEntry{}, r.dropped...),
		FoundWord:      r.found,
		SelectedGender: r.gender,
		ElapsedSeconds: r.elapsed,
		IsOver:         r.over,
		Won:            r.won,
		FinalScore:     r.score,
	}
	if r.poem != nil {
		v.PoemID = r.poem.ID
		v.Image = r.poem.Image
		v.Verse = r.poem.Verse
		v.Slots = r.slotsLocked()
	}
	if r.recordErr != nil {
		v.RecordError = r.recordErr.Error()
	}
	return v
}

// ----------------------------- internals -----------------------------------

func (r *Round) guardLocked(step Step) error {
	if r.over {
		return ErrGameOver
	}
	if r.step != step {
		return ErrWrongStep
	}
	return nil
}

// loseLifeLocked is the only place lives go down.
func (r *Round) loseLifeLocked() {
	if r.over {
		return
	}
	r.lives--
	if r.lives < 0 {
		r.lives = 0
	}
	if r.lives == 0 {
		r.stopClockLocked()
		r.over = true
	}
}

func (r *Round) slotsLocked() int {
	if r.poem == nil {
		return 0
	}
	return len([]rune(r.poem.TargetWord))
}

// stateLocked reports "playing", "won" or "lost".
func (r *Round) stateLocked() string {
	if r.over {
		if r.won {
			return "won"
		}
		return "lost"
	}
	return "playing"
}

func (r *Round) touchLocked() {
	r.syncClockLocked()
	r.lastActive = r.opts.Clock.Now()
}

func (r *Round) resetLocked() {
	if r.stopTick != nil {
		r.stopTick()
		r.stopTick = nil
	}
	r.step = StepSelectPoem
	r.poem = nil
	r.snapshot = nil
	r.working = nil
	r.lives = r.opts.MaxLives
	r.palette = nil
	r.dropped = nil
	r.gender = ""
	r.found = ""
	r.started = time.Time{}
	r.elapsed = 0
	r.over, r.won = false, false
	r.score = 0
	r.recordErr = nil
	r.lastActive = r.opts.Clock.Now()
}
