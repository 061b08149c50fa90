// internal/game/types.go
//
// Core type definitions for the round engine.
// Defines:
//   - Step: the four stages of a round.
//   - WorkingWord: a participating word as the player classifies it.
//   - View: a read-only snapshot of a round for callers and the wire.
//   - Completion / Recorder: what leaves the round when it is won.
//   - Options: the injected ports (clock, ids, sentinels, recorder).

package game

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/mystery"
)

// Step is the current stage of a round.
type Step int

const (
	StepSelectPoem Step = iota + 1 // choose an image / poem
	StepClassify                   // assign a class to every participating word
	StepMystery                    // drop colored letters to form the mystery word
	StepGender                     // pick the mystery word's gender
)

func (s Step) String() string {
	switch s {
	case StepSelectPoem:
		return "select_poem"
	case StepClassify:
		return "classify"
	case StepMystery:
		return "mystery"
	case StepGender:
		return "gender"
	}
	return "unknown"
}

// Transition rejections. Callers compare with errors.Is.
var (
	ErrGameOver        = errors.New("round is over")
	ErrWrongStep       = errors.New("action not allowed at this step")
	ErrIncomplete      = errors.New("step is not complete")
	ErrAlreadyAnswered = errors.New("gender already answered")
	ErrUnknownWord     = errors.New("unknown word index")
	ErrUnknownClass    = errors.New("unknown grammatical class")
	ErrUnknownLetter   = errors.New("unknown letter")
	ErrSlotsFull       = errors.New("all letter slots are filled")
	ErrInvalidGender   = errors.New("gender must be masculine or feminine")
	ErrNoPoem          = errors.New("poem is required")
)

// WorkingWord is a participating word with the class the player chose.
// SourceIndex points back into the poem's word list.
type WorkingWord struct {
	SourceIndex int    `json:"sourceIndex"`
	Text        string `json:"text"`
	Class       string `json:"grammaticalClass"`
	GroupID     string `json:"groupId,omitempty"`
}

// Completion is emitted once, when the gender step is answered correctly.
type Completion struct {
	RoundID        string
	ContentID      string
	VerseLabel     string
	Score          int
	LivesRemaining int
	ElapsedSeconds int
	CompletedAt    time.Time
}

// Recorder persists completions. A failure is logged and surfaced on the
// round but never undoes the win.
type Recorder interface {
	RecordCompletion(ctx context.Context, c Completion) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, c Completion) error

func (f RecorderFunc) RecordCompletion(ctx context.Context, c Completion) error { return f(ctx, c) }

// Clock is the wall-clock source.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Options configures a round. Zero values fall back to defaults.
type Options struct {
	Owner    string        // identity the round belongs to
	Clock    Clock         // defaults to SystemClock
	IDs      ids.Generator // letter instance ids; defaults to ULID
	Model    grammar.Model // neutral color / unknown letter sentinels
	MaxLives int           // defaults to 3
	Tick     time.Duration // elapsed-time poll interval; <= 0 disables the poller
	Recorder Recorder      // optional
}

// View is a snapshot of a round. Correct answers are never included.
type View struct {
	ID             string                 `json:"id"`
	Step           Step                   `json:"step"`
	StepName       string                 `json:"stepName"`
	State          string                 `json:"state"` // "playing" | "won" | "lost"
	PoemID         string                 `json:"poemId,omitempty"`
	Image          string                 `json:"image,omitempty"`
	Verse          string                 `json:"verseText,omitempty"`
	Words          []WorkingWord          `json:"words"`
	Lives          int                    `json:"livesRemaining"`
	Palette        []mystery.PaletteEntry `json:"availableLetters"`
	Dropped        []mystery.PaletteEntry `json:"droppedLetters"`
	Slots          int                    `json:"slots"`
	FoundWord      string                 `json:"foundWord,omitempty"`
	SelectedGender grammar.Gender         `json:"selectedGender,omitempty"`
	ElapsedSeconds int                    `json:"elapsedSeconds"`
	IsOver         bool                   `json:"isOver"`
	Won            bool                   `json:"won"`
	FinalScore     int                    `json:"finalScore,omitempty"`
	RecordError    string                 `json:"recordError,omitempty"`
}
