// internal/httpserver/routes_rounds.go
//
// Play endpoints (optional auth; guests play under their device id):
//   - GET    /play/poems                       → poems to pick from (no answers)
//   - GET    /play/daily                       → poem of the day
//   - POST   /rounds                           → start a round
//   - GET    /rounds/{id}                      → round view
//   - POST   /rounds/{id}/poem                 → step 1: pick a poem
//   - POST   /rounds/{id}/classes              → step 2: classify a word
//   - POST   /rounds/{id}/step3                → step 2 → 3
//   - POST   /rounds/{id}/letters              → step 3: drop a palette letter
//   - DELETE /rounds/{id}/letters/{letterId}   → step 3: take a letter back
//   - POST   /rounds/{id}/check                → step 3: check the word
//   - POST   /rounds/{id}/gender               → step 4: answer the gender
//   - POST   /rounds/{id}/reset                → back to step 1
//
// Rounds are only visible to the identity that started them. Rejected
// transitions answer 409, bad input 400; the body always carries the
// current round view when one exists.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/motmystere/internal/content"
	"github.com/robalobadob/motmystere/internal/daily"
	"github.com/robalobadob/motmystere/internal/game"
	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/mystery"
	"github.com/robalobadob/motmystere/internal/store"
)

func (s *Server) mountRoundRoutes() {
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth)
		r.Get("/play/poems", s.handlePlayPoems)
		r.Get("/play/daily", s.handleDailyPoem)
		r.Post("/rounds", s.handleNewRound)
		r.Route("/rounds/{id}", func(r chi.Router) {
			r.Get("/", s.withRound(s.handleGetRound))
			r.Post("/poem", s.withRound(s.handleSelectPoem))
			r.Post("/classes", s.withRound(s.handleAssignClass))
			r.Post("/step3", s.withRound(s.handleStep3))
			r.Post("/letters", s.withRound(s.handleDropLetter))
			r.Delete("/letters/{letterId}", s.withRound(s.handleRemoveLetter))
			r.Post("/check", s.withRound(s.handleCheckWord))
			r.Post("/gender", s.withRound(s.handleGender))
			r.Post("/reset", s.withRound(s.handleReset))
		})
	})
}

type poemSummary struct {
	ID    string `json:"id"`
	Image string `json:"image,omitempty"`
	Label string `json:"label"`
	Slots int    `json:"slots"`
}

func (s *Server) handlePlayPoems(w http.ResponseWriter, r *http.Request) {
	poems, err := s.deps.Poems.List(r.Context(), "")
	if err != nil {
		storageFailure(w, err)
		return
	}
	out := make([]poemSummary, 0, len(poems))
	for _, p := range poems {
		out = append(out, poemSummary{ID: p.ID, Image: p.Image, Label: p.Label(), Slots: len([]rune(p.TargetWord))})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDailyPoem(w http.ResponseWriter, r *http.Request) {
	poems, err := s.deps.Poems.List(r.Context(), "")
	if err != nil {
		storageFailure(w, err)
		return
	}
	now := s.deps.Clock()
	p := daily.Pick(now, s.cfg.DailySalt, poems)
	if p == nil {
		writeError(w, http.StatusNotFound, "no_poems", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date": daily.DateKey(now),
		"poem": poemSummary{ID: p.ID, Image: p.Image, Label: p.Label(), Slots: len([]rune(p.TargetWord))},
	})
}

type newRoundReq struct {
	PoemID string `json:"poemId"`
}

func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	who := s.who(w, r)
	opts := game.Options{
		Owner:    ownerKey(who),
		IDs:      ids.ULID{},
		Model:    s.model,
		MaxLives: s.cfg.Game.MaxLives,
		Tick:     s.cfg.Game.Tick,
	}
	if s.deps.Progress != nil {
		opts.Recorder = s.deps.Progress.For(who)
	}
	round := game.New("", opts)

	if req.PoemID != "" {
		p, err := s.deps.Poems.Get(r.Context(), req.PoemID)
		if err != nil {
			round.Close()
			storageFailure(w, err)
			return
		}
		if err := round.SelectPoem(p); err != nil {
			round.Close()
			roundFailure(w, err, round)
			return
		}
	}
	if err := s.deps.Rounds.Save(r.Context(), round); err != nil {
		round.Close()
		writeError(w, http.StatusInternalServerError, "save_failed", nil)
		return
	}
	writeJSON(w, http.StatusCreated, round.View())
}

type roundHandler func(w http.ResponseWriter, r *http.Request, round *game.Round)

// withRound loads round {id} and checks it belongs to the caller.
func (s *Server) withRound(h roundHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := s.deps.Rounds.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) || (err == nil && round.Owner() != ownerKey(s.who(w, r))) {
			writeError(w, http.StatusNotFound, "round_not_found", nil)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load_failed", nil)
			return
		}
		h(w, r, round)
	}
}

// roundFailure maps engine rejections to HTTP.
func roundFailure(w http.ResponseWriter, err error, round *game.Round) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrWrongStep),
		errors.Is(err, game.ErrIncomplete),
		errors.Is(err, game.ErrAlreadyAnswered),
		errors.Is(err, game.ErrSlotsFull):
		status = http.StatusConflict
	}
	writeError(w, status, "rejected", map[string]any{"message": err.Error(), "round": round.View()})
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request, round *game.Round) {
	writeJSON(w, http.StatusOK, round.View())
}

type selectPoemReq struct {
	PoemID string `json:"poemId"`
}

func (s *Server) handleSelectPoem(w http.ResponseWriter, r *http.Request, round *game.Round) {
	var req selectPoemReq
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.deps.Poems.Get(r.Context(), req.PoemID)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			writeError(w, http.StatusNotFound, "poem_not_found", nil)
			return
		}
		storageFailure(w, err)
		return
	}
	if err := round.SelectPoem(p); err != nil {
		roundFailure(w, err, round)
		return
	}
	writeJSON(w, http.StatusOK, round.View())
}

type assignClassReq struct {
	Index int    `json:"index"`
	Class string `json:"grammaticalClass"`
}

func (s *Server) handleAssignClass(w http.ResponseWriter, r *http.Request, round *game.Round) {
	var req assignClassReq
	if !decodeJSON(w, r, &req) {
		return
	}
	lost, err := round.AssignClass(req.Index, req.Class)
	if err != nil {
		roundFailure(w, err, round)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lifeLost": lost, "round": round.View()})
}

func (s *Server) handleStep3(w http.ResponseWriter, r *http.Request, round *game.Round) {
	if err := round.ProceedToStep3(); err != nil {
		roundFailure(w, err, round)
		return
	}
	writeJSON(w, http.StatusOK, round.View())
}

type dropLetterReq struct {
	PaletteID string `json:"paletteId"`
}

func (s *Server) handleDropLetter(w http.ResponseWriter, r *http.Request, round *game.Round) {
	var req dropLetterReq
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := round.DropLetter(req.PaletteID)
	if err != nil {
		roundFailure(w, err, round)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Letter mystery.PaletteEntry `json:"letter"`
		Round  game.View            `json:"round"`
	}{e, round.View()})
}

func (s *Server) handleRemoveLetter(w http.ResponseWriter, r *http.Request, round *game.Round) {
	if err := round.RemoveLetter(chi.URLParam(r, "letterId")); err != nil {
		roundFailure(w, err, round)
		return
	}
	writeJSON(w, http.StatusOK, round.View())
}

func (s *Server) handleCheckWord(w http.ResponseWriter, r *http.Request, round *game.Round) {
	ok, err := round.CheckWord()
	if err != nil {
		roundFailure(w, err, round)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"correct": ok, "round": round.View()})
}

type genderReq struct {
	Gender string `json:"gender"`
}

func (s *Server) handleGender(w http.ResponseWriter, r *http.Request, round *game.Round) {
	var req genderReq
	if !decodeJSON(w, r, &req) {
		return
	}
	g, ok := grammar.ParseGender(req.Gender)
	if !ok {
		roundFailure(w, game.ErrInvalidGender, round)
		return
	}
	correct, err := round.SelectGender(r.Context(), g)
	if err != nil {
		roundFailure(w, err, round)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"correct": correct, "round": round.View()})
}

type resetReq struct {
	StartClock bool `json:"startClock"`
}

// handleReset returns the round to step 1; startClock starts a new round
// with its clock running immediately.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, round *game.Round) {
	var req resetReq
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.StartClock {
		round.StartNewRound()
	} else {
		round.Reset()
	}
	writeJSON(w, http.StatusOK, round.View())
}
