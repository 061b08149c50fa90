// internal/httpserver/routes_poems.go
//
// Educator endpoints (content bearer required):
//   - GET    /poems             → the caller's poems
//   - POST   /poems             → validate + create
//   - PUT    /poems/{id}        → validate + update (owner only)
//   - DELETE /poems/{id}        → delete (owner only)
//   - POST   /poems/draft       → tokenize a verse into a draft poem
//   - POST   /poems/preview     → mystery-word preview + palette, no save
//   - POST   /images            → upload raw image bytes (?ttl=seconds)
//
// Saves always go through mystery.ValidatePoem; a failure is a 422 whose
// body names the field, the expected/got counts or the conflicting letter.

package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/motmystere/internal/content"
	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/identity"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/mystery"
)

const maxImageBytes = 5 << 20

func (s *Server) mountPoemRoutes() {
	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth(identity.PurposeContent))
		r.Get("/poems", s.handleListPoems)
		r.Post("/poems", s.handleCreatePoem)
		r.Put("/poems/{id}", s.handleUpdatePoem)
		r.Delete("/poems/{id}", s.handleDeletePoem)
		r.Post("/poems/draft", s.handleDraft)
		r.Post("/poems/preview", s.handlePreview)
		r.Post("/images", s.handleUploadImage)
	})
}

func (s *Server) handleListPoems(w http.ResponseWriter, r *http.Request) {
	poems, err := s.deps.Poems.List(r.Context(), identity.UserFrom(r.Context()))
	if err != nil {
		storageFailure(w, err)
		return
	}
	out := make([]content.Document, len(poems))
	for i, p := range poems {
		out[i] = content.FromPoem(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// decodePoem reads a Document body and converts it to a poem.
func decodePoem(w http.ResponseWriter, r *http.Request) (*grammar.Poem, bool) {
	var doc content.Document
	if !decodeJSON(w, r, &doc) {
		return nil, false
	}
	p, err := doc.Poem()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_poem", map[string]any{"message": err.Error()})
		return nil, false
	}
	return p, true
}

func (s *Server) handleCreatePoem(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePoem(w, r)
	if !ok {
		return
	}
	p.ID = ""
	p.OwnerID = identity.UserFrom(r.Context())
	if err := mystery.ValidatePoem(p, s.model); err != nil {
		validationFailure(w, err)
		return
	}
	if err := s.deps.Poems.Create(r.Context(), p); err != nil {
		storageFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, content.FromPoem(p))
}

// ownedPoem loads poem {id} and checks the caller owns it. Someone else's
// poem is reported as missing.
func (s *Server) ownedPoem(w http.ResponseWriter, r *http.Request) (*grammar.Poem, bool) {
	p, err := s.deps.Poems.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storageFailure(w, err)
		return nil, false
	}
	if p.OwnerID != identity.UserFrom(r.Context()) {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return nil, false
	}
	return p, true
}

func (s *Server) handleUpdatePoem(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.ownedPoem(w, r)
	if !ok {
		return
	}
	p, ok := decodePoem(w, r)
	if !ok {
		return
	}
	p.ID, p.OwnerID, p.CreatedAt = existing.ID, existing.OwnerID, existing.CreatedAt
	if err := mystery.ValidatePoem(p, s.model); err != nil {
		validationFailure(w, err)
		return
	}
	if err := s.deps.Poems.Update(r.Context(), p); err != nil {
		storageFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content.FromPoem(p))
}

func (s *Server) handleDeletePoem(w http.ResponseWriter, r *http.Request) {
	p, ok := s.ownedPoem(w, r)
	if !ok {
		return
	}
	if err := s.deps.Poems.Delete(r.Context(), p.ID); err != nil {
		storageFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type draftReq struct {
	Verse string `json:"verse_text"`
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftReq
	if !decodeJSON(w, r, &req) {
		return
	}
	p := content.NewDraft(req.Verse, s.cfg.Game.DefaultTargetWord)
	if len(p.Words) == 0 {
		writeError(w, http.StatusBadRequest, "empty_verse", nil)
		return
	}
	p.OwnerID = identity.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, content.FromPoem(p))
}

type previewRes struct {
	Letters []mystery.PreviewEntry `json:"letters"`
	Palette []mystery.PaletteEntry `json:"palette"`
	Units   int                    `json:"units"`
	Valid   bool                   `json:"valid"`
	Problem map[string]any         `json:"problem,omitempty"`
}

// handlePreview shows what players would see without saving anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePoem(w, r)
	if !ok {
		return
	}
	units := mystery.BuildUnits(p, s.model)
	res := previewRes{
		Letters: mystery.Preview(p.TargetWord, units, s.model.Neutral),
		Palette: mystery.BuildPalette(p, s.model, ids.NewSequence("preview")),
		Units:   len(units),
		Valid:   true,
	}
	if err := mystery.ValidatePoem(p, s.model); err != nil {
		res.Valid = false
		res.Problem = validationDetail(err)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Images == nil {
		writeError(w, http.StatusServiceUnavailable, "images_disabled", nil)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", map[string]any{"max": maxImageBytes})
		return
	}
	ttl, _ := strconv.Atoi(r.URL.Query().Get("ttl"))
	url, err := s.deps.Images.Upload(r.Context(), data, ttl)
	if err != nil {
		if errors.Is(err, content.ErrNotImage) {
			writeError(w, http.StatusBadRequest, "not_image", map[string]any{"message": err.Error()})
			return
		}
		writeError(w, http.StatusBadGateway, "upload_failed", map[string]any{"message": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// validationDetail flattens an authoring error into a JSON body.
func validationDetail(err error) map[string]any {
	var (
		lm *mystery.LengthMismatchError
		cc *mystery.ColorConflictError
		pe *mystery.PoemError
	)
	switch {
	case errors.As(err, &lm):
		return map[string]any{"error": "length_mismatch", "message": err.Error(), "expected": lm.Expected, "got": lm.Got}
	case errors.As(err, &cc):
		return map[string]any{"error": "color_conflict", "message": err.Error(), "letter": cc.Letter,
			"first": cc.First, "conflicting": cc.Conflicting}
	case errors.As(err, &pe):
		return map[string]any{"error": "invalid_poem", "message": pe.Message, "field": pe.Field}
	}
	return map[string]any{"error": "invalid_poem", "message": err.Error()}
}

func validationFailure(w http.ResponseWriter, err error) {
	d := validationDetail(err)
	code, _ := d["error"].(string)
	delete(d, "error")
	writeError(w, http.StatusUnprocessableEntity, code, d)
}
