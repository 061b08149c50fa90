package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/motmystere/internal/config"
	"github.com/robalobadob/motmystere/internal/content"
	"github.com/robalobadob/motmystere/internal/game"
	"github.com/robalobadob/motmystere/internal/grammar"
	"github.com/robalobadob/motmystere/internal/identity"
	"github.com/robalobadob/motmystere/internal/ids"
	"github.com/robalobadob/motmystere/internal/progress"
	"github.com/robalobadob/motmystere/internal/store"
)

// memPoems is an in-memory PoemStore.
type memPoems struct {
	mu    sync.Mutex
	ids   ids.Generator
	poems map[string]*grammar.Poem
	order []string
}

func newMemPoems() *memPoems {
	return &memPoems{ids: ids.NewSequence("poem"), poems: map[string]*grammar.Poem{}}
}

func (m *memPoems) List(_ context.Context, owner string) ([]*grammar.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*grammar.Poem{}
	for _, id := range m.order {
		if p, ok := m.poems[id]; ok && (owner == "" || p.OwnerID == owner) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *memPoems) Get(_ context.Context, id string) (*grammar.Poem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.poems[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memPoems) Create(_ context.Context, p *grammar.Poem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.ids.NewID()
	m.poems[p.ID] = p.Clone()
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memPoems) Update(_ context.Context, p *grammar.Poem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.poems[p.ID]; !ok {
		return content.ErrNotFound
	}
	m.poems[p.ID] = p.Clone()
	return nil
}

func (m *memPoems) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.poems[id]; !ok {
		return content.ErrNotFound
	}
	delete(m.poems, id)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		ClientOrigin: "http://localhost:5173",
		CookieName:   "motmystere_token",
		AnonCookie:   "motmystere_device",
		ImageStore:   "none",
		Game: config.Game{
			DefaultTargetWord: config.DefaultTargetWord,
			NeutralColor:      config.DefaultNeutralColor,
			UnknownLetter:     config.DefaultUnknownLetter,
			MaxLives:          config.DefaultMaxLives,
		},
	}
}

type harness struct {
	t      *testing.T
	srv    *Server
	tokens *identity.Issuer
	poems  *memPoems
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testConfig()
	tokens := identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	poems := newMemPoems()
	srv := New(Deps{
		Config:   cfg,
		Rounds:   store.NewMemoryStore(),
		Poems:    poems,
		Progress: progress.NewService(progress.NewGuestStore(progress.NewMemoryKV()), nil, ids.NewSequence("rec")),
		Tokens:   tokens,
		IDs:      ids.NewSequence("device"),
	})
	return &harness{t: t, srv: srv, tokens: tokens, poems: poems}
}

func (h *harness) token(user, purpose string) string {
	h.t.Helper()
	tok, _, err := h.tokens.Token(user, purpose)
	if err != nil {
		h.t.Fatalf("Token: %v", err)
	}
	return tok
}

// client replays cookies and an optional bearer like a browser would.
type client struct {
	h       *harness
	bearer  string
	cookies map[string]*http.Cookie
}

func (h *harness) client(bearer string) *client {
	return &client{h: h, bearer: bearer, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.h.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.h.srv.Router().ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			c.h.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

// hiDocument: "Le hibou chante", hibou (Nom, red) and chante (Verbe, blue)
// spell HI, masculine.
func hiDocument() content.Document {
	return content.Document{
		Verse: "Le hibou chante",
		Words: []content.WordDoc{
			{Text: "Le", Class: "Déterminant"},
			{Text: "hibou", Class: "Nom", IsSelected: true},
			{Text: "chante", Class: "Verbe", IsSelected: true},
		},
		Groups:        []content.GroupDoc{},
		Participating: []int{1, 2},
		TargetWord:    "HI",
		TargetGender:  "masculine",
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	var body map[string]any
	if code := h.client("").do("GET", "/health", nil, &body); code != http.StatusOK || body["ok"] != true {
		t.Fatalf("health = %d %v", code, body)
	}
}

func TestPoemRoutesRequireContentToken(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name   string
		bearer string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"play token", h.token("edu", identity.PurposePlay), http.StatusUnauthorized},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized},
		{"content token", h.token("edu", identity.PurposeContent), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := h.client(tc.bearer).do("GET", "/poems", nil, nil); code != tc.want {
				t.Errorf("GET /poems = %d, want %d", code, tc.want)
			}
		})
	}
}

func TestCreatePoemValidation(t *testing.T) {
	h := newHarness(t)
	edu := h.client(h.token("edu", identity.PurposeContent))

	short := hiDocument()
	short.TargetWord = "H"
	var problem map[string]any
	if code := edu.do("POST", "/poems", short, &problem); code != http.StatusUnprocessableEntity {
		t.Fatalf("short target = %d %v", code, problem)
	}
	if problem["error"] != "length_mismatch" || problem["expected"] != float64(2) || problem["got"] != float64(1) {
		t.Errorf("length problem = %v", problem)
	}

	noGender := hiDocument()
	noGender.TargetGender = ""
	problem = nil
	if code := edu.do("POST", "/poems", noGender, &problem); code != http.StatusUnprocessableEntity || problem["field"] != "targetWordGender" {
		t.Errorf("missing gender = %d %v", code, problem)
	}

	var created content.Document
	if code := edu.do("POST", "/poems", hiDocument(), &created); code != http.StatusCreated {
		t.Fatalf("create = %d", code)
	}
	if created.ID == "" || created.OwnerID != "edu" {
		t.Errorf("created = %+v", created)
	}
}

func TestPoemOwnership(t *testing.T) {
	h := newHarness(t)
	alice := h.client(h.token("alice", identity.PurposeContent))
	bob := h.client(h.token("bob", identity.PurposeContent))

	var doc content.Document
	alice.do("POST", "/poems", hiDocument(), &doc)

	var list []content.Document
	bob.do("GET", "/poems", nil, &list)
	if len(list) != 0 {
		t.Errorf("bob sees %d poems", len(list))
	}
	if code := bob.do("DELETE", "/poems/"+doc.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("bob delete = %d, want 404", code)
	}

	doc.TargetWord = "HI"
	doc.TargetGender = "feminine"
	var updated content.Document
	if code := alice.do("PUT", "/poems/"+doc.ID, doc, &updated); code != http.StatusOK || updated.TargetGender != "feminine" {
		t.Errorf("alice update = %d %+v", code, updated)
	}
	if code := alice.do("DELETE", "/poems/"+doc.ID, nil, nil); code != http.StatusOK {
		t.Errorf("alice delete = %d", code)
	}
}

func TestDraftAndPreview(t *testing.T) {
	h := newHarness(t)
	edu := h.client(h.token("edu", identity.PurposeContent))

	var draft content.Document
	if code := edu.do("POST", "/poems/draft", map[string]string{"verse_text": "Le chat dort."}, &draft); code != http.StatusOK {
		t.Fatalf("draft = %d", code)
	}
	if draft.TargetWord != "HORAIRE" || len(draft.Words) != 3 || draft.Words[1].Class != "Nom" {
		t.Errorf("draft = %+v", draft)
	}

	var prev previewRes
	doc := hiDocument()
	doc.TargetWord = "HIX"
	if code := edu.do("POST", "/poems/preview", doc, &prev); code != http.StatusOK {
		t.Fatalf("preview = %d", code)
	}
	if prev.Valid || prev.Units != 2 || len(prev.Letters) != 3 || prev.Letters[2].IsValid {
		t.Errorf("preview = %+v", prev)
	}
	if prev.Problem["error"] != "length_mismatch" {
		t.Errorf("preview problem = %v", prev.Problem)
	}
	if len(prev.Palette) != 26 {
		t.Errorf("palette has %d letters", len(prev.Palette))
	}
}

func letterID(t *testing.T, v game.View, letter string) string {
	t.Helper()
	for _, e := range v.Palette {
		if e.Letter == letter {
			return e.ID
		}
	}
	t.Fatalf("letter %s not in palette", letter)
	return ""
}

func TestGuestPlaysFullRound(t *testing.T) {
	h := newHarness(t)
	edu := h.client(h.token("edu", identity.PurposeContent))
	var doc content.Document
	edu.do("POST", "/poems", hiDocument(), &doc)

	guest := h.client("")
	var list []poemSummary
	guest.do("GET", "/play/poems", nil, &list)
	if len(list) != 1 || list[0].ID != doc.ID || list[0].Slots != 2 {
		t.Fatalf("play poems = %+v", list)
	}

	var v game.View
	if code := guest.do("POST", "/rounds", nil, &v); code != http.StatusCreated || v.Step != game.StepSelectPoem {
		t.Fatalf("new round = %d %+v", code, v)
	}
	if guest.cookies["motmystere_device"] == nil {
		t.Fatal("guest device cookie not set")
	}
	base := "/rounds/" + v.ID

	guest.do("POST", base+"/poem", map[string]string{"poemId": doc.ID}, &v)
	if v.Step != game.StepClassify || len(v.Words) != 2 {
		t.Fatalf("after poem: %+v", v)
	}

	// step3 before classifying is rejected
	var rej map[string]any
	if code := guest.do("POST", base+"/step3", nil, &rej); code != http.StatusConflict {
		t.Errorf("early step3 = %d", code)
	}

	var cls struct {
		LifeLost bool      `json:"lifeLost"`
		Round    game.View `json:"round"`
	}
	guest.do("POST", base+"/classes", map[string]any{"index": 0, "grammaticalClass": "Verbe"}, &cls)
	if !cls.LifeLost || cls.Round.Lives != 2 {
		t.Errorf("wrong class: %+v", cls)
	}
	guest.do("POST", base+"/classes", map[string]any{"index": 0, "grammaticalClass": "Nom"}, &cls)
	guest.do("POST", base+"/classes", map[string]any{"index": 1, "grammaticalClass": "Verbe"}, &cls)
	if cls.LifeLost || cls.Round.Lives != 2 {
		t.Errorf("right class: %+v", cls)
	}

	if code := guest.do("POST", base+"/step3", nil, &v); code != http.StatusOK || v.Step != game.StepMystery {
		t.Fatalf("step3 = %d %+v", code, v)
	}
	for _, l := range []string{"H", "I"} {
		guest.do("POST", base+"/letters", map[string]string{"paletteId": letterID(t, v, l)}, nil)
	}
	var check struct {
		Correct bool      `json:"correct"`
		Round   game.View `json:"round"`
	}
	guest.do("POST", base+"/check", nil, &check)
	if !check.Correct || check.Round.FoundWord != "HI" || check.Round.Step != game.StepGender {
		t.Fatalf("check = %+v", check)
	}

	var gender struct {
		Correct bool      `json:"correct"`
		Round   game.View `json:"round"`
	}
	if code := guest.do("POST", base+"/gender", map[string]string{"gender": "neutre"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad gender = %d", code)
	}
	guest.do("POST", base+"/gender", map[string]string{"gender": "masculin"}, &gender)
	if !gender.Correct || !gender.Round.Won || gender.Round.State != "won" {
		t.Fatalf("gender = %+v", gender)
	}

	var stats statsRes
	guest.do("GET", "/stats/me", nil, &stats)
	if !stats.Guest || !stats.Recorded || stats.Stats.TotalRounds != 1 || len(stats.History) != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.History[0].ContentID != doc.ID || stats.History[0].LivesRemaining != 2 {
		t.Errorf("history = %+v", stats.History)
	}
}

func TestDailyPoem(t *testing.T) {
	h := newHarness(t)
	var miss map[string]any
	if code := h.client("").do("GET", "/play/daily", nil, &miss); code != http.StatusNotFound {
		t.Errorf("empty library = %d", code)
	}

	edu := h.client(h.token("edu", identity.PurposeContent))
	edu.do("POST", "/poems", hiDocument(), nil)
	edu.do("POST", "/poems", hiDocument(), nil)

	var first, second struct {
		Date string      `json:"date"`
		Poem poemSummary `json:"poem"`
	}
	h.client("").do("GET", "/play/daily", nil, &first)
	h.client("").do("GET", "/play/daily", nil, &second)
	if first.Poem.ID == "" || first.Poem.ID != second.Poem.ID || first.Date == "" {
		t.Errorf("daily = %+v then %+v", first, second)
	}
}

func TestRoundsArePrivate(t *testing.T) {
	h := newHarness(t)
	alice := h.client("")
	var v game.View
	alice.do("POST", "/rounds", nil, &v)

	mallory := h.client("")
	if code := mallory.do("GET", "/rounds/"+v.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("other guest GET = %d, want 404", code)
	}
	if code := alice.do("GET", "/rounds/"+v.ID, nil, nil); code != http.StatusOK {
		t.Errorf("owner GET = %d", code)
	}

	player := h.client(h.token("p1", identity.PurposePlay))
	var pv game.View
	player.do("POST", "/rounds", nil, &pv)
	if code := h.client(h.token("p2", identity.PurposePlay)).do("GET", "/rounds/"+pv.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("other user GET = %d, want 404", code)
	}
}

func TestResetAndUnknownRound(t *testing.T) {
	h := newHarness(t)
	c := h.client("")
	if code := c.do("GET", "/rounds/nope", nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown round = %d", code)
	}
	var v game.View
	c.do("POST", "/rounds", nil, &v)
	if code := c.do("POST", "/rounds/"+v.ID+"/reset", map[string]bool{"startClock": true}, &v); code != http.StatusOK || v.Step != game.StepSelectPoem || v.Lives != 3 {
		t.Errorf("reset = %d %+v", code, v)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodOptions, "/rounds", nil)
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}
}
