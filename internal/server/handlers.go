package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scholarshare/scholarshare/pkg/assemble"
	"github.com/scholarshare/scholarshare/pkg/blog"
	"github.com/scholarshare/scholarshare/pkg/buildinfo"
	"github.com/scholarshare/scholarshare/pkg/cache"
	"github.com/scholarshare/scholarshare/pkg/config"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/paper"
	"github.com/scholarshare/scholarshare/pkg/publish"
	"github.com/scholarshare/scholarshare/pkg/repair"
	"github.com/scholarshare/scholarshare/pkg/session"
	"github.com/scholarshare/scholarshare/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// ---- sessions ----

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ws := s.sessions.Create()
	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// workspace resolves the session from the URL, writing the error response
// itself so handlers can bail with a bare return.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*session.Workspace, bool) {
	ws, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ws, true
}

// ---- analysis ----

type analyzeRequest struct {
	Content string `json:"content"`
}

type analyzeResponse struct {
	PaperID  string         `json:"paper_id"`
	Analysis paper.Analysis `json:"analysis"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), paper.Input{Content: req.Content})
	if err != nil {
		writeError(w, err)
		return
	}

	rec := &store.PaperRecord{Analysis: analysis, ContentHash: cache.Hash([]byte(req.Content))}
	if err := s.store.SavePaper(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	ws.SetAnalysis(rec.ID, analysis)

	writeJSON(w, http.StatusOK, analyzeResponse{PaperID: rec.ID, Analysis: analysis})
}

// ---- blog ----

type blogResponse struct {
	ContentID string    `json:"content_id"`
	Post      blog.Post `json:"post"`
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	paperID, analysis, err := ws.Analysis()
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := s.blogGen.Generate(r.Context(), analysis)
	if err != nil {
		writeError(w, err)
		return
	}
	ws.SetBlog(post)

	rec := &store.ContentRecord{
		PaperID: paperID,
		Kind:    store.ContentBlog,
		Title:   post.Title,
		Body:    post.Content,
		Metadata: map[string]string{
			"tags":         strings.Join(post.Tags, ","),
			"reading_time": strconv.Itoa(post.ReadingTime),
		},
	}
	if err := s.store.SaveContent(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, blogResponse{ContentID: rec.ID, Post: post})
}

func (s *Server) handleBlogHTML(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	post, found := ws.Blog()
	if !found {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no blog post generated in this session"))
		return
	}

	page, err := blog.ExportPage(post)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

// ---- social ----

func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	paperID, analysis, err := ws.Analysis()
	if err != nil {
		writeError(w, err)
		return
	}

	content, err := s.socialGen.Generate(r.Context(), analysis)
	if err != nil {
		writeError(w, err)
		return
	}
	ws.SetSocial(content)

	rec := &store.ContentRecord{
		PaperID: paperID,
		Kind:    store.ContentSocial,
		Title:   analysis.Title,
		Body:    content.LinkedInPost,
		Metadata: map[string]string{
			"hashtags": strings.Join(content.Hashtags, ","),
			"tweets":   strconv.Itoa(len(content.TwitterThread)),
		},
	}
	if err := s.store.SaveContent(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// ---- poster and deck ----

type posterRequest struct {
	Style       string `json:"style"`
	Orientation string `json:"orientation"`
}

type deckRequest struct {
	MaxSlides int `json:"max_slides"`
}

// sessionResult is the JSON shape of a finished repair session.
type sessionResult struct {
	Reason    repair.Reason `json:"reason"`
	Rationale string        `json:"rationale,omitempty"`
	Fit       bool          `json:"fit"`
	Pages     int           `json:"pages"`
	Attempts  int           `json:"attempts"`
	Fallback  bool          `json:"fallback"`
	Source    string        `json:"source"`
}

func toSessionResult(res *repair.Result) sessionResult {
	return sessionResult{
		Reason:    res.Reason,
		Rationale: res.Rationale,
		Fit:       res.Fit(),
		Pages:     res.Artifact.Pages,
		Attempts:  len(res.Attempts),
		Fallback:  res.Artifact.Fallback,
		Source:    res.Document.Source,
	}
}

func (s *Server) handlePoster(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	paperID, analysis, err := ws.Analysis()
	if err != nil {
		writeError(w, err)
		return
	}

	req := posterRequest{Style: string(assemble.StyleIEEE), Orientation: assemble.OrientationPortrait}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := s.assembler.Poster(r.Context(), analysis, assemble.PosterStyle(req.Style), req.Orientation)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := repair.PosterOptions(s.sessionDir(ws.ID, "poster"))
	opts.Logger = s.logger
	engine := repair.New(s.renderer, s.inspector, s.cache, s.keyer, opts)
	res, err := engine.Run(r.Context(), doc, analysis.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	ws.SetPoster(res)

	if err := s.saveArtifact(r, paperID, store.ContentPoster, analysis.Title, res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResult(res))
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	paperID, analysis, err := ws.Analysis()
	if err != nil {
		writeError(w, err)
		return
	}

	req := deckRequest{MaxSlides: assemble.DefaultMaxSlides}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, _, _, err := s.assembler.Deck(r.Context(), analysis, req.MaxSlides)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := repair.DeckOptions(s.sessionDir(ws.ID, "deck"))
	opts.Logger = s.logger
	engine := repair.New(s.renderer, s.inspector, s.cache, s.keyer, opts)
	res, err := engine.Run(r.Context(), doc, analysis.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	ws.SetDeck(res)

	if err := s.saveArtifact(r, paperID, store.ContentDeck, analysis.Title, res); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResult(res))
}

func (s *Server) saveArtifact(r *http.Request, paperID string, kind store.ContentKind, title string, res *repair.Result) error {
	rec := &store.ContentRecord{
		PaperID:      paperID,
		Kind:         kind,
		Title:        title,
		Body:         res.Document.Source,
		ArtifactPath: res.Artifact.Path,
		Metadata: map[string]string{
			"reason": string(res.Reason),
			"pages":  strconv.Itoa(res.Artifact.Pages),
		},
	}
	return s.store.SaveContent(r.Context(), rec)
}

// sessionArtifact fetches the stored repair result for a kind URL segment.
func sessionArtifact(ws *session.Workspace, kind string) (*repair.Result, error) {
	switch markup.Kind(kind) {
	case markup.KindPoster:
		if res, ok := ws.Poster(); ok {
			return res, nil
		}
	case markup.KindDeck:
		if res, ok := ws.Deck(); ok {
			return res, nil
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidKind, "unknown artifact kind %q", kind)
	}
	return nil, errors.New(errors.ErrCodeNotFound, "no %s generated in this session", kind)
}

func (s *Server) handleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	res, err := sessionArtifact(ws, chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	if res.Artifact.Fallback {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/pdf")
	}
	http.ServeFile(w, r, res.Artifact.Path)
}

func (s *Server) handleArtifactSource(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	res, err := sessionArtifact(ws, chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(res.Document.Source))
}

// ---- publishing ----

type publishRequest struct {
	Published bool `json:"published"`
}

func (s *Server) handlePublishDevto(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	post, found := ws.Blog()
	if !found {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no blog post generated in this session"))
		return
	}

	var req publishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	client := publish.NewDevtoClient(s.settings.Resolve().DevtoAPIKey, s.devtoBase)
	article, err := client.Publish(r.Context(), post, req.Published)

	rec := &store.PublishRecord{Platform: "devto", Status: store.PublishSuccess, URL: article.URL}
	if err != nil {
		rec.Status = store.PublishFailed
		rec.Error = errors.UserMessage(err)
	}
	if logErr := s.store.LogPublish(r.Context(), rec); logErr != nil {
		s.logger.Warn("publish log write failed", "err", logErr)
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// ---- runtime configuration ----

type configSetRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Status())
}

func (s *Server) handleConfigSet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req configSetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !s.settings.SetOverride(key, req.Value) {
		writeError(w, errors.New(errors.ErrCodeInvalidInput,
			"unknown configuration key %q (known: %s)", key, strings.Join(config.KnownKeys(), ", ")))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfigClear(w http.ResponseWriter, r *http.Request) {
	s.settings.ClearOverride(chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfigClearAll(w http.ResponseWriter, r *http.Request) {
	s.settings.ClearOverrides()
	w.WriteHeader(http.StatusNoContent)
}

// ---- history ----

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	papers, err := s.store.ListPapers(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, papers)
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.store.ListContent(r.Context(), chi.URLParam(r, "paperID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}
