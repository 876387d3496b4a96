// Package session provides the request-scoped workspace that holds one
// user's analysis and generated artifacts between dashboard calls.
//
// The workspace replaces ambient process-wide state: every generation
// operation reads and writes an explicit Workspace owned by the server
// layer, so concurrent users never observe each other's papers.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scholarshare/scholarshare/pkg/blog"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/paper"
	"github.com/scholarshare/scholarshare/pkg/repair"
	"github.com/scholarshare/scholarshare/pkg/social"
)

// DefaultTTL is how long an idle workspace survives.
const DefaultTTL = 24 * time.Hour

// Workspace holds one session's state. All accessors are safe for
// concurrent use; handlers for the same session may overlap.
type Workspace struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	mu       sync.RWMutex
	paperID  string
	analysis *paper.Analysis
	blogPost *blog.Post
	social   *social.Content
	poster   *repair.Result
	deck     *repair.Result
}

// Expired reports whether the workspace TTL has lapsed.
func (w *Workspace) Expired() bool {
	return time.Now().After(w.ExpiresAt)
}

// SetAnalysis stores the analyzed paper and resets downstream artifacts,
// which were derived from the previous analysis.
func (w *Workspace) SetAnalysis(paperID string, a paper.Analysis) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paperID = paperID
	w.analysis = &a
	w.blogPost = nil
	w.social = nil
	w.poster = nil
	w.deck = nil
}

// Analysis returns the current analysis, or an error when the session has
// not analyzed a paper yet.
func (w *Workspace) Analysis() (string, paper.Analysis, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.analysis == nil {
		return "", paper.Analysis{}, errors.New(errors.ErrCodeInvalidInput, "no paper analyzed in this session yet")
	}
	return w.paperID, *w.analysis, nil
}

// SetBlog stores the generated post.
func (w *Workspace) SetBlog(p blog.Post) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blogPost = &p
}

// Blog returns the generated post, if any.
func (w *Workspace) Blog() (blog.Post, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.blogPost == nil {
		return blog.Post{}, false
	}
	return *w.blogPost, true
}

// SetSocial stores the generated social bundle.
func (w *Workspace) SetSocial(c social.Content) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.social = &c
}

// Social returns the generated social bundle, if any.
func (w *Workspace) Social() (social.Content, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.social == nil {
		return social.Content{}, false
	}
	return *w.social, true
}

// SetPoster stores a finished poster session result.
func (w *Workspace) SetPoster(r *repair.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.poster = r
}

// Poster returns the poster result, if any.
func (w *Workspace) Poster() (*repair.Result, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.poster, w.poster != nil
}

// SetDeck stores a finished deck session result.
func (w *Workspace) SetDeck(r *repair.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deck = r
}

// Deck returns the deck result, if any.
func (w *Workspace) Deck() (*repair.Result, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.deck, w.deck != nil
}

// Manager owns workspace lifecycle for the server.
type Manager struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	ttl        time.Duration
}

// NewManager creates a manager; ttl 0 means DefaultTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{workspaces: make(map[string]*Workspace), ttl: ttl}
}

// Create allocates a fresh workspace.
func (m *Manager) Create() *Workspace {
	now := time.Now()
	w := &Workspace{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces[w.ID] = w
	return w
}

// Get returns the workspace for id. Expired workspaces are dropped and
// reported as not found.
func (m *Manager) Get(id string) (*Workspace, error) {
	m.mu.RLock()
	w, ok := m.workspaces[id]
	m.mu.RUnlock()

	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	if w.Expired() {
		m.Delete(id)
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s expired", id)
	}
	return w, nil
}

// Delete removes a workspace.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workspaces, id)
}

// Cleanup drops every expired workspace; returns how many were removed.
func (m *Manager) Cleanup(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, w := range m.workspaces {
		if w.Expired() {
			delete(m.workspaces, id)
			removed++
		}
	}
	return removed
}
