// Package repair implements the bounded generate-render-critique loop that
// turns first-draft markup into an accepted artifact.
//
// One parameterized engine covers both document kinds: a poster artifact has
// one page, so the page-sampling and ratio-aggregation machinery degenerates
// to a single inspection with a 1.0-or-0.0 quality ratio. The kinds differ
// only in their Options presets.
package repair

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/scholarshare/scholarshare/pkg/cache"
	"github.com/scholarshare/scholarshare/pkg/critic"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/observability"
	"github.com/scholarshare/scholarshare/pkg/render"
)

// Reason is the terminal state of a repair session.
type Reason string

// Session termination reasons.
const (
	// ReasonFit: the quality ratio met the acceptance threshold.
	ReasonFit Reason = "fit"

	// ReasonBudgetExhausted: every attempt was Unfit and the attempt budget
	// ran out; the last rendered pair is returned.
	ReasonBudgetExhausted Reason = "budget_exhausted"

	// ReasonNoSuggestion: Unfit but the critic produced no repair; the
	// session ends at the current attempt regardless of remaining budget.
	ReasonNoSuggestion Reason = "no_suggestion"

	// ReasonFallback: the first render failed; a degraded artifact embedding
	// the raw markup is returned and the critic is never consulted.
	ReasonFallback Reason = "fallback"

	// ReasonRenderFailed: a render after the first failed; the last good
	// pair is returned.
	ReasonRenderFailed Reason = "render_failed"

	// ReasonUninspected: the artifact rendered but could not be rasterized;
	// it is returned optimistically without inspection.
	ReasonUninspected Reason = "uninspected"

	// ReasonCancelled: the context was cancelled between cycles.
	ReasonCancelled Reason = "cancelled"
)

// Inspector judges rendered pages. *critic.Critic is the production
// implementation; tests substitute fakes.
type Inspector interface {
	Inspect(ctx context.Context, png []byte, doc markup.Document, page int) critic.Inspection
	ClassifierName(kind markup.Kind) string
}

// Options parameterize one engine.
type Options struct {
	// MaxAttempts is the number of repair attempts after the initial render;
	// the session runs at most MaxAttempts+1 render cycles.
	MaxAttempts int

	// MaxWidthPx bounds rasterized page width for inspection.
	MaxWidthPx int

	// SampleRatio is the fraction of pages inspected per cycle, rounded up,
	// minimum one page.
	SampleRatio float64

	// AcceptRatio is the quality-ratio threshold at which the document is
	// accepted.
	AcceptRatio float64

	// WorkDir receives per-attempt render directories.
	WorkDir string

	// Logger receives session progress events. A nil logger discards.
	Logger *log.Logger
}

// PosterOptions is the poster preset.
func PosterOptions(workDir string) Options {
	return Options{MaxAttempts: 2, MaxWidthPx: 800, SampleRatio: 0.5, AcceptRatio: 0.7, WorkDir: workDir}
}

// DeckOptions is the presentation preset. Decks get one repair attempt
// because a full re-render of many slides is expensive.
func DeckOptions(workDir string) Options {
	return Options{MaxAttempts: 1, MaxWidthPx: 1024, SampleRatio: 0.5, AcceptRatio: 0.7, WorkDir: workDir}
}

// Attempt is one cycle of the session history.
type Attempt struct {
	// Index is zero-based and strictly increasing within a session.
	Index int `json:"index"`

	// Document is the markup rendered this cycle.
	Document markup.Document `json:"document"`

	// Artifact is the compiled result.
	Artifact render.Artifact `json:"artifact"`

	// Inspections holds one entry per sampled page, in page order. Empty
	// when the cycle ended before inspection.
	Inspections []critic.Inspection `json:"inspections,omitempty"`
}

// Result is the terminal state of a session. It always carries a best-effort
// (artifact, document) pair; sessions never end empty-handed unless the
// fallback itself cannot be written.
type Result struct {
	Artifact  render.Artifact
	Document  markup.Document
	Reason    Reason
	Rationale string
	Attempts  []Attempt
}

// Fit reports whether the session ended with an accepted layout.
func (r *Result) Fit() bool { return r.Reason == ReasonFit }

// Engine runs repair sessions.
type Engine struct {
	renderer  render.Renderer
	inspector Inspector
	cache     cache.Cache
	keyer     cache.Keyer
	opts      Options
}

// New creates an engine. c may be a NullCache; inspections are then computed
// fresh every cycle, matching the original uncached behavior.
func New(renderer render.Renderer, inspector Inspector, c cache.Cache, keyer cache.Keyer, opts Options) *Engine {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if opts.SampleRatio <= 0 {
		opts.SampleRatio = 0.5
	}
	if opts.AcceptRatio <= 0 {
		opts.AcceptRatio = 0.7
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Engine{renderer: renderer, inspector: inspector, cache: c, keyer: keyer, opts: opts}
}

// Run executes one repair session starting from initial markup. The returned
// error is non-nil only for cancellation before any render and for fallback
// write failures; every expected capability failure terminates the session
// with a best-effort Result instead.
func (e *Engine) Run(ctx context.Context, initial markup.Document, title string) (*Result, error) {
	if !initial.Kind.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidKind, "unknown document kind %q", initial.Kind)
	}

	doc := markup.Normalize(initial)
	kind := string(doc.Kind)
	var attempts []Attempt

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if len(attempts) == 0 {
				return nil, errors.Wrap(errors.ErrCodeTimeout, err, "session cancelled before first render")
			}
			last := attempts[len(attempts)-1]
			return e.finish(ctx, kind, &Result{
				Artifact:  last.Artifact,
				Document:  last.Document,
				Reason:    ReasonCancelled,
				Rationale: "session cancelled",
				Attempts:  attempts,
			}), nil
		}

		dir := filepath.Join(e.opts.WorkDir, fmt.Sprintf("attempt-%d", attempt))
		artifact, err := e.renderAttempt(ctx, doc, dir, attempt)
		if err != nil {
			if attempt == 0 {
				e.opts.Logger.Warn("first render failed, writing fallback", "kind", kind, "err", err)
				fb, fbErr := render.WriteFallback(doc, e.fallbackDir(), title)
				if fbErr != nil {
					return nil, fbErr
				}
				return e.finish(ctx, kind, &Result{
					Artifact:  fb,
					Document:  doc,
					Reason:    ReasonFallback,
					Rationale: errors.UserMessage(err),
					Attempts:  attempts,
				}), nil
			}
			e.opts.Logger.Warn("render failed, keeping last good artifact", "kind", kind, "attempt", attempt, "err", err)
			last := attempts[len(attempts)-1]
			return e.finish(ctx, kind, &Result{
				Artifact:  last.Artifact,
				Document:  last.Document,
				Reason:    ReasonRenderFailed,
				Rationale: errors.UserMessage(err),
				Attempts:  attempts,
			}), nil
		}
		e.opts.Logger.Info("rendered attempt", "kind", kind, "attempt", attempt, "pages", artifact.Pages)

		cur := Attempt{Index: attempt, Document: doc, Artifact: artifact}
		attempts = append(attempts, cur)

		pages := samplePages(artifact.Pages, e.opts.SampleRatio)
		inspections := make([]critic.Inspection, 0, len(pages))
		fit := 0
		var lastRepair *markup.Document
		var lastUnfit string

		for _, page := range pages {
			observability.Repair().OnInspectStart(ctx, kind, attempt, page)
			start := time.Now()

			png, rastErr := e.renderer.Rasterize(ctx, artifact, page, e.opts.MaxWidthPx)
			if rastErr != nil {
				// Artifact exists but cannot be checked; accept it unseen.
				return e.finish(ctx, kind, &Result{
					Artifact:  artifact,
					Document:  doc,
					Reason:    ReasonUninspected,
					Rationale: errors.UserMessage(rastErr),
					Attempts:  attempts,
				}), nil
			}

			insp := e.inspectPage(ctx, png, doc, page)
			observability.Repair().OnInspectComplete(ctx, kind, attempt, page, insp.Verdict == critic.Fit, time.Since(start))

			inspections = append(inspections, insp)
			if insp.Verdict == critic.Fit {
				fit++
			} else {
				lastUnfit = insp.Rationale
				if insp.Repair != nil {
					lastRepair = insp.Repair
				}
			}
		}
		attempts[len(attempts)-1].Inspections = inspections

		ratio := float64(fit) / float64(len(pages))
		e.opts.Logger.Info("inspected sample", "kind", kind, "attempt", attempt, "fit", fit, "sampled", len(pages), "ratio", ratio)
		if ratio >= e.opts.AcceptRatio {
			return e.finish(ctx, kind, &Result{
				Artifact:  artifact,
				Document:  doc,
				Reason:    ReasonFit,
				Rationale: inspections[len(inspections)-1].Rationale,
				Attempts:  attempts,
			}), nil
		}

		if lastRepair == nil {
			return e.finish(ctx, kind, &Result{
				Artifact:  artifact,
				Document:  doc,
				Reason:    ReasonNoSuggestion,
				Rationale: lastUnfit,
				Attempts:  attempts,
			}), nil
		}
		if attempt >= e.opts.MaxAttempts {
			return e.finish(ctx, kind, &Result{
				Artifact:  artifact,
				Document:  doc,
				Reason:    ReasonBudgetExhausted,
				Rationale: lastUnfit,
				Attempts:  attempts,
			}), nil
		}

		doc = markup.Normalize(*lastRepair)
		e.opts.Logger.Info("adopted repair", "kind", kind, "attempt", attempt)
		observability.Repair().OnRepairAdopted(ctx, kind, attempt)
	}
}

// artifactEntry is the cached form of a compiled artifact: the PDF bytes
// plus the metadata needed to reconstruct a render.Artifact in a new
// attempt directory.
type artifactEntry struct {
	Name  string `json:"name"`
	Pages int    `json:"pages"`
	PDF   []byte `json:"pdf"`
}

// renderAttempt compiles the document, serving repeat compilations of
// byte-identical markup from the artifact cache. A rerun over the same
// paper then skips the TeX toolchain entirely. Cache failures are ignored;
// fallback artifacts are never cached.
func (e *Engine) renderAttempt(ctx context.Context, doc markup.Document, dir string, attempt int) (render.Artifact, error) {
	key := e.keyer.ArtifactKey(doc.Fingerprint(), cache.ArtifactKeyOpts{Kind: string(doc.Kind)})

	if data, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		if artifact, restoreErr := restoreArtifact(data, dir); restoreErr == nil {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifact, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	artifact, err := render.TimedRender(ctx, e.renderer, doc, dir, attempt)
	if err != nil {
		return render.Artifact{}, err
	}
	if data, encErr := encodeArtifact(artifact); encErr == nil {
		if e.cache.Set(ctx, key, data, cache.TTLArtifact) == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifact, nil
}

func encodeArtifact(a render.Artifact) ([]byte, error) {
	if a.Fallback {
		return nil, fmt.Errorf("fallback artifacts are not cacheable")
	}
	pdf, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}
	return json.Marshal(artifactEntry{Name: filepath.Base(a.Path), Pages: a.Pages, PDF: pdf})
}

func restoreArtifact(data []byte, dir string) (render.Artifact, error) {
	var entry artifactEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return render.Artifact{}, err
	}
	if entry.Name == "" || entry.Pages < 1 || len(entry.PDF) == 0 {
		return render.Artifact{}, fmt.Errorf("malformed artifact entry")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return render.Artifact{}, err
	}
	path := filepath.Join(dir, entry.Name)
	if err := os.WriteFile(path, entry.PDF, 0o644); err != nil {
		return render.Artifact{}, err
	}
	return render.Artifact{Path: path, Pages: entry.Pages}, nil
}

// inspectPage runs one page inspection through the fingerprint-keyed cache.
// Cache failures are ignored; a broken cache must never change verdicts.
func (e *Engine) inspectPage(ctx context.Context, png []byte, doc markup.Document, page int) critic.Inspection {
	key := e.keyer.InspectionKey(doc.Fingerprint(), cache.InspectionKeyOpts{
		Kind:       string(doc.Kind),
		Page:       page,
		Classifier: e.inspector.ClassifierName(doc.Kind),
	})

	if data, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		var insp critic.Inspection
		if json.Unmarshal(data, &insp) == nil {
			observability.Cache().OnCacheHit(ctx, "inspection")
			return insp
		}
	}
	observability.Cache().OnCacheMiss(ctx, "inspection")

	insp := e.inspector.Inspect(ctx, png, doc, page)
	if data, err := json.Marshal(insp); err == nil {
		if e.cache.Set(ctx, key, data, cache.TTLInspection) == nil {
			observability.Cache().OnCacheSet(ctx, "inspection", len(data))
		}
	}
	return insp
}

func (e *Engine) fallbackDir() string {
	dir := filepath.Join(e.opts.WorkDir, "fallback")
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// finish logs the terminal state, emits the session-end event, and returns r.
func (e *Engine) finish(ctx context.Context, kind string, r *Result) *Result {
	e.opts.Logger.Info("session ended", "kind", kind, "reason", r.Reason, "attempts", len(r.Attempts))
	observability.Repair().OnSessionEnd(ctx, kind, len(r.Attempts), string(r.Reason))
	return r
}

// samplePages picks the 1-based pages to inspect: at least ratio of the
// total, minimum one, rounded up, spread evenly across the document so late
// pages are checked too.
func samplePages(total int, ratio float64) []int {
	if total < 1 {
		total = 1
	}
	n := int(math.Ceil(float64(total) * ratio))
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}

	pages := make([]int, 0, n)
	step := float64(total) / float64(n)
	for i := 0; i < n; i++ {
		page := int(math.Floor(float64(i)*step)) + 1
		if len(pages) > 0 && pages[len(pages)-1] >= page {
			page = pages[len(pages)-1] + 1
		}
		if page > total {
			break
		}
		pages = append(pages, page)
	}
	return pages
}
