package repair

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/scholarshare/scholarshare/pkg/cache"
	"github.com/scholarshare/scholarshare/pkg/critic"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/render"
)

// scriptRenderer renders scripted artifacts without a TeX toolchain.
type scriptRenderer struct {
	pages          int
	failRenders    []bool // per render call; missing entries succeed
	renderCalls    int
	rasterizeFail  bool
	rasterizeCalls int
}

func (r *scriptRenderer) Render(ctx context.Context, doc markup.Document, dir string) (render.Artifact, error) {
	i := r.renderCalls
	r.renderCalls++
	if i < len(r.failRenders) && r.failRenders[i] {
		return render.Artifact{}, errors.New(errors.ErrCodeRenderFailure, "compile error on call %d", i)
	}
	pages := r.pages
	if pages == 0 {
		pages = 1
	}
	return render.Artifact{Path: fmt.Sprintf("attempt-%d.pdf", i), Pages: pages}, nil
}

func (r *scriptRenderer) Rasterize(ctx context.Context, a render.Artifact, page, maxWidthPx int) ([]byte, error) {
	r.rasterizeCalls++
	if r.rasterizeFail {
		return nil, errors.New(errors.ErrCodeRasterizeFailure, "cannot rasterize")
	}
	return []byte("png"), nil
}

// scriptInspector returns scripted inspections in call order, then Fit.
type scriptInspector struct {
	results []critic.Inspection
	calls   int
}

func (s *scriptInspector) Inspect(ctx context.Context, png []byte, doc markup.Document, page int) critic.Inspection {
	i := s.calls
	s.calls++
	if i < len(s.results) {
		return s.results[i]
	}
	return critic.Inspection{Verdict: critic.Fit, Rationale: "looks good"}
}

func (s *scriptInspector) ClassifierName(markup.Kind) string { return "scripted" }

func fit() critic.Inspection {
	return critic.Inspection{Verdict: critic.Fit, Rationale: "clean layout"}
}

func unfit(rationale string) critic.Inspection {
	return critic.Inspection{Verdict: critic.Unfit, Rationale: rationale}
}

func unfitWith(rationale, repairSrc string, kind markup.Kind) critic.Inspection {
	doc := markup.New(repairSrc, kind)
	return critic.Inspection{Verdict: critic.Unfit, Rationale: rationale, Repair: &doc}
}

func posterEngine(t *testing.T, r render.Renderer, i Inspector) *Engine {
	t.Helper()
	return New(r, i, cache.NewNullCache(), nil, PosterOptions(t.TempDir()))
}

func posterDoc() markup.Document {
	return markup.New("\\documentclass[a0paper,portrait]{tikzposter}\n\\begin{document}draft\\end{document}", markup.KindPoster)
}

func TestFitShortCircuits(t *testing.T) {
	renderer := &scriptRenderer{}
	inspector := &scriptInspector{results: []critic.Inspection{fit()}}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonFit || !res.Fit() {
		t.Errorf("reason = %v, want fit", res.Reason)
	}
	if renderer.renderCalls != 1 || inspector.calls != 1 {
		t.Errorf("renders = %d, inspections = %d, want 1 and 1", renderer.renderCalls, inspector.calls)
	}
	if len(res.Attempts) != 1 || res.Attempts[0].Index != 0 {
		t.Errorf("attempts = %+v", res.Attempts)
	}
	if res.Rationale == "" {
		t.Error("terminal result must carry a rationale")
	}
}

func TestNoSuggestionHaltsImmediately(t *testing.T) {
	renderer := &scriptRenderer{}
	inspector := &scriptInspector{results: []critic.Inspection{unfit("overflows everywhere")}}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonNoSuggestion {
		t.Errorf("reason = %v, want no_suggestion", res.Reason)
	}
	if renderer.renderCalls != 1 {
		t.Errorf("renders = %d, want 1 despite remaining budget", renderer.renderCalls)
	}
	if res.Rationale != "overflows everywhere" {
		t.Errorf("rationale = %q", res.Rationale)
	}
}

func TestBudgetRespected(t *testing.T) {
	renderer := &scriptRenderer{}
	inspector := &scriptInspector{results: []critic.Inspection{
		unfitWith("bad", "suggestion-one", markup.KindPoster),
		unfitWith("still bad", "suggestion-two", markup.KindPoster),
		unfitWith("bad again", "suggestion-three", markup.KindPoster),
	}}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonBudgetExhausted {
		t.Errorf("reason = %v, want budget_exhausted", res.Reason)
	}
	// MaxAttempts = 2: exactly three render cycles, never a fourth.
	if renderer.renderCalls != 3 {
		t.Errorf("renders = %d, want 3", renderer.renderCalls)
	}
	// The last rendered document is the last accepted suggestion.
	if !strings.Contains(res.Document.Source, "suggestion-two") {
		t.Errorf("final document = %q, want the second suggestion", res.Document.Source)
	}
	if res.Artifact.Path != "attempt-2.pdf" {
		t.Errorf("artifact = %q, want the last rendered one", res.Artifact.Path)
	}
}

func TestAttemptIndexingMonotonic(t *testing.T) {
	renderer := &scriptRenderer{}
	inspector := &scriptInspector{results: []critic.Inspection{
		unfitWith("a", "s1", markup.KindPoster),
		unfitWith("b", "s2", markup.KindPoster),
		unfitWith("c", "s3", markup.KindPoster),
	}}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range res.Attempts {
		if a.Index != i {
			t.Errorf("attempt %d has index %d", i, a.Index)
		}
	}
	if len(res.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(res.Attempts))
	}
}

func TestConcreteScenario(t *testing.T) {
	// Cycle 0: Unfit + suggestion A. Cycle 1 (renders A): Unfit + suggestion
	// B. Cycle 2 (renders B): Unfit, no suggestion. The session ends at
	// attempt 2 with B's artifact; a third repair is never attempted.
	renderer := &scriptRenderer{}
	inspector := &scriptInspector{results: []critic.Inspection{
		unfitWith("crowded", "suggestion-A", markup.KindPoster),
		unfitWith("still crowded", "suggestion-B", markup.KindPoster),
		unfit("no idea how to fix"),
	}}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonNoSuggestion {
		t.Errorf("reason = %v, want no_suggestion", res.Reason)
	}
	if renderer.renderCalls != 3 {
		t.Errorf("renders = %d, want 3", renderer.renderCalls)
	}
	if got := res.Attempts[len(res.Attempts)-1].Index; got != 2 {
		t.Errorf("final attempt index = %d, want 2", got)
	}
	if !strings.Contains(res.Document.Source, "suggestion-B") {
		t.Errorf("final document = %q, want suggestion B", res.Document.Source)
	}
}

func TestFirstRenderFailureFallsBack(t *testing.T) {
	renderer := &scriptRenderer{failRenders: []bool{true}}
	inspector := &scriptInspector{}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "My Paper")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonFallback {
		t.Errorf("reason = %v, want fallback", res.Reason)
	}
	if !res.Artifact.Fallback {
		t.Error("artifact should be the degraded fallback")
	}
	if inspector.calls != 0 {
		t.Errorf("inspections = %d, critic must never run on fallback", inspector.calls)
	}
	if renderer.renderCalls != 1 {
		t.Errorf("renders = %d, repair loop must not be entered", renderer.renderCalls)
	}
}

func TestLaterRenderFailureReturnsLastGood(t *testing.T) {
	renderer := &scriptRenderer{failRenders: []bool{false, true}}
	inspector := &scriptInspector{results: []critic.Inspection{
		unfitWith("bad", "suggestion", markup.KindPoster),
	}}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonRenderFailed {
		t.Errorf("reason = %v, want render_failed", res.Reason)
	}
	if res.Artifact.Path != "attempt-0.pdf" {
		t.Errorf("artifact = %q, want the last good one", res.Artifact.Path)
	}
	if !strings.Contains(res.Document.Source, "draft") {
		t.Errorf("document = %q, want the last rendered one", res.Document.Source)
	}
}

func TestRasterizeFailureReturnsUninspected(t *testing.T) {
	renderer := &scriptRenderer{rasterizeFail: true}
	inspector := &scriptInspector{}
	eng := posterEngine(t, renderer, inspector)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonUninspected {
		t.Errorf("reason = %v, want uninspected", res.Reason)
	}
	if res.Artifact.Path == "" || res.Artifact.Fallback {
		t.Errorf("artifact = %+v, want the rendered artifact", res.Artifact)
	}
	if inspector.calls != 0 {
		t.Error("critic must not run when rasterization failed")
	}
}

func TestDeckAggregationRatio(t *testing.T) {
	// Ten pages, five sampled; four Fit out of five is 0.8 >= 0.7, so the
	// deck is accepted in one cycle despite the one Unfit slide.
	renderer := &scriptRenderer{pages: 10}
	inspector := &scriptInspector{results: []critic.Inspection{
		fit(), fit(), unfitWith("slide 5 cramped", "rewrite", markup.KindDeck), fit(), fit(),
	}}
	eng := New(renderer, inspector, cache.NewNullCache(), nil, DeckOptions(t.TempDir()))

	doc := markup.New("\\documentclass{beamer}\n\\begin{document}\\frame{x}\\end{document}", markup.KindDeck)
	res, err := eng.Run(context.Background(), doc, "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonFit {
		t.Errorf("reason = %v, want fit at ratio 0.8", res.Reason)
	}
	if renderer.renderCalls != 1 {
		t.Errorf("renders = %d, want 1", renderer.renderCalls)
	}
	if inspector.calls != 5 {
		t.Errorf("inspections = %d, want 5 sampled pages", inspector.calls)
	}
}

func TestDeckBelowRatioAdoptsLastSuggestion(t *testing.T) {
	// Two of four sampled pages Unfit (ratio 0.5 < 0.7); the later page's
	// suggestion wins as the whole-document replacement.
	renderer := &scriptRenderer{pages: 8}
	inspector := &scriptInspector{results: []critic.Inspection{
		unfitWith("slide 1 overflow", "early-suggestion", markup.KindDeck),
		fit(),
		unfitWith("slide 5 cramped", "late-suggestion", markup.KindDeck),
		fit(),
		// Second cycle: accept everything.
		fit(), fit(), fit(), fit(),
	}}
	eng := New(renderer, inspector, cache.NewNullCache(), nil, DeckOptions(t.TempDir()))

	doc := markup.New("\\documentclass{beamer}\n\\begin{document}\\frame{x}\\end{document}", markup.KindDeck)
	res, err := eng.Run(context.Background(), doc, "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonFit {
		t.Errorf("reason = %v, want fit on second cycle", res.Reason)
	}
	if renderer.renderCalls != 2 {
		t.Errorf("renders = %d, want 2", renderer.renderCalls)
	}
	if !strings.Contains(res.Document.Source, "late-suggestion") {
		t.Errorf("document = %q, want the last page-order suggestion", res.Document.Source)
	}
}

func TestCancelledBeforeFirstRender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := posterEngine(t, &scriptRenderer{}, &scriptInspector{})
	_, err := eng.Run(ctx, posterDoc(), "t")
	if err == nil {
		t.Fatal("expected an error for a cancelled session with no attempts")
	}
}

func TestInvalidKindRejected(t *testing.T) {
	eng := posterEngine(t, &scriptRenderer{}, &scriptInspector{})
	_, err := eng.Run(context.Background(), markup.New("x", markup.Kind("flyer")), "t")
	if !errors.Is(err, errors.ErrCodeInvalidKind) {
		t.Errorf("error = %v, want INVALID_KIND", err)
	}
}

func TestInspectionCache(t *testing.T) {
	dir := t.TempDir()
	fileCache, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer fileCache.Close()

	doc := posterDoc()

	first := &scriptInspector{results: []critic.Inspection{unfit("cramped")}}
	eng := New(&scriptRenderer{}, first, fileCache, nil, PosterOptions(t.TempDir()))
	if _, err := eng.Run(context.Background(), doc, "t"); err != nil {
		t.Fatal(err)
	}
	if first.calls != 1 {
		t.Fatalf("first run inspections = %d, want 1", first.calls)
	}

	// Same document again: the verdict comes from the cache, not the critic.
	second := &scriptInspector{}
	eng = New(&scriptRenderer{}, second, fileCache, nil, PosterOptions(t.TempDir()))
	res, err := eng.Run(context.Background(), doc, "t")
	if err != nil {
		t.Fatal(err)
	}
	if second.calls != 0 {
		t.Errorf("second run inspections = %d, want 0 (cached)", second.calls)
	}
	if res.Reason != ReasonNoSuggestion {
		t.Errorf("reason = %v, want the cached Unfit verdict to apply", res.Reason)
	}
}

// pdfRenderer writes a real file per render so artifacts can round-trip
// through the artifact cache.
type pdfRenderer struct {
	renderCalls    int
	rasterizeCalls int
}

func (r *pdfRenderer) Render(ctx context.Context, doc markup.Document, dir string) (render.Artifact, error) {
	r.renderCalls++
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return render.Artifact{}, err
	}
	path := filepath.Join(dir, "poster.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		return render.Artifact{}, err
	}
	return render.Artifact{Path: path, Pages: 1}, nil
}

func (r *pdfRenderer) Rasterize(ctx context.Context, a render.Artifact, page, maxWidthPx int) ([]byte, error) {
	r.rasterizeCalls++
	return []byte("png"), nil
}

func TestArtifactCacheSkipsRecompile(t *testing.T) {
	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer fileCache.Close()

	doc := posterDoc()

	renderer := &pdfRenderer{}
	eng := New(renderer, &scriptInspector{}, fileCache, nil, PosterOptions(t.TempDir()))
	res, err := eng.Run(context.Background(), doc, "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonFit {
		t.Fatalf("reason = %v, want fit", res.Reason)
	}
	if renderer.renderCalls != 1 {
		t.Fatalf("first run renders = %d, want 1", renderer.renderCalls)
	}

	// Identical markup again: the compiled PDF comes from the cache and the
	// renderer is never invoked.
	second := &pdfRenderer{}
	workDir := t.TempDir()
	eng = New(second, &scriptInspector{}, fileCache, nil, PosterOptions(workDir))
	res, err = eng.Run(context.Background(), doc, "t")
	if err != nil {
		t.Fatal(err)
	}
	if second.renderCalls != 0 {
		t.Errorf("second run renders = %d, want 0 (cached artifact)", second.renderCalls)
	}
	if res.Reason != ReasonFit {
		t.Errorf("reason = %v, want fit from the restored artifact", res.Reason)
	}
	if res.Artifact.Pages != 1 {
		t.Errorf("restored pages = %d, want 1", res.Artifact.Pages)
	}
	if !strings.HasPrefix(res.Artifact.Path, workDir) {
		t.Errorf("restored artifact %q should live under the new work dir", res.Artifact.Path)
	}
	if _, err := os.Stat(res.Artifact.Path); err != nil {
		t.Errorf("restored artifact should exist on disk: %v", err)
	}
}

func TestRunLogsCycleEvents(t *testing.T) {
	renderer := &scriptRenderer{}
	inspector := &scriptInspector{results: []critic.Inspection{
		unfitWith("crowded", "suggestion", markup.KindPoster),
	}}

	var buf bytes.Buffer
	opts := PosterOptions(t.TempDir())
	opts.Logger = log.New(&buf)
	eng := New(renderer, inspector, cache.NewNullCache(), nil, opts)

	res, err := eng.Run(context.Background(), posterDoc(), "t")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != ReasonFit {
		t.Fatalf("reason = %v, want fit on the second cycle", res.Reason)
	}

	out := buf.String()
	for _, want := range []string{"rendered attempt", "inspected sample", "adopted repair", "session ended", "reason=fit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSamplePages(t *testing.T) {
	tests := []struct {
		total int
		want  []int
	}{
		{1, []int{1}},
		{2, []int{1}},
		{3, []int{1, 2}},
		{10, []int{1, 3, 5, 7, 9}},
	}
	for _, tt := range tests {
		got := samplePages(tt.total, 0.5)
		if len(got) != len(tt.want) {
			t.Errorf("samplePages(%d) = %v, want %v", tt.total, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("samplePages(%d) = %v, want %v", tt.total, got, tt.want)
				break
			}
		}
	}
}
