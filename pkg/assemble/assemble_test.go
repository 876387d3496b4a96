package assemble

import (
	"context"
	"strings"
	"testing"

	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/paper"
)

func sampleAnalysis() paper.Analysis {
	return paper.Analysis{
		Title:       "Graph Neural Networks at Scale",
		Authors:     []string{"Chen", "Okafor"},
		Abstract:    "We scale GNNs to billion-edge graphs.",
		KeyFindings: []string{"Sampling preserves accuracy", "Training is 4x faster"},
		Methodology: "Layer-wise sampling with caching.",
		Results:     "4x speedup at equal accuracy.",
		Conclusion:  "Sampling makes large-scale GNNs practical.",
	}
}

func TestPosterStyleValidation(t *testing.T) {
	a := New(llm.ClientFunc(func(context.Context, llm.Request) (string, error) {
		t.Fatal("no completion expected")
		return "", nil
	}), nil)

	if _, err := a.Poster(context.Background(), sampleAnalysis(), "fancy", OrientationPortrait); !errors.Is(err, errors.ErrCodeInvalidStyle) {
		t.Errorf("error = %v, want INVALID_STYLE", err)
	}
	if _, err := a.Poster(context.Background(), sampleAnalysis(), StyleIEEE, "diagonal"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestPosterNormalizesDraft(t *testing.T) {
	a := New(llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "```latex\n\\block{Abstract}{We scale GNNs.}\n```", nil
	}), nil)

	doc, err := a.Poster(context.Background(), sampleAnalysis(), StyleNature, OrientationPortrait)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Kind != markup.KindPoster {
		t.Errorf("kind = %v", doc.Kind)
	}
	if strings.Contains(doc.Source, "```") {
		t.Error("fences should be stripped")
	}
	if !strings.Contains(doc.Source, "\\documentclass") || !strings.Contains(doc.Source, "\\begin{document}") {
		t.Error("draft should be normalized into a complete document")
	}
}

func TestParsePlan(t *testing.T) {
	response := "```json\n" + `{
	  "total_slides": 2,
	  "slides": [
	    {"slide_number": 1, "title": "Intro", "content": "c1", "slide_type": "title"},
	    {"slide_number": 2, "title": "Method", "content": "c2", "slide_type": "diagram",
	     "tikz_diagrams": ["sampling flowchart"]}
	  ],
	  "suggested_diagrams": ["results chart"],
	  "presentation_style": "academic"
	}` + "\n```"

	plan, ok := ParsePlan(response)
	if !ok {
		t.Fatal("expected strict parse to succeed")
	}
	if plan.TotalSlides != 2 || len(plan.Slides) != 2 {
		t.Errorf("plan = %+v", plan)
	}
	if plan.Slides[1].TikzDiagrams[0] != "sampling flowchart" {
		t.Errorf("slide diagrams = %v", plan.Slides[1].TikzDiagrams)
	}
}

func TestParsePlanDefaults(t *testing.T) {
	plan, ok := ParsePlan(`{"slides": [{"slide_number": 1, "title": "T", "content": "c", "slide_type": "title"}]}`)
	if !ok {
		t.Fatal("parse should succeed")
	}
	if plan.TotalSlides != 1 {
		t.Errorf("total = %d, want slide count", plan.TotalSlides)
	}
	if plan.Style != "academic" {
		t.Errorf("style = %q", plan.Style)
	}
}

func TestParsePlanRejectsEmpty(t *testing.T) {
	for _, response := range []string{"", "no json", `{"slides": []}`} {
		if _, ok := ParsePlan(response); ok {
			t.Errorf("ParsePlan(%q) should fail", response)
		}
	}
}

func TestPlanFallsBackOnGarbage(t *testing.T) {
	a := New(llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "sorry, here is an outline in prose instead", nil
	}), nil)

	plan, err := a.Plan(context.Background(), sampleAnalysis(), 15)
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Slides) != 8 {
		t.Errorf("fallback slides = %d, want 8", len(plan.Slides))
	}
	if plan.Slides[0].Title != "Graph Neural Networks at Scale" {
		t.Errorf("title slide = %+v", plan.Slides[0])
	}
	if plan.Slides[len(plan.Slides)-1].Title != "Thank You" {
		t.Error("fallback plan should end with a Q&A slide")
	}
}

func TestDiagramRequests(t *testing.T) {
	plan := Plan{
		Slides: []Slide{
			{TikzDiagrams: []string{"flowchart A", " flowchart A "}},
			{TikzDiagrams: []string{"chart B"}},
		},
		SuggestedDiagrams: []string{"chart B", "timeline C", ""},
	}
	got := diagramRequests(plan)
	want := []string{"flowchart A", "chart B", "timeline C"}
	if len(got) != len(want) {
		t.Fatalf("requests = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("requests = %v, want %v", got, want)
			break
		}
	}
}

func TestDeckAssembly(t *testing.T) {
	var deckPromptSeen string
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		prompt := req.Messages[len(req.Messages)-1].Parts[0].Text
		switch req.Tier {
		case llm.TierHeavy: // planning
			return `{"slides": [
			  {"slide_number": 1, "title": "Intro", "content": "c", "slide_type": "title",
			   "tikz_diagrams": ["sampling flowchart"]}
			], "presentation_style": "academic"}`, nil
		default: // diagram + deck generation, both coding tier
			if strings.Contains(prompt, "TikZ diagram") {
				return "\\begin{tikzpicture}sampling\\end{tikzpicture}", nil
			}
			deckPromptSeen = prompt
			return "\\documentclass{beamer}\n\\begin{document}\n\\frame{Intro}\n\\end{document}", nil
		}
	})

	doc, plan, diagrams, err := New(client, nil).Deck(context.Background(), sampleAnalysis(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Kind != markup.KindDeck {
		t.Errorf("kind = %v", doc.Kind)
	}
	if len(plan.Slides) != 1 || len(diagrams) != 1 {
		t.Fatalf("plan slides = %d, diagrams = %d", len(plan.Slides), len(diagrams))
	}
	if !strings.Contains(deckPromptSeen, "diagram_1") || !strings.Contains(deckPromptSeen, "sampling") {
		t.Error("generation prompt should carry the resolved diagram fragment")
	}
	if !strings.Contains(deckPromptSeen, "Slide 1 [title]: Intro") {
		t.Error("generation prompt should carry the formatted plan")
	}
}
