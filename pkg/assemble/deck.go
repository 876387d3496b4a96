package assemble

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scholarshare/scholarshare/pkg/diagram"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/paper"
)

// DefaultMaxSlides bounds plan size when the caller does not care.
const DefaultMaxSlides = 15

// Slide is one planned slide.
type Slide struct {
	Number       int      `json:"slide_number"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Type         string   `json:"slide_type"` // title | content | image | diagram | conclusion
	Notes        string   `json:"notes,omitempty"`
	TikzDiagrams []string `json:"tikz_diagrams,omitempty"`
}

// Plan is the slide-by-slide outline produced by the planning call.
type Plan struct {
	TotalSlides       int      `json:"total_slides"`
	Slides            []Slide  `json:"slides"`
	SuggestedDiagrams []string `json:"suggested_diagrams,omitempty"`
	Style             string   `json:"presentation_style"`
}

const planSystemPrompt = "You are an expert academic presentation planner with deep knowledge of effective presentation design and research communication."

const planPrompt = `Create a detailed slide-by-slide plan for a %d-slide presentation based on
this research paper analysis.

Paper Analysis:
Title: %s
Authors: %s
Abstract: %s
Key Findings: %s
Methodology: %s
Results: %s
Conclusion: %s

Follow the standard academic arc: title, agenda, introduction, problem
statement, methodology, results, key findings, discussion, conclusion, Q&A.
Keep slide content short; dense text overflows the slide frame.

Suggest specific diagrams that would enhance the presentation (methodology
flowcharts, architecture diagrams, comparison charts, timelines).

Respond in this JSON format:
{
    "total_slides": %d,
    "slides": [
        {
            "slide_number": 1,
            "title": "Slide Title",
            "content": "Detailed content description",
            "slide_type": "title|content|image|diagram|conclusion",
            "notes": "Speaker notes",
            "tikz_diagrams": ["description of tikz diagram if needed"]
        }
    ],
    "suggested_diagrams": ["List of diagrams to create"],
    "presentation_style": "academic"
}`

// Plan produces the slide outline for a deck. A malformed planning response
// never fails the assembly; it degrades to the deterministic fallback plan.
func (a *Assembler) Plan(ctx context.Context, analysis paper.Analysis, maxSlides int) (Plan, error) {
	if maxSlides <= 0 {
		maxSlides = DefaultMaxSlides
	}

	response, err := a.client.Complete(ctx, llm.Request{
		Tier:        llm.TierHeavy,
		Temperature: 0.4,
		Messages: []llm.Message{
			llm.System(planSystemPrompt),
			llm.User(fmt.Sprintf(planPrompt,
				maxSlides,
				analysis.Title,
				strings.Join(analysis.Authors, ", "),
				analysis.Abstract,
				strings.Join(analysis.KeyFindings, ", "),
				analysis.Methodology,
				analysis.Results,
				analysis.Conclusion,
				maxSlides)),
		},
	})
	if err != nil {
		return Plan{}, err
	}

	if plan, ok := ParsePlan(response); ok {
		return plan, nil
	}
	return FallbackPlan(analysis), nil
}

// ParsePlan attempts the strict parse of a planning response.
func ParsePlan(response string) (Plan, bool) {
	raw, ok := llm.ExtractJSON(response)
	if !ok {
		return Plan{}, false
	}
	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return Plan{}, false
	}
	if len(plan.Slides) == 0 {
		return Plan{}, false
	}
	if plan.TotalSlides == 0 {
		plan.TotalSlides = len(plan.Slides)
	}
	if plan.Style == "" {
		plan.Style = "academic"
	}
	return plan, true
}

// FallbackPlan builds the deterministic eight-slide outline used when the
// planning response cannot be parsed.
func FallbackPlan(analysis paper.Analysis) Plan {
	slides := []Slide{
		{Number: 1, Title: analysis.Title, Content: "Authors: " + strings.Join(analysis.Authors, ", "), Type: "title"},
		{Number: 2, Title: "Agenda", Content: "Introduction, Methodology, Results, Conclusion", Type: "content"},
		{Number: 3, Title: "Introduction", Content: clip(analysis.Abstract, 300), Type: "content"},
		{Number: 4, Title: "Methodology", Content: clip(analysis.Methodology, 400), Type: "content"},
		{Number: 5, Title: "Key Findings", Content: bulleted(analysis.KeyFindings, 3), Type: "content"},
		{Number: 6, Title: "Results", Content: clip(analysis.Results, 400), Type: "content"},
		{Number: 7, Title: "Conclusion", Content: clip(analysis.Conclusion, 300), Type: "conclusion"},
		{Number: 8, Title: "Thank You", Content: "Questions & Discussion", Type: "conclusion"},
	}
	return Plan{
		TotalSlides:       len(slides),
		Slides:            slides,
		SuggestedDiagrams: []string{"Research methodology flowchart", "Results comparison chart"},
		Style:             "academic",
	}
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func bulleted(items []string, max int) string {
	if len(items) > max {
		items = items[:max]
	}
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimSpace(b.String())
}

const deckSystemPrompt = "You are a LaTeX Beamer expert. Generate clean, compilable Beamer presentations."

const deckPrompt = `Generate a complete LaTeX Beamer presentation from this slide plan.

Presentation style: %s
Paper title: %s
Authors: %s

Slide plan:
%s

%s
Requirements:
- \documentclass[aspectratio=169]{beamer} with a professional theme
- One frame per planned slide, following the plan's titles and content
- Insert the provided TikZ fragments on their slides by diagram identifier
- Keep text within frame boundaries; prefer bullets over paragraphs

Return only the complete LaTeX source, no explanations.`

// Deck assembles first-draft deck markup: plan, resolve diagrams, generate.
// It returns the draft document along with the plan and diagrams so callers
// can persist or display them.
func (a *Assembler) Deck(ctx context.Context, analysis paper.Analysis, maxSlides int) (markup.Document, Plan, []diagram.Diagram, error) {
	plan, err := a.Plan(ctx, analysis, maxSlides)
	if err != nil {
		return markup.Document{}, Plan{}, nil, err
	}

	diagrams := a.diagrams.Generate(ctx, diagramRequests(plan), analysis)

	response, err := a.client.Complete(ctx, llm.Request{
		Tier:        llm.TierCoding,
		Temperature: 0.3,
		Messages: []llm.Message{
			llm.System(deckSystemPrompt),
			llm.User(fmt.Sprintf(deckPrompt,
				plan.Style,
				analysis.Title,
				strings.Join(analysis.Authors, ", "),
				formatPlan(plan),
				formatDiagrams(diagrams))),
		},
	})
	if err != nil {
		return markup.Document{}, plan, diagrams, err
	}

	doc := markup.Normalize(markup.New(response, markup.KindDeck))
	a.logger.Info("deck assembled", "slides", plan.TotalSlides, "diagrams", len(diagrams), "chars", len(doc.Source))
	return doc, plan, diagrams, nil
}

// diagramRequests collects every diagram description the plan asks for:
// per-slide requests first, then plan-level suggestions, deduplicated.
func diagramRequests(plan Plan) []string {
	seen := make(map[string]bool)
	var requests []string
	add := func(desc string) {
		desc = strings.TrimSpace(desc)
		if desc == "" || seen[desc] {
			return
		}
		seen[desc] = true
		requests = append(requests, desc)
	}
	for _, slide := range plan.Slides {
		for _, d := range slide.TikzDiagrams {
			add(d)
		}
	}
	for _, d := range plan.SuggestedDiagrams {
		add(d)
	}
	return requests
}

func formatPlan(plan Plan) string {
	var b strings.Builder
	for _, s := range plan.Slides {
		fmt.Fprintf(&b, "Slide %d [%s]: %s\n%s\n", s.Number, s.Type, s.Title, s.Content)
		if s.Notes != "" {
			fmt.Fprintf(&b, "Notes: %s\n", s.Notes)
		}
		if len(s.TikzDiagrams) > 0 {
			fmt.Fprintf(&b, "Diagrams: %s\n", strings.Join(s.TikzDiagrams, "; "))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func formatDiagrams(diagrams []diagram.Diagram) string {
	if len(diagrams) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Available TikZ fragments:\n")
	for _, d := range diagrams {
		fmt.Fprintf(&b, "%s (%s): %s\n%s\n\n", d.ID, d.Type, d.Description, d.TikZ)
	}
	return b.String()
}
