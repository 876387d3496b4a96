// Package diagram generates TikZ figures for presentations and renders DOT
// placeholder graphics.
//
// Diagram generation is embarrassingly parallel: each description is
// independent, so the generator fans out one goroutine per description and
// gathers results by index, preserving plan order.
package diagram

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/paper"
)

// Type classifies a diagram by its description.
type Type string

// Diagram types recognized by the heuristic.
const (
	TypeFlowchart    Type = "flowchart"
	TypeArchitecture Type = "architecture"
	TypeTimeline     Type = "timeline"
	TypeComparison   Type = "comparison"
	TypeGraph        Type = "graph"
	TypeNetwork      Type = "network"
	TypeGeneral      Type = "general"
)

// Diagram is one generated TikZ figure.
type Diagram struct {
	ID          string `json:"diagram_id" bson:"diagram_id"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	TikZ        string `json:"tikz_code" bson:"tikz_code"`
	Type        Type   `json:"diagram_type" bson:"diagram_type"`
}

// typeKeywords drive the description heuristic, checked in order.
var typeKeywords = []struct {
	t     Type
	words []string
}{
	{TypeFlowchart, []string{"flow", "process", "step", "workflow"}},
	{TypeArchitecture, []string{"architecture", "system", "structure", "framework"}},
	{TypeTimeline, []string{"timeline", "sequence", "chronological", "time"}},
	{TypeComparison, []string{"comparison", "vs", "versus", "compare", "before", "after"}},
	{TypeGraph, []string{"graph", "chart", "plot", "data", "statistics"}},
	{TypeNetwork, []string{"network", "connection", "relationship", "link"}},
}

// TypeOf classifies a diagram description.
func TypeOf(description string) Type {
	lower := strings.ToLower(description)
	for _, entry := range typeKeywords {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				return entry.t
			}
		}
	}
	return TypeGeneral
}

// CleanTikZ strips code fences and guarantees a tikzpicture environment so
// the fragment can be pasted into any document body.
func CleanTikZ(code string) string {
	code = markup.StripFences(code)
	if !strings.Contains(code, "\\begin{tikzpicture}") {
		code = fmt.Sprintf("\\begin{tikzpicture}[node distance=2cm, auto]\n%s\n\\end{tikzpicture}", code)
	}
	return strings.TrimSpace(code)
}

const tikzSystemPrompt = "You are a TikZ expert specializing in creating academic diagrams and visualizations. Generate clean, professional TikZ code."

const tikzPrompt = `Create a TikZ diagram for a research presentation based on this description and paper content.

Diagram Description: %s

Paper Context:
Title: %s
Methodology: %s
Key Findings: %s

Generate clean, professional TikZ code that fits within slide dimensions,
uses readable fonts, and uses appropriate TikZ libraries (shapes, arrows,
positioning).

Provide ONLY the TikZ code within a tikzpicture environment, without document
structure and without explanations.`

// Generator produces TikZ diagrams through the coding model tier.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a diagram generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate produces one diagram per description, concurrently. Failed
// descriptions are dropped; the returned slice keeps plan order and assigns
// sequential IDs of the form diagram_N matching the plan's references.
func (g *Generator) Generate(ctx context.Context, descriptions []string, analysis paper.Analysis) []Diagram {
	results := make([]*Diagram, len(descriptions))

	var wg sync.WaitGroup
	for i, desc := range descriptions {
		wg.Add(1)
		go func(i int, desc string) {
			defer wg.Done()
			d, err := g.generateOne(ctx, desc, analysis, i+1)
			if err != nil {
				return
			}
			results[i] = &d
		}(i, desc)
	}
	wg.Wait()

	diagrams := make([]Diagram, 0, len(descriptions))
	for _, d := range results {
		if d != nil {
			diagrams = append(diagrams, *d)
		}
	}
	return diagrams
}

func (g *Generator) generateOne(ctx context.Context, description string, analysis paper.Analysis, num int) (Diagram, error) {
	response, err := g.client.Complete(ctx, llm.Request{
		Tier:        llm.TierCoding,
		Temperature: 0.3,
		Messages: []llm.Message{
			llm.System(tikzSystemPrompt),
			llm.User(fmt.Sprintf(tikzPrompt,
				description,
				analysis.Title,
				analysis.Methodology,
				strings.Join(analysis.KeyFindings, ", "))),
		},
	})
	if err != nil {
		return Diagram{}, err
	}

	return Diagram{
		ID:          fmt.Sprintf("diagram_%d", num),
		Title:       fmt.Sprintf("Diagram %d", num),
		Description: description,
		TikZ:        CleanTikZ(response),
		Type:        TypeOf(description),
	}, nil
}
