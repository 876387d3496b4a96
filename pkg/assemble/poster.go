// Package assemble produces first-draft markup documents from a paper
// analysis, ready to hand to the repair engine.
//
// Posters are a single generation call. Decks are assembled in stages: a
// planning call produces a slide-by-slide outline, diagram requests from the
// plan are resolved concurrently, and a final generation call expands the
// plan plus the finished diagram fragments into full markup.
package assemble

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scholarshare/scholarshare/pkg/diagram"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/paper"
)

// PosterStyle selects the visual template family.
type PosterStyle string

// Poster styles.
const (
	StyleIEEE   PosterStyle = "ieee"
	StyleACM    PosterStyle = "acm"
	StyleNature PosterStyle = "nature"
)

// Valid reports whether s is a known style.
func (s PosterStyle) Valid() bool {
	return s == StyleIEEE || s == StyleACM || s == StyleNature
}

// Orientations.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Assembler builds first-draft documents.
type Assembler struct {
	client   llm.Client
	diagrams *diagram.Generator
	logger   *log.Logger
}

// New creates an assembler; the diagram generator is built on the same
// client. A nil logger discards.
func New(client llm.Client, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Assembler{client: client, diagrams: diagram.NewGenerator(client), logger: logger}
}

const posterSystemPrompt = "You are a LaTeX expert specializing in academic poster design. Generate clean, compilable LaTeX code."

const posterPrompt = `Generate LaTeX code for an academic conference poster using the %s style
in %s orientation.

Paper Details:
Title: %s
Authors: %s
Abstract: %s
Methodology: %s
Results: %s
Conclusion: %s
Key Findings: %s

Requirements:
- Use the tikzposter package
- Professional academic layout with clear sections: Abstract, Methodology, Results, Conclusion
- Appropriate fonts and colors for the %s style
- None of the sections may be empty, missing, or extend past the poster edge

Generate complete LaTeX code that compiles directly. Return only the code, no explanations.`

// Poster generates first-draft poster markup.
func (a *Assembler) Poster(ctx context.Context, analysis paper.Analysis, style PosterStyle, orientation string) (markup.Document, error) {
	if !style.Valid() {
		return markup.Document{}, errors.New(errors.ErrCodeInvalidStyle, "unknown poster style %q", style)
	}
	if orientation != OrientationPortrait && orientation != OrientationLandscape {
		return markup.Document{}, errors.New(errors.ErrCodeInvalidInput, "unknown orientation %q", orientation)
	}

	response, err := a.client.Complete(ctx, llm.Request{
		Tier:        llm.TierCoding,
		Temperature: 0.3,
		Messages: []llm.Message{
			llm.System(posterSystemPrompt),
			llm.User(fmt.Sprintf(posterPrompt,
				style, orientation,
				analysis.Title,
				strings.Join(analysis.Authors, ", "),
				analysis.Abstract,
				analysis.Methodology,
				analysis.Results,
				analysis.Conclusion,
				strings.Join(analysis.KeyFindings, ", "),
				style)),
		},
	})
	if err != nil {
		return markup.Document{}, err
	}

	doc := markup.Normalize(markup.New(response, markup.KindPoster))
	a.logger.Info("poster drafted", "style", style, "orientation", orientation, "chars", len(doc.Source))
	return doc, nil
}
