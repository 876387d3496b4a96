// Package critic judges whether a rendered page's layout is acceptable and,
// when it is not, asks for corrected markup.
//
// The verdict is parsed from free-text model output, so the parsing rule is a
// pluggable Classifier strategy rather than a hardcoded string match. Each
// document kind ships a preset classifier matched to its prompt wording.
package critic

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/markup"
)

// Verdict is the critic's fitness judgment for one page.
type Verdict string

// Verdicts.
const (
	Fit   Verdict = "fit"
	Unfit Verdict = "unfit"
)

// Inspection is the result of critiquing one rendered page.
type Inspection struct {
	// Verdict is the fitness judgment.
	Verdict Verdict `json:"verdict"`

	// Rationale is the critique text, or the error text when the critic
	// itself failed. Never empty.
	Rationale string `json:"rationale"`

	// Repair is corrected markup, present only when the verdict is Unfit and
	// a usable suggestion was produced.
	Repair *markup.Document `json:"repair,omitempty"`
}

// Classifier turns a free-text critique into a verdict.
type Classifier interface {
	// Name identifies the classification rule, used in cache keys so a rule
	// change invalidates cached inspections.
	Name() string

	// Classify parses the critique text.
	Classify(response string) Verdict
}

// PhraseClassifier is the poster verdict rule: Unfit only when the response
// contains the negative token "NO" (any casing) and the exact phrase
// "fits properly" echoed from the inspection prompt. The phrase match is
// case-sensitive; a response that restyles the phrase is treated as not
// echoing it. The coupling to the prompt wording is deliberate; swap the
// classifier if the prompt changes.
type PhraseClassifier struct{}

// Name implements Classifier.
func (PhraseClassifier) Name() string { return "phrase" }

// Classify implements Classifier.
func (PhraseClassifier) Classify(response string) Verdict {
	if strings.Contains(strings.ToUpper(response), "NO") &&
		strings.Contains(response, "fits properly") {
		return Unfit
	}
	return Fit
}

// deckKeywords are the defect terms whose presence marks a slide Unfit.
var deckKeywords = []string{
	"poor",
	"fair",
	"cramped",
	"overflow",
	"cut-off",
	"overlapping",
	"unreadable",
	"too small",
	"needs improvement",
	"regenerate",
}

// KeywordClassifier is the presentation verdict rule: Unfit when the
// response contains any defect keyword, case-insensitive.
type KeywordClassifier struct {
	// Keywords overrides the default defect set when non-empty.
	Keywords []string
}

// Name implements Classifier.
func (KeywordClassifier) Name() string { return "keyword" }

// Classify implements Classifier.
func (c KeywordClassifier) Classify(response string) Verdict {
	keywords := c.Keywords
	if len(keywords) == 0 {
		keywords = deckKeywords
	}
	lower := strings.ToLower(response)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return Unfit
		}
	}
	return Fit
}

// ClassifierFor returns the preset classifier for a document kind.
func ClassifierFor(kind markup.Kind) Classifier {
	if kind == markup.KindDeck {
		return KeywordClassifier{}
	}
	return PhraseClassifier{}
}

// Critic inspects rendered pages through a vision-capable completion model.
type Critic struct {
	client     llm.Client
	classifier Classifier
	logger     *log.Logger
}

// New creates a critic. A nil classifier is replaced per call by the
// document kind's preset; a nil logger discards.
func New(client llm.Client, classifier Classifier, logger *log.Logger) *Critic {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Critic{client: client, classifier: classifier, logger: logger}
}

// ClassifierName reports the name of the verdict rule the critic will apply
// to documents of the given kind.
func (c *Critic) ClassifierName(kind markup.Kind) string {
	return c.classifierFor(kind).Name()
}

func (c *Critic) classifierFor(kind markup.Kind) Classifier {
	if c.classifier != nil {
		return c.classifier
	}
	return ClassifierFor(kind)
}

const posterInspectPrompt = `You are reviewing a rendered research poster for layout quality.
Examine the image carefully and check for these defects:
- content exceeding the page margins
- overlapping blocks or figures
- truncated or cut-off text
- cramped sections with insufficient whitespace
- missing expected sections (title, authors, findings)

Does the content fits properly within the poster layout? Answer YES or NO first, then explain what you found.`

const deckInspectPrompt = `You are reviewing slide %d of a rendered research presentation for layout quality.
Examine the image carefully and check for these defects:
- content exceeding the slide boundaries
- overlapping elements
- truncated or cut-off text
- cramped layout or text that is too small to read
- missing slide structure (title, body)

Rate the slide layout as excellent, good, fair, or poor, and describe any defects you found.`

// inspectPrompt returns the instruction block for the document kind. The
// poster wording must keep the "fits properly" phrase the PhraseClassifier
// keys on.
func inspectPrompt(kind markup.Kind, page int) string {
	if kind == markup.KindDeck {
		return fmt.Sprintf(deckInspectPrompt, page)
	}
	return posterInspectPrompt
}

const repairPrompt = `The following %s source produced a layout with defects.

Source:
%s

Layout critique:
%s

Rewrite the complete source fixing the reported defects: keep content within margins, remove overlaps, uncrowd cramped sections, and preserve all content. Return only the corrected source with no explanation and no code fences.`

// Inspect implements the layout critique for one rendered page. Any failure
// along the way yields an Unfit inspection carrying the error text and no
// repair; the critic never confirms fitness it could not observe.
func (c *Critic) Inspect(ctx context.Context, png []byte, doc markup.Document, page int) Inspection {
	classifier := c.classifierFor(doc.Kind)

	critique, err := c.client.Complete(ctx, llm.Request{
		Tier:        llm.TierHeavy,
		Temperature: 0.2,
		Messages: []llm.Message{
			llm.UserWithImage(inspectPrompt(doc.Kind, page), png),
		},
	})
	if err != nil {
		return Inspection{Verdict: Unfit, Rationale: err.Error()}
	}
	if strings.TrimSpace(critique) == "" {
		return Inspection{Verdict: Unfit, Rationale: "critic returned an empty critique"}
	}

	if classifier.Classify(critique) == Fit {
		c.logger.Debug("page inspected", "kind", doc.Kind, "page", page, "verdict", Fit)
		return Inspection{Verdict: Fit, Rationale: critique}
	}
	c.logger.Debug("page inspected", "kind", doc.Kind, "page", page, "verdict", Unfit)

	repaired, err := c.suggestRepair(ctx, doc, critique)
	if err != nil {
		// The verdict stands; only the suggestion is lost.
		c.logger.Warn("repair suggestion failed", "kind", doc.Kind, "page", page, "err", err)
		return Inspection{Verdict: Unfit, Rationale: critique}
	}
	return Inspection{Verdict: Unfit, Rationale: critique, Repair: &repaired}
}

// suggestRepair asks for corrected markup given the critique.
func (c *Critic) suggestRepair(ctx context.Context, doc markup.Document, critique string) (markup.Document, error) {
	kindName := "LaTeX poster"
	if doc.Kind == markup.KindDeck {
		kindName = "Beamer presentation"
	}

	out, err := c.client.Complete(ctx, llm.Request{
		Tier:        llm.TierCoding,
		Temperature: 0.3,
		Messages: []llm.Message{
			llm.User(strings.TrimSpace(
				fmt.Sprintf(repairPrompt, kindName, doc.Source, critique))),
		},
	})
	if err != nil {
		return markup.Document{}, err
	}
	cleaned := markup.StripFences(out)
	if cleaned == "" {
		return markup.Document{}, errors.New(errors.ErrCodeCriticInconclusive, "repair call returned no markup")
	}
	return doc.WithSource(cleaned), nil
}
