// Package paper turns already-extracted paper text into a structured
// analysis that every downstream generator consumes.
//
// Ingestion and OCR are out of scope; callers hand over plain text.
package paper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/scholarshare/scholarshare/pkg/cache"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/observability"
)

// Input is one paper to analyze.
type Input struct {
	Content string `json:"content"`
}

// FigureTable describes one figure or table the analyzer found.
type FigureTable struct {
	Type        string `json:"type" bson:"type"` // figure | table
	Description string `json:"description" bson:"description"`
	Content     string `json:"content,omitempty" bson:"content,omitempty"`
}

// Analysis is the structured extraction of a paper.
type Analysis struct {
	Title           string        `json:"title" bson:"title"`
	Authors         []string      `json:"authors" bson:"authors"`
	Abstract        string        `json:"abstract" bson:"abstract"`
	KeyFindings     []string      `json:"key_findings" bson:"key_findings"`
	Methodology     string        `json:"methodology" bson:"methodology"`
	Results         string        `json:"results" bson:"results"`
	Conclusion      string        `json:"conclusion" bson:"conclusion"`
	ComplexityLevel string        `json:"complexity_level" bson:"complexity_level"`
	TechnicalTerms  []string      `json:"technical_terms" bson:"technical_terms"`
	FiguresTables   []FigureTable `json:"figures_tables" bson:"figures_tables"`
}

const analysisSystemPrompt = "You are an expert research paper analyzer with deep knowledge across multiple academic fields."

const analysisPrompt = `Analyze the following research paper content and extract key information in JSON format.

Paper Content:
%s

Provide a detailed analysis in the following JSON structure:
{
    "title": "Paper title",
    "authors": ["Author 1", "Author 2"],
    "abstract": "Paper abstract",
    "key_findings": ["Finding 1", "Finding 2", "Finding 3"],
    "methodology": "Detailed description of methodology",
    "results": "Summary of key results",
    "conclusion": "Main conclusions",
    "complexity_level": "beginner/intermediate/advanced",
    "technical_terms": ["term1", "term2"],
    "figures_tables": [
        {"type": "figure", "description": "Description", "content": "Content if available"}
    ]
}

Focus on extracting the most important and impactful findings. Be thorough but concise.`

// Analyzer extracts structured analyses through the heavy model tier.
type Analyzer struct {
	client llm.Client
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewAnalyzer creates an analyzer. c may be a NullCache; a nil logger
// discards.
func NewAnalyzer(client llm.Client, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Analyzer {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Analyzer{client: client, cache: c, keyer: keyer, logger: logger}
}

// Analyze extracts a structured analysis from paper text. Provider and
// credential errors propagate; a malformed model response does not, it falls
// back to a minimal analysis built from the raw content.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (Analysis, error) {
	if strings.TrimSpace(in.Content) == "" {
		return Analysis{}, errors.New(errors.ErrCodeInvalidInput, "paper content is empty")
	}

	key := a.keyer.AnalysisKey(cache.Hash([]byte(in.Content)), cache.AnalysisKeyOpts{Model: string(llm.TierHeavy)})
	if data, ok, err := a.cache.Get(ctx, key); err == nil && ok {
		var cached Analysis
		if json.Unmarshal(data, &cached) == nil {
			a.logger.Debug("analysis served from cache", "title", cached.Title)
			observability.Cache().OnCacheHit(ctx, "analysis")
			return cached, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "analysis")

	response, err := a.client.Complete(ctx, llm.Request{
		Tier:        llm.TierHeavy,
		Temperature: 0.3,
		Messages: []llm.Message{
			llm.System(analysisSystemPrompt),
			llm.User(fmt.Sprintf(analysisPrompt, in.Content)),
		},
	})
	if err != nil {
		return Analysis{}, err
	}

	analysis, ok := Parse(response)
	if !ok {
		a.logger.Warn("analysis response unparseable, using fallback")
		analysis = Fallback(in.Content)
	}
	a.logger.Info("paper analyzed", "title", analysis.Title, "findings", len(analysis.KeyFindings))

	if data, err := json.Marshal(analysis); err == nil {
		if a.cache.Set(ctx, key, data, cache.TTLAnalysis) == nil {
			observability.Cache().OnCacheSet(ctx, "analysis", len(data))
		}
	}
	return analysis, nil
}

// Parse attempts the strict schema parse of a model response. The second
// return is false when no usable JSON object is present.
func Parse(response string) (Analysis, bool) {
	raw, ok := llm.ExtractJSON(response)
	if !ok {
		return Analysis{}, false
	}
	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return Analysis{}, false
	}
	if analysis.Title == "" {
		return Analysis{}, false
	}
	return analysis, true
}

// Fallback builds a total, minimal analysis directly from the paper text
// when the strict parse fails. It never errors.
func Fallback(content string) Analysis {
	title := "Untitled Paper"
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); len(trimmed) > 10 {
			title = trimmed
			break
		}
	}

	abstract := content
	if len(abstract) > 500 {
		abstract = abstract[:500] + "..."
	}

	return Analysis{
		Title:           title,
		Authors:         []string{"Unknown Author"},
		Abstract:        abstract,
		KeyFindings:     []string{"Analysis in progress"},
		Methodology:     "To be analyzed",
		Results:         "To be analyzed",
		Conclusion:      "To be analyzed",
		ComplexityLevel: "intermediate",
		TechnicalTerms:  []string{},
		FiguresTables:   []FigureTable{},
	}
}
