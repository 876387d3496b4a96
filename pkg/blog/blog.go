// Package blog turns a paper analysis into a publishable long-form post.
package blog

import (
	"context"
	"fmt"
	"strings"

	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/paper"
)

// Post is a generated blog article.
type Post struct {
	Title           string   `json:"title" bson:"title"`
	Content         string   `json:"content" bson:"content"` // markdown, title removed
	Tags            []string `json:"tags" bson:"tags"`
	MetaDescription string   `json:"meta_description" bson:"meta_description"`
	ReadingTime     int      `json:"reading_time" bson:"reading_time"` // minutes
}

const blogSystemPrompt = "You are an expert computer scientist and blog writer who excels at making complex research accessible to everyone."

const blogPrompt = `Transform this research paper analysis into an engaging, technically accurate,
beginner-friendly blog post.

Paper Analysis:
Title: %s
Authors: %s
Abstract: %s
Key Findings: %s
Methodology: %s
Results: %s
Conclusion: %s
Complexity Level: %s

The post must:
1. Explain complex concepts in simple terms, using analogies for technical terms
2. Open with an engaging introduction that hooks the reader
3. Explain the key findings and methodology in detail
4. Cover the practical implications of the findings
5. Use markdown with clear headings, starting with a single catchy H1 title
6. Close with key takeaways

Return only the blog post content in markdown. No preamble or trailing notes.`

// Generator produces blog posts through the heavy model tier.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a blog generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate produces a post from an analysis. Provider errors propagate.
func (g *Generator) Generate(ctx context.Context, analysis paper.Analysis) (Post, error) {
	response, err := g.client.Complete(ctx, llm.Request{
		Tier:        llm.TierHeavy,
		Temperature: 0.7,
		Messages: []llm.Message{
			llm.System(blogSystemPrompt),
			llm.User(fmt.Sprintf(blogPrompt,
				analysis.Title,
				strings.Join(analysis.Authors, ", "),
				analysis.Abstract,
				strings.Join(analysis.KeyFindings, ", "),
				analysis.Methodology,
				analysis.Results,
				analysis.Conclusion,
				analysis.ComplexityLevel)),
		},
	})
	if err != nil {
		return Post{}, err
	}

	content := CleanContent(response)
	return Post{
		Title:           ExtractTitle(response),
		Content:         content,
		Tags:            Tags(response, analysis),
		MetaDescription: MetaDescription(analysis),
		ReadingTime:     ReadingTime(content),
	}, nil
}

// ExtractTitle returns the first H1 heading, or a generic title when the
// post has none.
func ExtractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "##") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	return "Research Insights: Latest Findings"
}

// CleanContent removes the first H1 from the body so the title is not
// duplicated when the post is rendered under its own heading.
func CleanContent(content string) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	titleFound := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !titleFound && strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "##") {
			titleFound = true
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// fieldTags maps field keywords found in the post to candidate tags; only
// the first matching field contributes, and only its first two tags.
var fieldTags = []struct {
	field string
	tags  []string
}{
	{"machine learning", []string{"machinelearning", "datascience"}},
	{"ai", []string{"ai", "machinelearning"}},
	{"data science", []string{"datascience", "bigdata"}},
	{"cybersecurity", []string{"cybersecurity", "infosec"}},
	{"cloud computing", []string{"cloudcomputing", "serverless"}},
	{"software development", []string{"softwaredevelopment", "devops"}},
	{"computer science", []string{"computerscience", "algorithms"}},
}

// Tags derives up to ten post tags from the complexity level and a field
// keyword scan. Deterministic: base tags first, then complexity, then field.
func Tags(content string, analysis paper.Analysis) []string {
	tags := []string{"research", "science", "academic"}

	switch analysis.ComplexityLevel {
	case "beginner":
		tags = append(tags, "beginners", "explained")
	case "advanced":
		tags = append(tags, "advanced", "technical")
	}

	lower := strings.ToLower(content)
	for _, entry := range fieldTags {
		if strings.Contains(lower, entry.field) {
			tags = append(tags, entry.tags...)
			break
		}
	}

	seen := make(map[string]bool, len(tags))
	unique := tags[:0]
	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			unique = append(unique, tag)
		}
	}
	if len(unique) > 10 {
		unique = unique[:10]
	}
	return unique
}

// MetaDescription builds the SEO description from the first key finding.
func MetaDescription(analysis paper.Analysis) string {
	if len(analysis.KeyFindings) > 0 {
		finding := analysis.KeyFindings[0]
		if len(finding) > 100 {
			finding = finding[:100]
		}
		return fmt.Sprintf("Discover how %s... Latest research insights explained in simple terms.", finding)
	}
	title := analysis.Title
	if len(title) > 50 {
		title = title[:50]
	}
	return fmt.Sprintf("Explore the latest research findings from %s... explained for everyone.", title)
}

// ReadingTime estimates minutes at 200 words per minute, minimum one.
func ReadingTime(content string) int {
	minutes := len(strings.Fields(content)) / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}
