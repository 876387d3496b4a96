package blog

import (
	"context"
	"strings"
	"testing"

	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/paper"
)

const samplePost = `# Why Attention Changed Everything

## The Problem

Recurrent models were slow.

## The Idea

Self-attention looks at everything at once. This matters for machine learning systems.
`

func TestExtractTitle(t *testing.T) {
	if got := ExtractTitle(samplePost); got != "Why Attention Changed Everything" {
		t.Errorf("title = %q", got)
	}
	if got := ExtractTitle("## Only Subheadings\ntext"); got != "Research Insights: Latest Findings" {
		t.Errorf("default title = %q", got)
	}
}

func TestCleanContentRemovesOnlyFirstH1(t *testing.T) {
	cleaned := CleanContent(samplePost)
	if strings.Contains(cleaned, "# Why Attention") {
		t.Error("first H1 should be removed")
	}
	if !strings.Contains(cleaned, "## The Problem") || !strings.Contains(cleaned, "## The Idea") {
		t.Error("subheadings must survive cleaning")
	}
}

func TestTags(t *testing.T) {
	analysis := paper.Analysis{ComplexityLevel: "advanced"}
	tags := Tags(samplePost, analysis)

	want := map[string]bool{"research": true, "advanced": true, "technical": true, "machinelearning": true}
	got := make(map[string]bool, len(tags))
	for _, tag := range tags {
		got[tag] = true
	}
	for tag := range want {
		if !got[tag] {
			t.Errorf("missing tag %q in %v", tag, tags)
		}
	}
	if len(tags) > 10 {
		t.Errorf("tags = %d, want at most 10", len(tags))
	}
}

func TestTagsBeginnerNoField(t *testing.T) {
	tags := Tags("nothing field-specific here", paper.Analysis{ComplexityLevel: "beginner"})
	joined := strings.Join(tags, ",")
	if !strings.Contains(joined, "beginners") || !strings.Contains(joined, "explained") {
		t.Errorf("tags = %v", tags)
	}
}

func TestMetaDescription(t *testing.T) {
	withFinding := MetaDescription(paper.Analysis{KeyFindings: []string{"sampling preserves accuracy"}})
	if !strings.Contains(withFinding, "sampling preserves accuracy") {
		t.Errorf("meta = %q", withFinding)
	}
	withoutFinding := MetaDescription(paper.Analysis{Title: "Some Title"})
	if !strings.Contains(withoutFinding, "Some Title") {
		t.Errorf("meta = %q", withoutFinding)
	}
}

func TestReadingTime(t *testing.T) {
	if got := ReadingTime("a few words"); got != 1 {
		t.Errorf("minimum = %d, want 1", got)
	}
	if got := ReadingTime(strings.Repeat("word ", 450)); got != 2 {
		t.Errorf("450 words = %d minutes, want 2", got)
	}
}

func TestGenerate(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return samplePost, nil
	})

	post, err := NewGenerator(client).Generate(context.Background(), paper.Analysis{
		Title:           "Attention Is All You Need",
		KeyFindings:     []string{"attention replaces recurrence"},
		ComplexityLevel: "advanced",
	})
	if err != nil {
		t.Fatal(err)
	}
	if post.Title != "Why Attention Changed Everything" {
		t.Errorf("title = %q", post.Title)
	}
	if strings.HasPrefix(post.Content, "#") && !strings.HasPrefix(post.Content, "##") {
		t.Error("content should not start with the duplicated H1")
	}
	if post.ReadingTime < 1 {
		t.Error("reading time should be at least one minute")
	}
}

func TestHTMLExport(t *testing.T) {
	post := Post{
		Title:           "A <Title>",
		Content:         "## Heading\n\nSome **bold** text.",
		MetaDescription: "desc",
		ReadingTime:     3,
	}

	fragment, err := HTML(post)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fragment, "<h2") || !strings.Contains(fragment, "<strong>bold</strong>") {
		t.Errorf("fragment = %q", fragment)
	}

	page, err := ExportPage(post)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(page, "A &lt;Title&gt;") {
		t.Error("title must be escaped in the page shell")
	}
	if !strings.Contains(page, "3 min read") {
		t.Error("page should show reading time")
	}
}
