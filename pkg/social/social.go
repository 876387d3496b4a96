// Package social generates platform-specific announcement content for a
// paper: LinkedIn, a Twitter thread, Facebook, and Instagram, each with a
// generated card image.
package social

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/scholarshare/scholarshare/pkg/diagram"
	"github.com/scholarshare/scholarshare/pkg/llm"
	"github.com/scholarshare/scholarshare/pkg/paper"
)

// Platform names, also used as image map keys.
const (
	PlatformLinkedIn  = "linkedin"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
)

// Platforms lists every supported platform in generation order.
var Platforms = []string{PlatformLinkedIn, PlatformTwitter, PlatformFacebook, PlatformInstagram}

// MaxTweets caps a generated thread.
const MaxTweets = 5

// Content is the full social bundle for one paper.
type Content struct {
	LinkedInPost     string            `json:"linkedin_post" bson:"linkedin_post"`
	TwitterThread    []string          `json:"twitter_thread" bson:"twitter_thread"`
	FacebookPost     string            `json:"facebook_post" bson:"facebook_post"`
	InstagramCaption string            `json:"instagram_caption" bson:"instagram_caption"`
	Hashtags         []string          `json:"hashtags" bson:"hashtags"`
	Images           map[string][]byte `json:"-" bson:"-"` // keyed by platform; absent on total failure
}

const socialSystemPrompt = "You are a social media expert who creates engaging, platform-specific content."

var platformPrompts = map[string]string{
	PlatformLinkedIn: `Create a professional LinkedIn post about this research:

Title: %s
Key Findings: %s
Methodology: %s

Requirements: professional tone, 1200 characters max, relevant hashtags,
highlight practical implications, key findings and methodology as bullets.
Return only the post content.`,

	PlatformTwitter: `Create a Twitter thread (3-5 tweets) about this research:

Title: %s
Key Findings: %s
Methodology: %s

Requirements: each tweet max 280 characters, start with a hook, number the
tweets (1/n), end with a call to action. Return only the thread content.`,

	PlatformFacebook: `Create an engaging Facebook post about this research:

Title: %s
Key Findings: %s
Methodology: %s

Requirements: conversational tone, ask a question to invite comments, use
emojis sparingly, 500 characters max. Return only the post content.`,

	PlatformInstagram: `Create an Instagram caption about this research:

Title: %s
Key Findings: %s
Methodology: %s

Requirements: visual-friendly language, line breaks for readability,
relevant emojis and hashtags, 2200 characters max. Return only the caption.`,
}

// Generator produces social bundles. Text goes through the light model tier;
// images through the image capability with a local placeholder fallback.
type Generator struct {
	client llm.Client
	images llm.ImageGenerator
}

// NewGenerator creates a social generator. images may be nil; every card
// then uses the local placeholder.
func NewGenerator(client llm.Client, images llm.ImageGenerator) *Generator {
	return &Generator{client: client, images: images}
}

// Generate builds the full bundle. The first failed text generation aborts;
// image failures never do.
func (g *Generator) Generate(ctx context.Context, analysis paper.Analysis) (Content, error) {
	texts := make(map[string]string, len(Platforms))
	for _, platform := range Platforms {
		text, err := g.platformText(ctx, platform, analysis)
		if err != nil {
			return Content{}, err
		}
		texts[platform] = text
	}

	return Content{
		LinkedInPost:     texts[PlatformLinkedIn],
		TwitterThread:    SplitThread(texts[PlatformTwitter]),
		FacebookPost:     texts[PlatformFacebook],
		InstagramCaption: texts[PlatformInstagram],
		Hashtags:         Hashtags(analysis),
		Images:           g.generateImages(ctx, analysis),
	}, nil
}

func (g *Generator) platformText(ctx context.Context, platform string, analysis paper.Analysis) (string, error) {
	prompt := fmt.Sprintf(platformPrompts[platform],
		analysis.Title,
		strings.Join(analysis.KeyFindings, ", "),
		analysis.Methodology)

	return g.client.Complete(ctx, llm.Request{
		Tier:        llm.TierLight,
		Temperature: 0.8,
		Messages: []llm.Message{
			llm.System(socialSystemPrompt),
			llm.User(prompt),
		},
	})
}

// generateImages produces one card per platform concurrently, gathered by
// index. A failed remote generation falls back to the local placeholder; a
// failed placeholder leaves the platform without an image.
func (g *Generator) generateImages(ctx context.Context, analysis paper.Analysis) map[string][]byte {
	results := make([][]byte, len(Platforms))

	var wg sync.WaitGroup
	for i, platform := range Platforms {
		wg.Add(1)
		go func(i int, platform string) {
			defer wg.Done()

			if g.images != nil {
				png, err := g.images.GenerateImage(ctx, imagePrompt(platform, analysis))
				if err == nil {
					results[i] = png
					return
				}
			}
			if png, err := diagram.PlaceholderCard(ctx, analysis.Title, platform); err == nil {
				results[i] = png
			}
		}(i, platform)
	}
	wg.Wait()

	images := make(map[string][]byte, len(Platforms))
	for i, platform := range Platforms {
		if results[i] != nil {
			images[platform] = results[i]
		}
	}
	return images
}

func imagePrompt(platform string, analysis paper.Analysis) string {
	finding := ""
	if len(analysis.KeyFindings) > 0 {
		finding = analysis.KeyFindings[0]
	}
	return fmt.Sprintf(
		"A clean, modern %s card visualizing the research paper %q. Key idea: %s. Flat design, bold typography, no text artifacts, academic but eye-catching.",
		platform, analysis.Title, finding)
}

// SplitThread splits a generated thread into individual tweets on numbering
// markers (1/, 2., ...), capping at MaxTweets. Unmarked lines are appended
// to the current tweet.
func SplitThread(response string) []string {
	var tweets []string
	var current string

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if startsThreadMarker(line) {
			if current != "" {
				tweets = append(tweets, strings.TrimSpace(current))
			}
			current = line
		} else if current != "" {
			current += " " + line
		} else {
			current = line
		}
	}
	if current != "" {
		tweets = append(tweets, strings.TrimSpace(current))
	}

	if len(tweets) > MaxTweets {
		tweets = tweets[:MaxTweets]
	}
	return tweets
}

func startsThreadMarker(line string) bool {
	for n := 1; n <= MaxTweets; n++ {
		if strings.HasPrefix(line, fmt.Sprintf("%d/", n)) || strings.HasPrefix(line, fmt.Sprintf("%d.", n)) {
			return true
		}
	}
	return false
}

// hashtagFields maps title keywords to field hashtags, checked in order.
var hashtagFields = []struct {
	words []string
	tags  []string
}{
	{[]string{"artificial intelligence", "ai"}, []string{"#AI", "#MachineLearning", "#Technology"}},
	{[]string{"machine learning"}, []string{"#MachineLearning", "#DataScience", "#AI"}},
	{[]string{"computer"}, []string{"#ComputerScience", "#Technology", "#Programming"}},
	{[]string{"biology", "medical"}, []string{"#Biology", "#Medicine", "#Healthcare"}},
	{[]string{"physics"}, []string{"#Physics", "#Science"}},
	{[]string{"chemistry"}, []string{"#Chemistry", "#Science"}},
}

// Hashtags derives up to ten hashtags from the paper title.
func Hashtags(analysis paper.Analysis) []string {
	tags := []string{"#research", "#science", "#academic"}

	lower := strings.ToLower(analysis.Title)
	for _, entry := range hashtagFields {
		matched := false
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				tags = append(tags, entry.tags...)
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}

	if len(tags) > 10 {
		tags = tags[:10]
	}
	return tags
}
