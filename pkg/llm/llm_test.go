package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/scholarshare/scholarshare/pkg/config"
	"github.com/scholarshare/scholarshare/pkg/errors"
)

func TestImagePartEncoding(t *testing.T) {
	p := ImagePart([]byte{0x89, 'P', 'N', 'G'})
	if !strings.HasPrefix(p.ImageURL, "data:image/png;base64,") {
		t.Errorf("ImagePart URL = %q, want data URL prefix", p.ImageURL)
	}
	if p.Text != "" {
		t.Error("image part should carry no text")
	}
}

func TestUserWithImage(t *testing.T) {
	m := UserWithImage("look at this", []byte("png"))
	if m.Role != RoleUser {
		t.Errorf("role = %q, want user", m.Role)
	}
	if len(m.Parts) != 2 {
		t.Fatalf("parts = %d, want 2", len(m.Parts))
	}
	if m.Parts[0].Text != "look at this" || m.Parts[1].ImageURL == "" {
		t.Error("expected text part followed by image part")
	}
	if !hasImage(m) {
		t.Error("hasImage should be true")
	}
	if hasImage(User("plain")) {
		t.Error("hasImage should be false for plain message")
	}
}

func TestJoinText(t *testing.T) {
	m := Message{Role: RoleSystem, Parts: []Part{TextPart("a"), TextPart("b"), {ImageURL: "ignored"}}}
	if got := joinText(m); got != "a\nb" {
		t.Errorf("joinText = %q, want %q", got, "a\nb")
	}
}

func TestClientFunc(t *testing.T) {
	c := ClientFunc(func(ctx context.Context, req Request) (string, error) {
		return "echo:" + req.Messages[0].Parts[0].Text, nil
	})
	got, err := c.Complete(context.Background(), Request{Messages: []Message{User("hi")}})
	if err != nil {
		t.Fatal(err)
	}
	if got != "echo:hi" {
		t.Errorf("Complete = %q", got)
	}
}

func TestOpenAIClientUnconfiguredTier(t *testing.T) {
	c := NewOpenAIClient(func(Tier) config.ModelConfig {
		return config.ModelConfig{} // no key, no model
	}, time.Second)

	_, err := c.Complete(context.Background(), Request{Tier: TierHeavy, Messages: []Message{User("hi")}})
	if !errors.Is(err, errors.ErrCodeCapabilityUnavailable) {
		t.Errorf("error = %v, want CAPABILITY_UNAVAILABLE", err)
	}
}

func TestImageGeneratorUnconfigured(t *testing.T) {
	g := NewOpenAIImageGenerator(func() config.ModelConfig {
		return config.ModelConfig{}
	}, "", time.Second)

	_, err := g.GenerateImage(context.Background(), "a diagram")
	if !errors.Is(err, errors.ErrCodeCapabilityUnavailable) {
		t.Errorf("error = %v, want CAPABILITY_UNAVAILABLE", err)
	}
}
