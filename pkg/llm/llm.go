// Package llm abstracts the text-completion capability behind a small
// interface so engines can be tested against function-backed fakes and the
// provider can be swapped without touching callers.
//
// Calls are routed by model tier rather than by model name: light for cheap
// classification-style work, heavy for long-form generation, coding for
// markup and diagram synthesis.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Tier selects a capability class of model.
type Tier string

// Model tiers.
const (
	TierLight  Tier = "light"
	TierHeavy  Tier = "heavy"
	TierCoding Tier = "coding"
)

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one content part of a message: text, or an inline image encoded
// as a data URL for vision-capable models.
type Part struct {
	Text     string
	ImageURL string
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline PNG image part using the base64 data-URL
// transport encoding.
func ImagePart(png []byte) Part {
	return Part{ImageURL: fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png))}
}

// Message is one turn of a conversation.
type Message struct {
	Role  Role
	Parts []Part
}

// System builds a system message.
func System(text string) Message {
	return Message{Role: RoleSystem, Parts: []Part{TextPart(text)}}
}

// User builds a plain-text user message.
func User(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart(text)}}
}

// UserWithImage builds a multi-part user message carrying an instruction
// block and a PNG bitmap.
func UserWithImage(text string, png []byte) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart(text), ImagePart(png)}}
}

// Request is one completion call.
type Request struct {
	Messages    []Message
	Tier        Tier
	Temperature float64
}

// Client is the completion capability.
type Client interface {
	// Complete sends the conversation and returns the generated text.
	// Errors carry errors.ErrCodeCapabilityUnavailable when the tier has no
	// credentials, errors.ErrCodeTimeout when the call exceeded its bound,
	// and errors.ErrCodeProvider for any other provider failure.
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ImageGenerator is the image-generation capability used for social cards.
type ImageGenerator interface {
	// GenerateImage returns PNG bytes for the given visual prompt.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}
