// Package markup defines the immutable markup document value that flows
// through assembly, rendering, and repair, plus the structural normalization
// applied to model-generated sources.
package markup

import (
	"fmt"

	"github.com/scholarshare/scholarshare/pkg/cache"
)

// Kind tags a document with the artifact family it compiles to.
type Kind string

// Document kinds.
const (
	KindPoster Kind = "poster"
	KindDeck   Kind = "deck"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindPoster || k == KindDeck
}

// Document is an immutable markup source with its kind. Repair cycles
// produce new Documents; nothing mutates one in place.
type Document struct {
	Source string
	Kind   Kind
}

// New creates a document.
func New(source string, kind Kind) Document {
	return Document{Source: source, Kind: kind}
}

// WithSource returns a copy of d carrying a new source.
func (d Document) WithSource(source string) Document {
	return Document{Source: source, Kind: d.Kind}
}

// Fingerprint returns a content hash identifying this document. Used as the
// cache key component for inspections and artifacts.
func (d Document) Fingerprint() string {
	return cache.Hash([]byte(fmt.Sprintf("%s\x00%s", d.Kind, d.Source)))
}

// Empty reports whether the document has no source text.
func (d Document) Empty() bool {
	return d.Source == ""
}
