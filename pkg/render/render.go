// Package render compiles markup documents into viewable artifacts and
// rasterizes artifact pages for visual inspection.
//
// The production implementation shells out to a TeX toolchain (pdflatex,
// pdftoppm, pdfinfo). The Renderer interface exists so the repair engine and
// its tests can run against in-memory fakes.
package render

import (
	"context"

	"github.com/scholarshare/scholarshare/pkg/markup"
)

// Artifact is a compiled document on disk.
type Artifact struct {
	// Path is the artifact file (PDF, or HTML for fallback artifacts).
	Path string

	// Pages is the page count. Fallback artifacts always report 1.
	Pages int

	// Fallback marks an artifact produced by the degraded path when
	// compilation failed. Fallback artifacts are never inspected.
	Fallback bool
}

// Renderer compiles markup and rasterizes pages of the result.
type Renderer interface {
	// Render compiles doc into an artifact under dir. It returns an error
	// with code RENDER_FAILURE when compilation fails or times out.
	Render(ctx context.Context, doc markup.Document, dir string) (Artifact, error)

	// Rasterize converts one page (1-based) of the artifact to a PNG scaled
	// to at most maxWidthPx wide. It returns an error with code
	// RASTERIZE_FAILURE when conversion fails.
	Rasterize(ctx context.Context, a Artifact, page, maxWidthPx int) ([]byte, error)
}
