package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/markup"
	"github.com/scholarshare/scholarshare/pkg/observability"
)

// Tool names looked up on PATH.
const (
	pdflatexBin = "pdflatex"
	pdftoppmBin = "pdftoppm"
	pdfinfoBin  = "pdfinfo"
)

// LaTeXRenderer compiles documents with pdflatex and rasterizes pages with
// pdftoppm. Every compilation runs under a wall-clock timeout because
// malformed markup can make pdflatex wait on interactive input forever even
// in nonstop mode.
type LaTeXRenderer struct {
	// Timeout bounds one pdflatex invocation. Zero means no bound.
	Timeout time.Duration
}

// NewLaTeXRenderer creates a renderer with the given compile timeout.
func NewLaTeXRenderer(timeout time.Duration) *LaTeXRenderer {
	return &LaTeXRenderer{Timeout: timeout}
}

// Render implements Renderer. A single pdflatex pass suffices: generated
// documents carry no cross-references that would need a second run.
func (r *LaTeXRenderer) Render(ctx context.Context, doc markup.Document, dir string) (Artifact, error) {
	if doc.Empty() {
		return Artifact{}, errors.New(errors.ErrCodeInvalidMarkup, "cannot render empty document")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, errors.Wrap(errors.ErrCodeRenderFailure, err, "create render directory")
	}

	name := string(doc.Kind)
	texPath := filepath.Join(dir, name+".tex")
	if err := os.WriteFile(texPath, []byte(doc.Source), 0o644); err != nil {
		return Artifact{}, errors.Wrap(errors.ErrCodeRenderFailure, err, "write source")
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, pdflatexBin,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", dir,
		texPath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	pdfPath := filepath.Join(dir, name+".pdf")
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Artifact{}, errors.Wrap(errors.ErrCodeRenderFailure, ctx.Err(), "compilation timed out after %s", r.Timeout)
		}
		return Artifact{}, errors.Wrap(errors.ErrCodeRenderFailure, err, "pdflatex failed: %s", lastLogLines(out.String(), 5))
	}
	if _, statErr := os.Stat(pdfPath); statErr != nil {
		return Artifact{}, errors.New(errors.ErrCodeRenderFailure, "pdflatex exited cleanly but produced no PDF")
	}

	pages, err := r.countPages(ctx, pdfPath)
	if err != nil {
		// A PDF with an unreadable page count is still viewable; treat it
		// as single-page rather than failing the render.
		pages = 1
	}
	return Artifact{Path: pdfPath, Pages: pages}, nil
}

// Rasterize implements Renderer using pdftoppm, which writes the PNG to
// stdout when given no output prefix.
func (r *LaTeXRenderer) Rasterize(ctx context.Context, a Artifact, page, maxWidthPx int) ([]byte, error) {
	if a.Fallback {
		return nil, errors.New(errors.ErrCodeRasterizeFailure, "fallback artifacts cannot be rasterized")
	}
	if page < 1 || (a.Pages > 0 && page > a.Pages) {
		return nil, errors.New(errors.ErrCodeRasterizeFailure, "page %d out of range (1..%d)", page, a.Pages)
	}

	args := []string{
		"-png",
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
	}
	if maxWidthPx > 0 {
		args = append(args, "-scale-to-x", strconv.Itoa(maxWidthPx), "-scale-to-y", "-1")
	}
	args = append(args, a.Path)

	cmd := exec.CommandContext(ctx, pdftoppmBin, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterizeFailure, err, "pdftoppm failed: %s", errBuf.String())
	}
	if out.Len() == 0 {
		return nil, errors.New(errors.ErrCodeRasterizeFailure, "pdftoppm produced no output for page %d", page)
	}
	return out.Bytes(), nil
}

var pdfinfoPages = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

// countPages asks pdfinfo for the page count, falling back to scanning the
// PDF object stream when pdfinfo is unavailable.
func (r *LaTeXRenderer) countPages(ctx context.Context, pdfPath string) (int, error) {
	cmd := exec.CommandContext(ctx, pdfinfoBin, pdfPath)
	out, err := cmd.Output()
	if err == nil {
		if m := pdfinfoPages.FindSubmatch(out); m != nil {
			if n, convErr := strconv.Atoi(string(m[1])); convErr == nil && n > 0 {
				return n, nil
			}
		}
	}

	data, readErr := os.ReadFile(pdfPath)
	if readErr != nil {
		return 0, fmt.Errorf("count pages: %w", readErr)
	}
	if n := CountPageObjects(data); n > 0 {
		return n, nil
	}
	return 0, fmt.Errorf("no page objects found in %s", pdfPath)
}

// CountPageObjects counts /Type /Page markers in raw PDF data. It is a
// best-effort fallback for PDFs whose metadata cannot be queried; it ignores
// the /Pages tree node, which the marker regexp excludes with a boundary.
func CountPageObjects(data []byte) int {
	return len(pageObject.FindAll(data, -1))
}

var pageObject = regexp.MustCompile(`/Type\s*/Page[^s]`)

// lastLogLines trims a compiler transcript to its tail, which is where
// pdflatex reports the actual error.
func lastLogLines(log string, n int) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(log)), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte(" | ")))
}

// TimedRender wraps a Renderer call with observability events. attempt is the
// zero-based repair attempt index.
func TimedRender(ctx context.Context, r Renderer, doc markup.Document, dir string, attempt int) (Artifact, error) {
	observability.Repair().OnRenderStart(ctx, string(doc.Kind), attempt)
	start := time.Now()
	a, err := r.Render(ctx, doc, dir)
	observability.Repair().OnRenderComplete(ctx, string(doc.Kind), attempt, time.Since(start), err)
	return a, err
}

var _ Renderer = (*LaTeXRenderer)(nil)
