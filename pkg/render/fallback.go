package render

import (
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/markup"
)

// fallbackPage is the degraded artifact shown when compilation never
// succeeds. It presents the raw markup so the user can compile it manually.
const fallbackPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{TITLE}}</title>
<style>
body { font-family: Georgia, serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a2e; }
.notice { background: #fff3cd; border: 1px solid #ffeeba; border-radius: 6px; padding: 1rem; margin-bottom: 1.5rem; }
pre { background: #f6f8fa; border: 1px solid #d0d7de; border-radius: 6px; padding: 1rem; overflow-x: auto; font-size: 0.85rem; line-height: 1.4; }
</style>
</head>
<body>
<h1>{{TITLE}}</h1>
<div class="notice">Automatic compilation failed. The generated source below can be compiled manually with a local TeX installation.</div>
<pre>{{SOURCE}}</pre>
</body>
</html>
`

// WriteFallback writes an HTML artifact embedding the document source under
// dir. The returned artifact is marked Fallback and must never be inspected
// or rasterized.
func WriteFallback(doc markup.Document, dir, title string) (Artifact, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifact{}, errors.Wrap(errors.ErrCodeInternal, err, "create fallback directory")
	}
	if title == "" {
		title = "Generated " + string(doc.Kind)
	}

	page := strings.ReplaceAll(fallbackPage, "{{TITLE}}", html.EscapeString(title))
	page = strings.ReplaceAll(page, "{{SOURCE}}", html.EscapeString(doc.Source))

	path := filepath.Join(dir, string(doc.Kind)+".html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return Artifact{}, errors.Wrap(errors.ErrCodeInternal, err, "write fallback artifact")
	}
	return Artifact{Path: path, Pages: 1, Fallback: true}, nil
}
