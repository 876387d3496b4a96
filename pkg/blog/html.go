package blog

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(ghtml.WithHardWraps()),
)

// HTML renders the post body to an HTML fragment.
func HTML(p Post) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(p.Content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExportPage renders a complete standalone HTML page for download.
func ExportPage(p Post) (string, error) {
	body, err := HTML(p)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="description" content="%s">
<title>%s</title>
<style>
body { font-family: Georgia, serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #222; }
pre { background: #f6f8fa; padding: 1rem; border-radius: 6px; overflow-x: auto; }
code { font-size: 0.9em; }
</style>
</head>
<body>
<h1>%s</h1>
<p><em>%d min read</em></p>
%s
</body>
</html>
`, html.EscapeString(p.MetaDescription), html.EscapeString(p.Title), html.EscapeString(p.Title), p.ReadingTime, body), nil
}
