package markup

import "strings"

// Default preambles inserted when a generated document omits its class
// declaration.
const (
	posterPreamble = "\\documentclass[a0paper,portrait]{tikzposter}\n"
	deckPreamble   = "\\documentclass[aspectratio=169]{beamer}\n"
)

// StripFences removes markdown code-fence wrappers that completion models
// habitually add around generated sources. It removes fence lines for any
// language tag (```latex, ```tikz, ```html, bare ```) anywhere in the text.
func StripFences(s string) string {
	if !strings.Contains(s, "```") {
		return strings.TrimSpace(s)
	}

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Normalize enforces the structural invariants a compilable LaTeX document
// needs: code fences stripped, a \documentclass preamble present, and
// \begin{document}/\end{document} markers present. Missing pieces are
// inserted; present ones are left untouched, so Normalize is idempotent.
//
// Generated markup is never trusted to be well-formed; every document passes
// through here before it is rendered.
func Normalize(d Document) Document {
	src := StripFences(d.Source)

	if !strings.Contains(src, "\\documentclass") {
		switch d.Kind {
		case KindDeck:
			src = deckPreamble + src
		default:
			src = posterPreamble + src
		}
	}

	if !strings.Contains(src, "\\begin{document}") {
		src += "\n\\begin{document}\n\\maketitle\n\\end{document}"
	} else if !strings.Contains(src, "\\end{document}") {
		src += "\n\\end{document}"
	}

	return d.WithSource(strings.TrimSpace(src))
}
