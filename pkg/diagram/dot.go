package diagram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/scholarshare/scholarshare/pkg/errors"
)

// RenderDOT renders Graphviz DOT source to a PNG.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	g, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer g.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT source")
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := g.Render(ctx, graph, graphviz.PNG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT to PNG")
	}
	return buf.Bytes(), nil
}

// PlaceholderCard renders a simple locally-generated card used when remote
// image generation fails. The card shows the paper title and platform name.
func PlaceholderCard(ctx context.Context, title, platform string) ([]byte, error) {
	dot := fmt.Sprintf(`digraph card {
	bgcolor="#1a1a2e";
	node [shape=box, style="rounded,filled", fillcolor="#16213e", fontcolor=white, fontsize=20, margin="0.5,0.3"];
	title [label=%q];
	node [fontsize=12, fillcolor="#0f3460"];
	platform [label=%q];
	title -> platform [color="#e94560", arrowhead=none];
}`, truncate(title, 60), strings.ToUpper(platform))

	return RenderDOT(ctx, dot)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
