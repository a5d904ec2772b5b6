package htmlgen

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// defaultChromaStyle is the highlighting style used when none is configured.
const defaultChromaStyle = "github"

// documentTemplate wraps goldmark's fragment output in a complete HTML5
// document. Asset tags are spliced in afterwards, once the hooks have run.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s
</body>
</html>`

// markdownConverter converts markdown pages to HTML using goldmark.
type markdownConverter struct {
	md goldmark.Markdown
}

// newMarkdownConverter builds a converter with GFM extensions and chroma
// code-block highlighting. The style name is validated eagerly so a typo
// fails configuration instead of the first build.
func newMarkdownConverter(styleName string) (*markdownConverter, error) {
	if styleName == "" {
		styleName = defaultChromaStyle
	}
	if styles.Get(styleName) == styles.Fallback && styleName != styles.Fallback.Name {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, styleName)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(styleName),
			),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithXHTML(),
		),
	)
	return &markdownConverter{md: md}, nil
}

// ToHTML converts markdown content to a standalone HTML5 document. Goldmark
// has no native context support, so conversion runs in a goroutine raced
// against cancellation.
func (c *markdownConverter) ToHTML(ctx context.Context, content, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrPageGenerate, err)}
			return
		}
		done <- result{html: fmt.Sprintf(documentTemplate, html.EscapeString(title), buf.String())}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
