package htmlgen

import (
	"fmt"
	"html"
	"sort"
	"strings"

	htmltags "github.com/HankXu/html-webpack-tags-plugin"
)

// renderAssetTags materializes a document's asset lists into tag nodes:
// one <link> per stylesheet in the head, one <script> per script in the
// body, preserving list order. Plugins mutate these nodes in the alter
// phase before markup is produced.
func renderAssetTags(doc *htmltags.Document) *htmltags.RenderedDocument {
	rendered := &htmltags.RenderedDocument{OutputName: doc.OutputName}
	for _, href := range doc.CSS {
		rendered.Head = append(rendered.Head, &htmltags.TagNode{
			TagName:    "link",
			Attributes: map[string]any{"href": href, "rel": "stylesheet"},
		})
	}
	for _, src := range doc.JS {
		rendered.Body = append(rendered.Body, &htmltags.TagNode{
			TagName:    "script",
			Attributes: map[string]any{"src": src},
		})
	}
	return rendered
}

// renderNodes produces markup for a tag node sequence, one tag per line.
func renderNodes(nodes []*htmltags.TagNode) string {
	if len(nodes) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, n := range nodes {
		buf.WriteString(renderTagNode(n))
	}
	return buf.String()
}

// renderTagNode produces the markup for one tag. Attribute order is sorted
// for deterministic output. Boolean true renders as a bare attribute,
// boolean false is omitted, numbers render with their default formatting.
func renderTagNode(n *htmltags.TagNode) string {
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf strings.Builder
	buf.WriteByte('<')
	buf.WriteString(n.TagName)
	for _, k := range keys {
		switch v := n.Attributes[k].(type) {
		case bool:
			if v {
				buf.WriteByte(' ')
				buf.WriteString(k)
			}
		case string:
			fmt.Fprintf(&buf, " %s=%q", k, html.EscapeString(v))
		default:
			fmt.Fprintf(&buf, ` %s="%v"`, k, v)
		}
	}
	if n.TagName == "script" {
		buf.WriteString("></script>")
	} else {
		buf.WriteString("/>")
	}
	return buf.String()
}

// spliceHead inserts a markup fragment into the document head.
// Tries before </head> first, then after <body>, then prepends.
func spliceHead(htmlContent, fragment string) string {
	if fragment == "" {
		return htmlContent
	}
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</head>"); idx != -1 {
		return htmlContent[:idx] + fragment + htmlContent[idx:]
	}

	if idx := strings.Index(lowerHTML, "<body"); idx != -1 {
		// Find the closing > of <body...>
		closeIdx := strings.Index(htmlContent[idx:], ">")
		if closeIdx != -1 {
			insertPos := idx + closeIdx + 1
			return htmlContent[:insertPos] + fragment + htmlContent[insertPos:]
		}
	}

	return fragment + htmlContent
}

// spliceBody inserts a markup fragment at the end of the document body.
// Tries before </body> first, then appends.
func spliceBody(htmlContent, fragment string) string {
	if fragment == "" {
		return htmlContent
	}
	lowerHTML := strings.ToLower(htmlContent)

	if idx := strings.Index(lowerHTML, "</body>"); idx != -1 {
		return htmlContent[:idx] + fragment + htmlContent[idx:]
	}

	return htmlContent + fragment
}
