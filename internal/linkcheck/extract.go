package linkcheck

import (
	"bytes"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docweave/internal/frontmatter"
	"git.home.luguber.info/inful/docweave/internal/markdown"
)

// markdownLinks returns the distinct link destinations of a Markdown document, frontmatter
// excluded, in document order.
func markdownLinks(content []byte) ([]string, error) {
	_, body, _, err := frontmatter.Split(content)
	if err != nil {
		body = content
	}
	links, err := markdown.ExtractLinks(body, markdown.Options{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l.Kind == markdown.LinkKindAuto {
			continue
		}
		out = append(out, l.Destination)
	}
	return dedupe(out), nil
}

// htmlLinks returns the distinct href and src attribute values of an HTML document.
func htmlLinks(content []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if (a.Key == "href" || a.Key == "src") && a.Val != "" {
					out = append(out, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return dedupe(out), nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// lineOf returns the 1-based line of the first occurrence of needle, or 0.
func lineOf(content []byte, needle string) int {
	i := bytes.Index(content, []byte(needle))
	if i < 0 {
		return 0
	}
	return bytes.Count(content[:i], []byte("\n")) + 1
}
