package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// minParagraphChars drops navigation crumbs, captions and bylines
const minParagraphChars = 40

// Page is the readable content pulled out of an HTML document
type Page struct {
	Title     string
	Text      string
	Canonical string
}

// ExtractArticle pulls the title and body text out of an HTML page.
// Known sites use their SiteRule selectors. Otherwise paragraphs under
// <article> win, then <main>, then every <p>. When none of those yield
// text, all visible text is used.
func ExtractArticle(htmlContent, sourceURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	rule := RuleFor(sourceURL)
	doc.Find("script, style, noscript, iframe, nav, footer, aside, form").Remove()
	for _, sel := range rule.Strip {
		doc.Find(sel).Remove()
	}

	page := Page{Title: pageTitle(doc, rule.TitleFrom)}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && sourceURL != "" {
		if base, err := url.Parse(sourceURL); err == nil {
			page.Canonical = resolveURL(base, href)
		}
	}

	selectors := append(append([]string(nil), rule.Body...), genericBody...)
	for _, selector := range selectors {
		if text := joinParagraphs(doc.Find(selector)); text != "" {
			page.Text = text
			return page, nil
		}
	}

	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}
	page.Text = collapseWhitespace(extractVisibleText(root))
	return page, nil
}

func pageTitle(doc *goquery.Document, titleFrom string) string {
	if titleFrom != "" {
		if t := collapseWhitespace(doc.Find(titleFrom).First().Text()); t != "" {
			return t
		}
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if h1 := strings.TrimSpace(doc.Find("article h1, main h1").First().Text()); h1 != "" {
		return collapseWhitespace(h1)
	}
	return collapseWhitespace(doc.Find("title").First().Text())
}

func joinParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, p *goquery.Selection) {
		text := collapseWhitespace(p.Text())
		if len(text) >= minParagraphChars {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// resolveURL resolves href against base, keeping only http(s) results
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}
