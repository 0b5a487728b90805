package extract

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	markdownHint      = regexp.MustCompile(`(?m)^(#{1,6}\s|\s*[-*+]\s|\s*\d+\.\s|>\s)|\[[^\]]+\]\([^)]+\)|\*\*[^*]+\*\*`)

	stripPolicy = bluemonday.StrictPolicy()
)

// CleanText prepares text for the classifier: URLs and markup removed,
// whitespace collapsed, lowercased.
func CleanText(text string) string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = StripHTML(text)
	text = collapseWhitespace(text)
	return strings.ToLower(text)
}

// StripHTML removes all tags and returns plain text
func StripHTML(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}
	return html.UnescapeString(stripPolicy.Sanitize(text))
}

// NormalizeText strips markup (markdown or HTML) but preserves case and sentence structure
func NormalizeText(text string) string {
	if LooksLikeMarkdown(text) {
		text = NormalizeMarkdown(text)
	} else {
		text = StripHTML(text)
	}
	return collapseWhitespace(text)
}

// LooksLikeMarkdown reports whether text carries markdown syntax
func LooksLikeMarkdown(text string) bool {
	return markdownHint.MatchString(text)
}

// NormalizeMarkdown renders markdown and returns its plain text
func NormalizeMarkdown(text string) string {
	rendered := blackfriday.Run([]byte(text), blackfriday.WithNoExtensions())
	// Closing block tags become spaces so adjacent blocks don't fuse into one word
	spaced := strings.NewReplacer("</p>", "</p> ", "</li>", "</li> ", "</h1>", "</h1> ",
		"</h2>", "</h2> ", "</h3>", "</h3> ", "<br>", " ", "<br />", " ").Replace(string(rendered))
	return collapseWhitespace(StripHTML(spaced))
}

// ExtractURLs returns the URLs found in raw input, in order of appearance
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	seen := make(map[string]bool, len(matches))
	var urls []string
	for _, m := range matches {
		m = strings.TrimRightFunc(m, func(r rune) bool {
			return unicode.IsPunct(r) && r != '/'
		})
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		urls = append(urls, m)
	}
	return urls
}

// WordCount counts whitespace-separated words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
