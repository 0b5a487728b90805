package extract

import (
	"net/url"
	"strings"
)

// SiteRule tells ExtractArticle where a known site keeps its body text
type SiteRule struct {
	Name      string
	Hosts     []string // matched as the host or a parent domain
	Body      []string // paragraph selectors, tried in order
	Strip     []string // removed before extraction
	TitleFrom string   // optional title selector
}

// genericBody is the fallback chain for unknown sites
var genericBody = []string{"article p", "main p", "p"}

var siteRules = []SiteRule{
	{
		Name:      "wikipedia",
		Hosts:     []string{"wikipedia.org"},
		Body:      []string{".mw-parser-output > p", "#mw-content-text p"},
		Strip:     []string{".reference", ".mw-editsection", "table", ".hatnote", "sup"},
		TitleFrom: "#firstHeading",
	},
	{
		Name:  "bbc",
		Hosts: []string{"bbc.co.uk", "bbc.com"},
		Body:  []string{`[data-component="text-block"] p`, "article p"},
	},
	{
		Name:  "guardian",
		Hosts: []string{"theguardian.com"},
		Body:  []string{`[data-gu-name="body"] p`, "#maincontent p", "article p"},
	},
	{
		Name:  "reuters",
		Hosts: []string{"reuters.com"},
		Body:  []string{`[data-testid^="paragraph-"]`, "article p"},
	},
	{
		Name:  "apnews",
		Hosts: []string{"apnews.com"},
		Body:  []string{".RichTextStoryBody p", "article p"},
	},
}

// RuleFor returns the rule for the URL's host, or a generic rule
func RuleFor(rawURL string) SiteRule {
	if host := hostOf(rawURL); host != "" {
		for _, rule := range siteRules {
			for _, h := range rule.Hosts {
				if host == h || strings.HasSuffix(host, "."+h) {
					return rule
				}
			}
		}
	}
	return SiteRule{Name: "generic", Body: genericBody}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
