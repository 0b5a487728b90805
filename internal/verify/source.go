package verify

import (
	"net/url"
	"strings"

	"github.com/ppiankov/verisense/internal/model"
)

// SourceVerifier rates the publishing domain of an article
type SourceVerifier struct {
	trusted    []string
	suspicious []string
	primary    []string
	secondary  []string
	domainMap  map[string]string
}

// NewSourceVerifier creates a verifier from the configured domain lists
func NewSourceVerifier(cfg model.SourceConfig) *SourceVerifier {
	return &SourceVerifier{
		trusted:    normalizeDomains(cfg.TrustedDomains),
		suspicious: normalizeDomains(cfg.SuspiciousDomains),
		primary:    normalizeDomains(cfg.PrimaryDomains),
		secondary:  normalizeDomains(cfg.SecondaryDomains),
		domainMap:  cfg.DomainMap,
	}
}

// Assess scores rawURL: trusted 100, suspicious 0, anything else 50
func (v *SourceVerifier) Assess(rawURL string) model.SourceAssessment {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return model.SourceAssessment{Score: 50, Status: model.SourceUnknown}
	}

	domain := ExtractDomain(rawURL)
	if domain == "" {
		return model.SourceAssessment{URL: rawURL, Score: 50, Status: model.SourceInvalidURL}
	}

	result := model.SourceAssessment{
		URL:    rawURL,
		Domain: domain,
		Tier:   v.Tier(domain),
	}

	switch {
	case matchesAny(domain, v.trusted):
		result.Score = 100
		result.Status = model.SourceTrusted
	case matchesAny(domain, v.suspicious):
		result.Score = 0
		result.Status = model.SourceSuspicious
	default:
		result.Score = 50
		result.Status = model.SourceUnverified
	}
	return result
}

// Tier classifies a domain into an authority tier
func (v *SourceVerifier) Tier(domain string) model.AuthorityTier {
	if tierStr, ok := v.domainMap[domain]; ok {
		return parseTierString(tierStr)
	}

	switch {
	case matchesAny(domain, v.primary):
		return model.TierPrimary
	case matchesAny(domain, v.secondary):
		return model.TierSecondary
	}

	// Government, academic and intergovernmental hosts
	for _, suffix := range []string{".gov", ".edu", ".ac.uk", ".int", ".mil"} {
		if strings.HasSuffix(domain, suffix) {
			return model.TierPrimary
		}
	}

	return model.TierTertiary
}

// ExtractDomain returns the lowercased host of rawURL without "www." and port.
// Bare domains ("example.com/path") are accepted.
func ExtractDomain(rawURL string) string {
	candidate := strings.TrimSpace(rawURL)
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" || !strings.Contains(host, ".") || strings.ContainsAny(host, " _") {
		return ""
	}
	return host
}

func matchesAny(domain string, list []string) bool {
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// parseTierString converts a tier string to AuthorityTier
func parseTierString(tier string) model.AuthorityTier {
	switch strings.ToLower(tier) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
