package postlabel

import (
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// foldText NFKC-normalizes and case-folds s. Post text and flagged terms go
// through the same folding before they are compared.
func foldText(s string) string {
	// cases.Caser keeps state, so one is built per call.
	return cases.Fold().String(norm.NFKC.String(s))
}

// Tokenize splits text on whitespace, strips surrounding punctuation and
// symbols from each token, and folds case. Tokens that are pure punctuation
// are dropped.
func Tokenize(text string) []string {
	fields := strings.Fields(foldText(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, isTokenEdge)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func isTokenEdge(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// isPhrase reports whether a flagged term must be matched as a substring:
// anything other than letters and digits (a space, "&", "-") makes it one.
func isPhrase(term string) bool {
	for _, r := range term {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// MatchText returns the labels produced by the text of a post: at most one
// TrustSafetyLabel plus any citation labels from links in the text.
func (cfg *Config) MatchText(text string) LabelSet {
	return cfg.matchText(text, ExtractLinks(text))
}

// matchText runs the term scan on text and the domain checks on links.
func (cfg *Config) matchText(text string, links []string) LabelSet {
	cfg = cfg.withDefaults()

	labels := LabelSet{}
	if strings.TrimSpace(text) != "" && cfg.matchTerms(text) {
		labels.Add(TrustSafetyLabel)
	}
	cfg.matchLinks(links, labels)
	return labels
}

// matchTerms reports whether any flagged term occurs in text. It returns on
// the first hit; callers get a single label, never the list of matched terms.
func (cfg *Config) matchTerms(text string) bool {
	terms := cfg.Data.FlaggedTerms()
	if len(terms) == 0 {
		return false
	}

	folded := foldText(text)
	tokens := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		tokens[tok] = struct{}{}
	}

	for _, term := range terms {
		if isPhrase(term) {
			if strings.Contains(folded, term) {
				slog.Debug("postlabel: flagged term", "term", term)
				return true
			}
			continue
		}
		if _, ok := tokens[term]; ok {
			slog.Debug("postlabel: flagged term", "term", term)
			return true
		}
	}
	return false
}

// matchLinks adds TrustSafetyLabel for the first link on a flagged domain and
// a citation label for every link whose domain is in the news table.
func (cfg *Config) matchLinks(links []string, labels LabelSet) {
	flagged := labels.Has(TrustSafetyLabel)
	for _, link := range links {
		domain := CanonicalDomain(link)
		if domain == "" {
			continue
		}
		if !flagged && cfg.Data.IsFlaggedDomain(domain) {
			slog.Debug("postlabel: flagged domain", "domain", domain)
			labels.Add(TrustSafetyLabel)
			flagged = true
		}
		if category, ok := cfg.Data.SourceCategory(domain); ok {
			labels.Add(category)
		}
	}
}
