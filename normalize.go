package gamedex

import (
	"regexp"
	"strings"
)

var (
	bracketedPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	versionToken     = regexp.MustCompile(`\b(?:v|version|episode|chapter|part)\.?\s*\d[\w.]*`)
	dottedNumeric    = regexp.MustCompile(`\b\d+(?:\.\d+)+[a-z0-9]*\b`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	leadingArticle   = regexp.MustCompile(`^(?:the|a|an)\s+`)
)

// NormalizeName reduces a game name to a canonical form for fuzzy
// matching: lowercase, leading article removed, version-indicating tokens
// and bracketed segments stripped, whitespace collapsed. The function is
// idempotent: normalizing an already-normalized name is a no-op.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = bracketedPattern.ReplaceAllString(s, " ")
	s = versionToken.ReplaceAllString(s, " ")
	s = dottedNumeric.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = leadingArticle.ReplaceAllString(s, "")
	s = strings.Trim(s, " -|:")
	return strings.TrimSpace(s)
}
