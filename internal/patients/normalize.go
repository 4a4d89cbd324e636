package patients

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// ErrInvalidPhone is returned when a phone number cannot be normalized.
var ErrInvalidPhone = errors.New("patients: unparseable phone number")

var (
	titleRe      = regexp.MustCompile(`(?i)^(dr|mr|mrs|ms)\.?\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeName canonicalizes a name for comparison: courtesy titles and
// punctuation dropped, whitespace collapsed, lowercased.
func NormalizeName(name string) string {
	n := strings.TrimSpace(name)
	n = titleRe.ReplaceAllString(n, "")
	n = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, n)
	n = whitespaceRe.ReplaceAllString(n, " ")
	return strings.ToLower(strings.TrimSpace(n))
}

// tokenSortKey sorts the normalized name's tokens so "Sharma Anita" and
// "Anita Sharma" compare equal.
func tokenSortKey(name string) string {
	toks := strings.Fields(NormalizeName(name))
	for i := 1; i < len(toks); i++ {
		for j := i; j > 0 && toks[j] < toks[j-1]; j-- {
			toks[j], toks[j-1] = toks[j-1], toks[j]
		}
	}
	return strings.Join(toks, " ")
}

// NameSimilarity scores two names in [0,1] on their token-sorted canonical
// forms: twice the longest common subsequence over the combined length.
func NameSimilarity(a, b string) float64 {
	ra := []rune(tokenSortKey(a))
	rb := []rune(tokenSortKey(b))
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	lcs := lcsLength(ra, rb)
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// NormalizePhone canonicalizes a phone number to E.164. Numbers without a
// country code get defaultCountryCode (the clinic's home region); "00" and a
// single leading zero are treated as international and trunk prefixes.
func NormalizePhone(raw, defaultCountryCode string) (string, error) {
	hasPlus := strings.HasPrefix(strings.TrimSpace(raw), "+")
	digits := keepDigits(raw)
	if digits == "" {
		return "", ErrInvalidPhone
	}

	ccDigits := keepDigits(defaultCountryCode)

	switch {
	case hasPlus:
		// already international
	case strings.HasPrefix(digits, "00"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0"):
		digits = ccDigits + digits[1:]
	case len(digits) > 10 && strings.HasPrefix(digits, ccDigits):
		// country code typed without the plus
	default:
		digits = ccDigits + digits
	}

	if len(digits) < 8 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}

func keepDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
