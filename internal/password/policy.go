package password

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPasswordRequired        = errors.New("password is required")
	ErrPasswordTooShort        = errors.New("password must be at least 8 characters")
	ErrPasswordEntirelyNumeric = errors.New("password cannot be entirely numeric")
	ErrPasswordTooCommon       = errors.New("password is too common")
	ErrPasswordTooSimilar      = errors.New("password is too similar to the email or name")
)

const (
	minLength           = 8
	similarityThreshold = 0.7
)

//go:embed common_passwords.txt
var commonPasswordsRaw []byte

var commonPasswords = loadCommonPasswords()

func loadCommonPasswords() map[string]struct{} {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(commonPasswordsRaw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			set[line] = struct{}{}
		}
	}
	return set
}

// Validate checks the password against the strength policy: minimum length,
// not entirely numeric, not a known common password, and not too similar to
// any of the given user attributes (email, name). The first violated rule is
// returned.
func Validate(pw string, attributes ...string) error {
	if pw == "" {
		return ErrPasswordRequired
	}
	if len(pw) < minLength {
		return ErrPasswordTooShort
	}
	if isEntirelyNumeric(pw) {
		return ErrPasswordEntirelyNumeric
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return ErrPasswordTooCommon
	}
	if tooSimilar(pw, attributes) {
		return ErrPasswordTooSimilar
	}
	return nil
}

func isEntirelyNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar compares the password against each attribute and against the
// attribute's words (split on non-alphanumeric runes, so the local part and
// domain labels of an email are checked individually).
func tooSimilar(pw string, attributes []string) bool {
	lower := strings.ToLower(pw)
	for _, attr := range attributes {
		if attr == "" {
			continue
		}
		candidates := strings.FieldsFunc(strings.ToLower(attr), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		candidates = append(candidates, strings.ToLower(attr))
		for _, candidate := range candidates {
			if len(candidate) < 3 {
				continue
			}
			if similarityRatio(lower, candidate) >= similarityThreshold {
				return true
			}
		}
	}
	return false
}

// similarityRatio is the Ratcliff/Obershelp measure: twice the number of
// matching characters over the total length of both strings.
func similarityRatio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 0
	}
	return 2 * float64(matchingChars(a, b)) / float64(len(a)+len(b))
}

func matchingChars(a, b string) int {
	ai, bi, n := longestCommonSubstring(a, b)
	if n == 0 {
		return 0
	}
	return n + matchingChars(a[:ai], b[:bi]) + matchingChars(a[ai+n:], b[bi+n:])
}

func longestCommonSubstring(a, b string) (ai, bi, n int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > n {
					n = cur[j+1]
					ai = i - n + 1
					bi = j - n + 1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, n
}
