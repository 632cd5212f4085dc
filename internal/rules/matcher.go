package rules

import (
	"fmt"
	"regexp"
)

// Matcher is an ordered list of case-insensitive patterns.
type Matcher []*regexp.Regexp

func compilePatterns(owner string, patterns []string) (Matcher, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPatterns, owner)
	}

	m := make(Matcher, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q: %v", ErrBadPattern, owner, p, err)
		}
		m = append(m, re)
	}

	return m, nil
}

// Count returns how many distinct patterns match at least one of texts.
func (m Matcher) Count(texts ...string) int {
	n := 0
	for _, re := range m {
		for _, text := range texts {
			if text != "" && re.MatchString(text) {
				n++
				break
			}
		}
	}
	return n
}

func (m Matcher) Any(texts ...string) bool {
	for _, re := range m {
		for _, text := range texts {
			if text != "" && re.MatchString(text) {
				return true
			}
		}
	}
	return false
}

// Find returns the leftmost match of the first pattern that matches,
// scanning texts in order.
func (m Matcher) Find(texts ...string) (string, bool) {
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, re := range m {
			if found := re.FindString(text); found != "" {
				return found, true
			}
		}
	}
	return "", false
}
