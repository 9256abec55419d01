// Package normalize repairs bracketed annotations and known typos in
// free-text admission remarks.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"admitcli/pkg/contracts/domain"
)

const (
	// Open and Close are the canonical bracket markers.
	Open  = "（"
	Close = "）"

	// NoIssues is reported in place of an empty issue list.
	NoIssues = "no issues"
	// IssueSeparator joins issues written into a single cell.
	IssueSeparator = "；"

	outerPunct   = "，、。！？；,;.!? "
	bracketPunct = "，、,;；:：。！？.!? "

	// maxRounds bounds the repair loop; each round peels one nesting level.
	maxRounds = 32
)

var (
	variants = strings.NewReplacer(
		"{", Open, "[", Open, "【", Open, "<", Open, "《", Open,
		"}", Close, "]", Close, "】", Close, ">", Close, "》", Close,
	)

	bracketedRun = regexp.MustCompile(`（.*?）`)
	nestedPair   = regexp.MustCompile(`（（([^（）]*)））`)
	innerPair    = regexp.MustCompile(`（([^（）]*)）`)
)

// Normalizer corrects remarks using a typo dictionary and a whitelist of
// phrases that are left alone.
type Normalizer struct {
	typos     []Typo
	whitelist map[string]struct{}
}

// New returns a Normalizer. Nil arguments select the built-in tables.
func New(typos []Typo, whitelist []string) *Normalizer {
	if typos == nil {
		typos = DefaultTypos
	}
	if whitelist == nil {
		whitelist = DefaultWhitelist
	}
	n := &Normalizer{
		typos:     append([]Typo(nil), typos...),
		whitelist: make(map[string]struct{}, len(whitelist)),
	}
	for _, w := range whitelist {
		n.whitelist[w] = struct{}{}
	}
	return n
}

var defaultNormalizer = New(nil, nil)

// Normalize runs the default Normalizer.
func Normalize(text string) (string, []string) {
	return defaultNormalizer.Normalize(text)
}

// Report renders an issue list for output, using NoIssues when it is empty.
func Report(issues []string) string {
	if len(issues) == 0 {
		return NoIssues
	}
	return strings.Join(issues, IssueSeparator)
}

// NormalizeValue normalizes a cell value. Missing values come back as ""
// with no issues.
func (n *Normalizer) NormalizeValue(v any) (string, []string) {
	if v == nil {
		return "", nil
	}
	return n.Normalize(domain.Stringify(v))
}

// Normalize returns the corrected text and the ordered list of corrections.
// Its output is balanced and a fixed point: normalizing it again yields no
// issues.
func (n *Normalizer) Normalize(text string) (string, []string) {
	s := strings.TrimSpace(text)
	if s == "" {
		return text, nil
	}

	s = variants.Replace(s)
	s = stripOuter(s)
	if _, ok := n.whitelist[s]; ok {
		return s, nil
	}

	var issues []string
	s, issues = balance(s, issues)

	for round := 0; round < maxRounds; round++ {
		before := s
		s, issues = collapseNested(s, issues)
		s, issues = dropEmpty(s, issues)
		s, issues = dropDuplicates(s, issues)
		s = collapsePunct(s)
		s, issues = n.fixTypos(s, issues)
		s = stripOuter(s)
		if s == before {
			break
		}
	}

	return s, issues
}

// stripOuter trims punctuation from the whole string and from every run
// outside brackets. Bracketed runs are kept verbatim.
func stripOuter(s string) string {
	s = strings.Trim(s, outerPunct)

	var b strings.Builder
	last := 0
	for _, loc := range bracketedRun.FindAllStringIndex(s, -1) {
		b.WriteString(strings.Trim(s[last:loc[0]], outerPunct))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(strings.Trim(s[last:], outerPunct))
	return b.String()
}

// balance deletes unmatched close markers and appends closers for any open
// markers still pending at the end.
func balance(s string, issues []string) (string, []string) {
	runes := []rune(s)
	openR, closeR := []rune(Open)[0], []rune(Close)[0]

	var stack []int
	drop := make(map[int]bool)
	for i, r := range runes {
		switch r {
		case openR:
			stack = append(stack, i)
		case closeR:
			if len(stack) == 0 {
				drop[i] = true
				continue
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(drop) > 0 {
		kept := make([]rune, 0, len(runes)-len(drop))
		for i, r := range runes {
			if !drop[i] {
				kept = append(kept, r)
			}
		}
		runes = kept
		for range drop {
			issues = append(issues, "deleted 1 extra closing bracket")
		}
	}

	out := string(runes)
	if len(stack) > 0 {
		out += strings.Repeat(Close, len(stack))
		issues = append(issues, fmt.Sprintf("added %d missing closing brackets", len(stack)))
	}
	return out, issues
}

func collapseNested(s string, issues []string) (string, []string) {
	fixed := 0
	for nestedPair.MatchString(s) {
		fixed += len(nestedPair.FindAllStringIndex(s, -1))
		s = nestedPair.ReplaceAllString(s, Open+"$1"+Close)
	}
	if fixed > 0 {
		issues = append(issues, fmt.Sprintf("fixed %d nested brackets", fixed))
	}
	return s, issues
}

// dropEmpty removes innermost pairs whose content is only punctuation.
// Surviving pairs are rewritten with their content trimmed.
func dropEmpty(s string, issues []string) (string, []string) {
	s = innerPair.ReplaceAllStringFunc(s, func(m string) string {
		content := strings.Trim(innerPair.FindStringSubmatch(m)[1], bracketPunct)
		if content == "" {
			issues = append(issues, "removed empty or punctuation-only brackets")
			return ""
		}
		return Open + content + Close
	})
	return s, issues
}

func dropDuplicates(s string, issues []string) (string, []string) {
	seen := make(map[string]bool)
	var b strings.Builder
	last := 0
	for _, loc := range innerPair.FindAllStringSubmatchIndex(s, -1) {
		content := s[loc[2]:loc[3]]
		b.WriteString(s[last:loc[0]])
		if seen[content] {
			issues = append(issues, fmt.Sprintf("duplicate bracket content: '%s'", content))
		} else {
			seen[content] = true
			b.WriteString(s[loc[0]:loc[1]])
		}
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String(), issues
}

// collapsePunct keeps the first character of every run of punctuation.
func collapsePunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevPunct := false
	for _, r := range s {
		isPunct := strings.ContainsRune(outerPunct, r)
		if isPunct && prevPunct {
			continue
		}
		prevPunct = isPunct
		b.WriteRune(r)
	}
	return b.String()
}

func (n *Normalizer) fixTypos(s string, issues []string) (string, []string) {
	for _, t := range n.typos {
		if t.From == "" || t.From == t.To || !strings.Contains(s, t.From) {
			continue
		}
		s = strings.ReplaceAll(s, t.From, t.To)
		issues = append(issues, fmt.Sprintf("typo: '%s'→'%s'", t.From, t.To))
	}
	return s, issues
}
