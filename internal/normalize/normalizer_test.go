package normalize

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       string
		wantIssues []string
	}{
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only is returned unchanged",
			input: "   ",
			want:  "   ",
		},
		{
			name:  "clean remark",
			input: "只招男生",
			want:  "只招男生",
		},
		{
			name:  "bracket variants are canonicalized",
			input: "护理学[中外合作]《学费3万》",
			want:  "护理学（中外合作）（学费3万）",
		},
		{
			name:  "outer punctuation stripped",
			input: "，只招男生。",
			want:  "只招男生",
		},
		{
			name:  "punctuation around bracketed runs stripped",
			input: "护理学，（中外合作），学费高",
			want:  "护理学（中外合作）学费高",
		},
		{
			name:       "duplicate bracket content",
			input:      "（A）（A）",
			want:       "（A）",
			wantIssues: []string{"duplicate bracket content: 'A'"},
		},
		{
			name:       "extra closing bracket deleted",
			input:      "护理学）（中外合作）",
			want:       "护理学（中外合作）",
			wantIssues: []string{"deleted 1 extra closing bracket"},
		},
		{
			name:       "missing closing brackets appended",
			input:      "护理学（中外合作（学费高",
			want:       "护理学（中外合作（学费高））",
			wantIssues: []string{"added 2 missing closing brackets"},
		},
		{
			name:       "unmatched on both sides",
			input:      "A）B（C",
			want:       "AB（C）",
			wantIssues: []string{"deleted 1 extra closing bracket", "added 1 missing closing brackets"},
		},
		{
			name:       "nested brackets collapsed",
			input:      "护理学（（中外合作））",
			want:       "护理学（中外合作）",
			wantIssues: []string{"fixed 1 nested brackets"},
		},
		{
			name:       "deeply nested brackets collapsed",
			input:      "（（（A）））",
			want:       "（A）",
			wantIssues: []string{"fixed 2 nested brackets"},
		},
		{
			name:       "punctuation-only brackets removed",
			input:      "护理学（，。）",
			want:       "护理学",
			wantIssues: []string{"removed empty or punctuation-only brackets"},
		},
		{
			name:       "empty brackets removed",
			input:      "护理学（）就业好",
			want:       "护理学就业好",
			wantIssues: []string{"removed empty or punctuation-only brackets"},
		},
		{
			name:  "punctuation runs collapsed",
			input: "只招男生，，，身高170以上",
			want:  "只招男生，身高170以上",
		},
		{
			name:       "typo replaced everywhere",
			input:      "教助专业，教助方向",
			want:       "救助专业，救助方向",
			wantIssues: []string{"typo: '教助'→'救助'"},
		},
		{
			name:       "earlier typo wins over longer later key",
			input:      "5十3一体化",
			want:       "5+3一体化",
			wantIssues: []string{"typo: '5十3'→'5+3'"},
		},
		{
			name:  "whitelisted phrase untouched",
			input: "南校区",
			want:  "南校区",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, issues := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantIssues, issues)
		})
	}
}

func TestNormalizer_WhitelistShortCircuits(t *testing.T) {
	n := New(nil, []string{"教助中心"})

	got, issues := n.Normalize("教助中心")
	assert.Equal(t, "教助中心", got)
	assert.Empty(t, issues)

	got, issues = n.Normalize("教助中心二部")
	assert.Equal(t, "救助中心二部", got)
	assert.Len(t, issues, 1)
}

func TestNormalizer_EveryTypoIsCorrected(t *testing.T) {
	for _, typo := range DefaultTypos {
		typo := typo
		t.Run(typo.From, func(t *testing.T) {
			n := New([]Typo{typo}, []string{})
			got, issues := n.Normalize("备注" + typo.From + "说明")
			assert.Contains(t, got, typo.To)
			if !strings.Contains(typo.To, typo.From) {
				assert.NotContains(t, got, typo.From)
			}
			assert.Contains(t, issues, "typo: '"+typo.From+"'→'"+typo.To+"'")
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	n := New(nil, nil)

	got, issues := n.NormalizeValue(nil)
	assert.Equal(t, "", got)
	assert.Nil(t, issues)

	got, _ = n.NormalizeValue(2024.0)
	assert.Equal(t, "2024", got)
}

func TestReport(t *testing.T) {
	assert.Equal(t, NoIssues, Report(nil))
	assert.Equal(t, "a；b", Report([]string{"a", "b"}))
}

func TestNormalize_BalancedAndIdempotent(t *testing.T) {
	alphabet := []string{"A", "B", "学", "（", "）", "[", "】", "《", "，", "。", " ", "、"}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		var b strings.Builder
		for j := 0; j < 1+rng.Intn(16); j++ {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		input := b.String()

		once, _ := Normalize(input)
		requireBalanced(t, input, once)

		twice, issues := Normalize(once)
		assert.Empty(t, issues, "input %q normalized to %q", input, once)
		assert.Equal(t, once, twice, "input %q", input)
	}
}

func requireBalanced(t *testing.T, input, s string) {
	t.Helper()
	depth := 0
	for _, r := range s {
		switch string(r) {
		case Open:
			depth++
		case Close:
			depth--
		}
		require.GreaterOrEqual(t, depth, 0, "input %q produced %q", input, s)
	}
	require.Equal(t, 0, depth, "input %q produced %q", input, s)
}
