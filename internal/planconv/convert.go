package planconv

import (
	"regexp"
	"strings"

	"admitcli/internal/classify"
	"admitcli/pkg/contracts/domain"
)

type subject struct{ full, short string }

// subjects is ordered: matching stops at the first hit.
var subjects = []subject{
	{"物理", "物"}, {"化学", "化"}, {"生物", "生"}, {"历史", "历"},
	{"地理", "地"}, {"政治", "政"}, {"技术", "技"},
}

var (
	nonSubjectChars  = regexp.MustCompile(`[^\p{Han}、，,]`)
	listSeparators   = regexp.MustCompile(`[、，]`)
	leadingCarets    = regexp.MustCompile(`^\^+`)
	firstSubjectOnly = []string{"物", "历"}
)

// ToText renders a code cell as text: leading carets and apostrophes that
// exports use to force text are removed.
func ToText(v any) string {
	s := strings.TrimSpace(strings.TrimLeft(domain.Stringify(v), "^"))
	return strings.TrimLeft(s, "'")
}

// FirstSubject returns 物 or 历 for physics or history categories.
func FirstSubject(category any) string {
	s := domain.Stringify(category)
	switch {
	case strings.Contains(s, "物理"):
		return "物"
	case strings.Contains(s, "历史"):
		return "历"
	}
	return ""
}

// ConvertLevel maps plan levels onto the template vocabulary. Unknown
// levels pass through.
func ConvertLevel(level any) any {
	s := strings.ToLower(domain.Stringify(level))
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "专科") || strings.Contains(s, "高职"):
		return levelVocational
	case strings.Contains(s, "本科"):
		return levelUndergraduate
	}
	return level
}

// ExtractRequiredSubjects returns the short names of the subjects named in
// a requirement such as 物化生（3科必选） or 物理、化学.
func ExtractRequiredSubjects(text string) []string {
	if text == "" {
		return nil
	}
	clean := strings.TrimSpace(nonSubjectChars.ReplaceAllString(text, ""))

	open := strings.Index(text, "（")
	if must := strings.Index(text, "必选"); must >= 0 && open >= 0 && must > open {
		clean = text[:open]
	}

	var out []string
	add := func(short string) {
		for _, s := range out {
			if s == short {
				return
			}
		}
		out = append(out, short)
	}

	if strings.ContainsAny(clean, "、，,") {
		for _, part := range strings.Split(listSeparators.ReplaceAllString(clean, ","), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			for _, sub := range subjects {
				if strings.Contains(part, sub.full) || strings.Contains(sub.full, part) {
					add(sub.short)
					break
				}
			}
		}
		return out
	}

	for _, sub := range subjects {
		if strings.Contains(clean, sub.full) {
			add(sub.short)
		}
	}
	if len(out) == 0 {
		for _, r := range clean {
			for _, sub := range subjects {
				if string(r) == sub.short {
					add(sub.short)
				}
			}
		}
	}
	return out
}

// ConvertRequirement derives the template requirement label and secondary
// subjects from the plan's group and major requirement cells.
func ConvertRequirement(group, major any) (label, second string) {
	req := domain.Stringify(group) + domain.Stringify(major)
	req = strings.TrimSpace(strings.ReplaceAll(leadingCarets.ReplaceAllString(req, ""), "^", "、"))
	if req == "" || req == "、" {
		return "", ""
	}

	switch {
	case strings.Contains(req, "不限"):
		return classify.RequirementUnrestricted, ""

	case strings.Contains(req, "必选"):
		required := ExtractRequiredSubjects(req)
		if len(required) > 0 {
			label, second = classify.RequirementAll, strings.Join(required, "")
		}
		if strings.Contains(req, "首选") {
			var preferred []string
			if strings.Contains(req, "首选物理") {
				preferred = append(preferred, "物")
			}
			if strings.Contains(req, "首选历史") {
				preferred = append(preferred, "历")
			}
			if rest := without(required, preferred); len(rest) > 0 {
				second = strings.Join(rest, "")
			}
		}
		return label, second

	case strings.Contains(req, "首选") && strings.Contains(req, "再选"):
		part := strings.SplitN(req, "再选", 2)[1]
		if again := ExtractRequiredSubjects(part); len(again) > 0 {
			return classify.RequirementAll, strings.Join(again, "")
		}
		return "", ""

	case strings.Contains(req, "或") || strings.Contains(req, "选1"):
		if rest := without(ExtractRequiredSubjects(req), firstSubjectOnly); len(rest) > 0 {
			return classify.RequirementAny, strings.Join(rest, "")
		}
		return "", ""
	}

	rest := without(ExtractRequiredSubjects(req), firstSubjectOnly)
	if len(rest) > 0 {
		return classify.RequirementAll, strings.Join(rest, "")
	}
	return "", ""
}

func without(values, drop []string) []string {
	var out []string
	for _, v := range values {
		keep := true
		for _, d := range drop {
			if v == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, v)
		}
	}
	return out
}

// ConvertPlan maps plan rows onto the major score template. Score columns
// are left blank for manual entry.
func ConvertPlan(plan *domain.Table) *domain.Table {
	out := domain.NewTable(MajorScoreColumns...)
	for _, r := range plan.Rows {
		row := make(domain.Row, len(MajorScoreColumns))
		for _, c := range MajorScoreColumns {
			row[c] = ""
		}

		row[domain.ColSchool] = r.Text(PlanSchool)
		row[domain.ColProvince] = r.Text(PlanProvince)
		row[domain.ColMajor] = r.Text(PlanMajor)
		row[domain.ColCategory] = r.Text(PlanCategory)
		row[domain.ColBatch] = r.Text(PlanBatch)
		row[domain.ColRecruitTypeOpt] = r.Text(PlanRecruitType)
		row[domain.ColMajorRemarkOpt] = r.Text(PlanRemark)
		row[domain.ColRecruitCountOpt] = r.Text(PlanRecruitCount)
		row[domain.ColSource] = r.Text(PlanSource)
		row[domain.ColLevel] = ConvertLevel(r[PlanLevel])

		row[domain.ColRecruitCode] = ToText(r[PlanRecruitCode])
		row[domain.ColMajorCode] = ToText(r[PlanMajorCode])
		row[domain.ColGroupCode] = ToText(r[PlanGroupCode])

		row[domain.ColFirstSubject] = FirstSubject(r[PlanCategory])
		row[domain.ColRequirement], row[domain.ColSecondSubject] =
			ConvertRequirement(r[PlanGroupRequirement], r[PlanMajorRequirement])

		out.Append(row)
	}
	return out
}

// Year returns the plan year from the first row, or "" when absent.
func Year(plan *domain.Table) string {
	if plan.Len() == 0 {
		return ""
	}
	return plan.Rows[0].Text(PlanYear)
}
