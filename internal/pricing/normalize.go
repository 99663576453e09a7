package pricing

import "strings"

// Labels come from hand-edited forms and may be garbled by encoding mishaps,
// so matching is by marker substrings rather than exact values.

type predicate func(label string) bool

type rule[K any] struct {
	match predicate
	key   K
}

// ruleSet is an ordered rule table: first match wins, fallback otherwise.
// Blank labels resolve to absent without consulting the rules.
type ruleSet[K any] struct {
	absent   K
	rules    []rule[K]
	fallback K
}

func (s ruleSet[K]) resolve(label string) K {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return s.absent
	}
	for _, r := range s.rules {
		if r.match(label) {
			return r.key
		}
	}
	return s.fallback
}

func anyOf(markers ...string) predicate {
	return func(label string) bool {
		for _, m := range markers {
			if strings.Contains(label, m) {
				return true
			}
		}
		return false
	}
}

func allOf(preds ...predicate) predicate {
	return func(label string) bool {
		for _, p := range preds {
			if !p(label) {
				return false
			}
		}
		return true
	}
}

var (
	earlyMarker = anyOf("早", "early")
	superMarker = anyOf("超", "super")
)

var finishRules = ruleSet[Finish]{
	absent: FinishPrint,
	rules: []rule[Finish]{
		{anyOf("写真", "photo"), FinishPhoto},
	},
	fallback: FinishPrint,
}

var gradeRules = ruleSet[Grade]{
	absent: GradeStandard,
	rules: []rule[Grade]{
		{anyOf("プレミ", "premium"), GradePremium},
		{anyOf("ハイ", "high"), GradeHigh},
		{anyOf("スタン", "standard"), GradeStandard},
		{anyOf("ライ", "light"), GradeLight},
	},
	fallback: GradeSimple,
}

var discountRules = ruleSet[Discount]{
	absent: DiscountNormal,
	rules: []rule[Discount]{
		{allOf(earlyMarker, superMarker), DiscountSuperEarly},
		{earlyMarker, DiscountEarly},
	},
	fallback: DiscountNormal,
}

var planRules = ruleSet[Plan]{
	absent: PlanSelf,
	rules: []rule[Plan]{
		{anyOf("まる", "marunage"), PlanMarunage},
		{anyOf("のん", "omakase"), PlanOmakase},
		{anyOf("宛名", "高速", "fast"), PlanFast},
		{anyOf("サク", "セルフ", "self"), PlanSelf},
	},
	fallback: PlanSelf,
}

// NormalizeFinish maps a finish label to its canonical key. Defaults to print.
func NormalizeFinish(label string) Finish { return finishRules.resolve(label) }

// NormalizeGrade maps a grade label to its canonical key.
// A blank label is standard; an unrecognized one is simple.
func NormalizeGrade(label string) Grade { return gradeRules.resolve(label) }

// NormalizeDiscount maps a discount label to its tier. Super-early needs
// both an early and a super marker.
func NormalizeDiscount(label string) Discount { return discountRules.resolve(label) }

// NormalizePlan maps a plan label to its canonical key. Defaults to self.
func NormalizePlan(label string) Plan { return planRules.resolve(label) }
