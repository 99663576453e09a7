package pricing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// ErrInvalidTable is wrapped by every price table validation failure.
var ErrInvalidTable = errors.New("invalid price table")

// Grade is the canonical design grade of a postcard.
type Grade string

const (
	GradeSimple   Grade = "simple"
	GradeLight    Grade = "light"
	GradeStandard Grade = "standard"
	GradeHigh     Grade = "high"
	GradePremium  Grade = "premium"
)

// Grades lists every grade in ascending price order.
var Grades = []Grade{GradeSimple, GradeLight, GradeStandard, GradeHigh, GradePremium}

// Finish is the canonical print finish.
type Finish string

const (
	FinishPhoto Finish = "photo"
	FinishPrint Finish = "print"
)

// Finishes lists every finish.
var Finishes = []Finish{FinishPhoto, FinishPrint}

// Discount is the canonical early-booking discount tier.
type Discount string

const (
	DiscountSuperEarly Discount = "super_early"
	DiscountEarly      Discount = "early"
	DiscountNormal     Discount = "normal"
)

// Discounts lists every discount tier.
var Discounts = []Discount{DiscountSuperEarly, DiscountEarly, DiscountNormal}

// Plan is the canonical fulfilment plan.
type Plan string

const (
	// PlanSelf is the self-service plan.
	PlanSelf Plan = "self"
	// PlanFast adds addressing assistance with same-day turnaround.
	PlanFast Plan = "fast"
	// PlanOmakase is the staff-curated plan.
	PlanOmakase Plan = "omakase"
	// PlanMarunage is the fully managed plan.
	PlanMarunage Plan = "marunage"
)

// Plans lists every plan in display order.
var Plans = []Plan{PlanSelf, PlanFast, PlanOmakase, PlanMarunage}

// Band is a quantity sub-range with its own per-step surcharge.
type Band struct {
	UpTo    int // inclusive upper quantity, 0 = unbounded
	PerStep int
}

// Unbounded reports whether the band has no upper limit.
func (b Band) Unbounded() bool { return b.UpTo == 0 }

// FinishProfile holds the banded pricing of one finish.
type FinishProfile struct {
	BaseByGrade  map[Grade]int
	StepSize     int
	FreeQuantity int
	Bands        []Band
}

// PlanRules holds the per-plan add-ons.
type PlanRules struct {
	SelfFixedAdd     int
	AssistedFixedAdd int
	CuratedPerUnit   map[Discount]int
	FullServiceExtra int
}

// Table is the immutable price table shared by every quote.
// It must not be modified after Validate succeeds.
type Table struct {
	PostcardUnitPrice  int
	InputAssistanceFee int
	DiscountRates      map[Discount]decimal.Decimal
	DMCoupon           map[Discount]int
	Finishes           map[Finish]FinishProfile
	Plans              PlanRules
	LeadDays           map[Plan]int
}

// Validate checks the structural invariants of the table.
func (t *Table) Validate() error {
	if t.PostcardUnitPrice < 0 {
		return fmt.Errorf("%w: postcard unit price must be >= 0", ErrInvalidTable)
	}
	if t.InputAssistanceFee < 0 {
		return fmt.Errorf("%w: input assistance fee must be >= 0", ErrInvalidTable)
	}

	if err := checkKeys("discount_rates", t.DiscountRates, Discounts); err != nil {
		return err
	}
	one := decimal.NewFromInt(1)
	for _, d := range Discounts {
		rate, ok := t.DiscountRates[d]
		if !ok {
			return fmt.Errorf("%w: missing discount rate for %q", ErrInvalidTable, d)
		}
		if rate.IsNegative() || rate.GreaterThanOrEqual(one) {
			return fmt.Errorf("%w: discount rate for %q must be in [0,1), got %s", ErrInvalidTable, d, rate)
		}
	}
	if err := requireNonNegative("dm_coupon", t.DMCoupon, Discounts); err != nil {
		return err
	}

	if err := checkKeys("finishes", t.Finishes, Finishes); err != nil {
		return err
	}
	if _, ok := t.Finishes[FinishPrint]; !ok {
		return fmt.Errorf("%w: %q finish is required", ErrInvalidTable, FinishPrint)
	}
	for finish, profile := range t.Finishes {
		if err := profile.validate(); err != nil {
			return fmt.Errorf("%w: finish %q: %v", ErrInvalidTable, finish, err)
		}
	}

	if t.Plans.SelfFixedAdd < 0 || t.Plans.AssistedFixedAdd < 0 || t.Plans.FullServiceExtra < 0 {
		return fmt.Errorf("%w: plan add-ons must be >= 0", ErrInvalidTable)
	}
	if err := requireNonNegative("curated_per_unit", t.Plans.CuratedPerUnit, Discounts); err != nil {
		return err
	}

	if err := checkKeys("lead_days", t.LeadDays, Plans); err != nil {
		return err
	}
	for _, p := range Plans {
		days, ok := t.LeadDays[p]
		if !ok {
			return fmt.Errorf("%w: missing lead days for plan %q", ErrInvalidTable, p)
		}
		if days < 0 {
			return fmt.Errorf("%w: lead days for plan %q must be >= 0", ErrInvalidTable, p)
		}
	}

	return nil
}

// checkKeys rejects map keys outside known, so a misspelled key cannot
// silently drop an entry.
func checkKeys[K ~string, V any](field string, m map[K]V, known []K) error {
	for k := range m {
		if !slices.Contains(known, k) {
			return fmt.Errorf("%w: %s: unknown key %q", ErrInvalidTable, field, k)
		}
	}
	return nil
}

// requireNonNegative demands an entry >= 0 for every key in keys.
func requireNonNegative[K ~string](field string, m map[K]int, keys []K) error {
	if err := checkKeys(field, m, keys); err != nil {
		return err
	}
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			return fmt.Errorf("%w: %s: missing entry for %q", ErrInvalidTable, field, k)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s: %q must be >= 0, got %d", ErrInvalidTable, field, k, v)
		}
	}
	return nil
}

func (p FinishProfile) validate() error {
	if p.StepSize <= 0 {
		return fmt.Errorf("step size must be > 0, got %d", p.StepSize)
	}
	if p.FreeQuantity < 0 {
		return fmt.Errorf("free quantity must be >= 0, got %d", p.FreeQuantity)
	}
	for g := range p.BaseByGrade {
		if !slices.Contains(Grades, g) {
			return fmt.Errorf("unknown grade %q", g)
		}
	}
	for _, g := range Grades {
		base, ok := p.BaseByGrade[g]
		if !ok {
			return fmt.Errorf("missing base price for grade %q", g)
		}
		if base < 0 {
			return fmt.Errorf("base price for grade %q must be >= 0, got %d", g, base)
		}
	}
	if len(p.Bands) == 0 {
		return errors.New("at least one band is required")
	}

	covered := p.FreeQuantity
	for i, b := range p.Bands {
		last := i == len(p.Bands)-1
		if b.PerStep < 0 {
			return fmt.Errorf("band %d per-step price must be >= 0, got %d", i, b.PerStep)
		}
		if b.Unbounded() {
			if !last {
				return fmt.Errorf("band %d is unbounded but not last", i)
			}
			continue
		}
		if last {
			return fmt.Errorf("last band must be unbounded, got up_to %d", b.UpTo)
		}
		if b.UpTo <= covered {
			return fmt.Errorf("band %d up_to %d overlaps quantities already covered up to %d", i, b.UpTo, covered)
		}
		covered = b.UpTo
	}

	return nil
}

// profile returns the finish profile, falling back to print.
func (t *Table) profile(f Finish) FinishProfile {
	if p, ok := t.Finishes[f]; ok {
		return p
	}
	return t.Finishes[FinishPrint]
}
