package pricing

import (
	"slices"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest order the adapters accept. It keeps every
// price well inside int range.
const MaxQuantity = 100000

// QuoteInput is a fully normalized quote request.
type QuoteInput struct {
	Grade            Grade
	Finish           Finish
	Quantity         int
	Discount         Discount
	BringOwnPostcard bool
	DMCoupon         bool
	InputAssistance  bool
}

// RawInput is a quote request as read from a form, before normalization.
// Quantity is expected to be already coerced to a non-negative integer.
type RawInput struct {
	Quantity         int
	Grade            string
	Finish           string
	Discount         string
	BringOwnPostcard bool
	DMCoupon         bool
	InputAssistance  bool
}

// Quote holds the four plan prices for one request.
type Quote struct {
	Quantity         int
	UnitBasePrice    int
	SelfPrice        int
	AssistedPrice    int
	CuratedPrice     int
	FullServicePrice int
	// PostcardCost and DMDiscount are the amounts folded into every plan price.
	PostcardCost int
	DMDiscount   int
}

// Breakdown splits one plan price into its parts.
type Breakdown struct {
	Plan         Plan
	Total        int
	PostcardCost int
	DMDiscount   int
	// PrintCost is the price before postcard stock and after undoing the coupon.
	PrintCost int
}

// Price returns the price of the given plan.
func (q Quote) Price(p Plan) int {
	switch p {
	case PlanFast:
		return q.AssistedPrice
	case PlanOmakase:
		return q.CuratedPrice
	case PlanMarunage:
		return q.FullServicePrice
	default:
		return q.SelfPrice
	}
}

// Breakdown returns the parts of the given plan price.
func (q Quote) Breakdown(p Plan) Breakdown {
	total := q.Price(p)
	return Breakdown{
		Plan:         p,
		Total:        total,
		PostcardCost: q.PostcardCost,
		DMDiscount:   q.DMDiscount,
		PrintCost:    total - q.PostcardCost + q.DMDiscount,
	}
}

// Compose prices a normalized request for every plan.
func (e *Engine) Compose(in QuoteInput) Quote {
	t := e.table
	base := e.BasePrice(in.Grade, in.Finish, in.Quantity)

	price := base
	if rate := t.DiscountRates[in.Discount]; rate.IsPositive() {
		// Floor, never round: fractions go to the seller.
		price = int(decimal.NewFromInt(int64(base)).
			Mul(decimal.NewFromInt(1).Sub(rate)).
			Floor().
			IntPart())
	}

	var postcard, coupon int
	if !in.BringOwnPostcard {
		postcard = in.Quantity * t.PostcardUnitPrice
		price += postcard
	}
	if in.DMCoupon {
		// No clamp at zero here; small orders can go negative before add-ons.
		coupon = t.DMCoupon[in.Discount]
		price -= coupon
	}
	if in.InputAssistance {
		price += t.InputAssistanceFee
	}

	// The self add-on applies to the self plan only; the other plans
	// build on the running total.
	curated := price + in.Quantity*t.Plans.CuratedPerUnit[in.Discount]
	q := Quote{
		Quantity:         in.Quantity,
		UnitBasePrice:    base,
		SelfPrice:        price + t.Plans.SelfFixedAdd,
		AssistedPrice:    price + t.Plans.AssistedFixedAdd,
		CuratedPrice:     curated,
		FullServicePrice: curated + t.Plans.FullServiceExtra,
		PostcardCost:     postcard,
		DMDiscount:       coupon,
	}

	if in.Quantity == 0 {
		q.SelfPrice, q.AssistedPrice, q.CuratedPrice, q.FullServicePrice = 0, 0, 0, 0
		q.DMDiscount = 0
	}
	return q
}

// Compute normalizes raw form values and prices them.
func (e *Engine) Compute(in RawInput) Quote {
	return e.Compose(QuoteInput{
		Grade:            NormalizeGrade(in.Grade),
		Finish:           NormalizeFinish(in.Finish),
		Quantity:         max(0, in.Quantity),
		Discount:         NormalizeDiscount(in.Discount),
		BringOwnPostcard: in.BringOwnPostcard,
		DMCoupon:         in.DMCoupon,
		InputAssistance:  in.InputAssistance,
	})
}

// PlanOffered reports whether plan can be ordered with finish.
func PlanOffered(f Finish, p Plan) bool {
	return slices.Contains(VisiblePlans(f), p)
}

// VisiblePlans returns the plans offered for a finish. Photo finishes
// are not offered with addressing or full service.
func VisiblePlans(f Finish) []Plan {
	if f == FinishPhoto {
		return []Plan{PlanSelf, PlanOmakase}
	}
	return append([]Plan(nil), Plans...)
}
