package pricing

// Engine computes quotes against one immutable price table.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	table *Table
}

// NewEngine returns an engine over a validated table.
func NewEngine(t *Table) *Engine {
	return &Engine{table: t}
}

// Table returns the price table the engine quotes against.
func (e *Engine) Table() *Table { return e.table }

// BasePrice returns the grade's base price plus the banded step surcharge
// for quantities above the free threshold of the finish.
func (e *Engine) BasePrice(grade Grade, finish Finish, quantity int) int {
	profile := e.table.profile(finish)
	base, ok := profile.BaseByGrade[grade]
	if !ok {
		base = profile.BaseByGrade[GradeStandard]
	}

	if quantity <= profile.FreeQuantity {
		return base
	}
	steps := ceilDiv(quantity-profile.FreeQuantity, profile.StepSize)

	if len(profile.Bands) == 1 {
		return base + steps*profile.Bands[0].PerStep
	}
	return base + bandedSurcharge(profile, steps)
}

func bandedSurcharge(profile FinishProfile, steps int) int {
	remaining := steps
	covered := profile.FreeQuantity
	added := 0
	for _, band := range profile.Bands {
		if remaining <= 0 {
			break
		}
		capacity := remaining
		if !band.Unbounded() {
			capacity = max(0, ceilDiv(band.UpTo-covered, profile.StepSize))
		}
		use := min(remaining, capacity)
		added += use * band.PerStep
		remaining -= use
		if !band.Unbounded() {
			covered += use * profile.StepSize
		}
	}
	return added
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
