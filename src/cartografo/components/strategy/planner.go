// Package strategy builds the anti-bias crawl plan: broad terms first to
// skim the high-population results the ranking favors, then progressively
// narrower terms searched deeper, so low-population provinces are not
// drowned out by page-one bias.
package strategy

import "strings"

type Phase string

const (
	PhaseGeneral   Phase = "general"
	PhaseProvince  Phase = "provincia"
	PhaseLocalCode Phase = "codigo_local"
	PhaseCultural  Phase = "cultural"
)

// Term is one scheduled search: the query text, the phase it belongs to and
// how many result pages to traverse at most. Immutable once planned.
type Term struct {
	Text     string
	Phase    Phase
	MaxDepth int
}

// Catalog is the static input the plan is derived from. Same catalog in,
// same plan out.
type Catalog struct {
	General []Term // fully specified general terms

	// Province groups with inverse-representation depth: the bigger the
	// province's expected share of results, the shallower we search it.
	LargeProvinces  []string
	MediumProvinces []string
	SmallProvinces  []string

	LocalCodes []string // ordered; map iteration would break determinism

	Cultural []Term
}

func DefaultCatalog() Catalog {
	return Catalog{
		General: []Term{
			{Text: "argentina", MaxDepth: 25},
			{Text: "argentino", MaxDepth: 25},
			{Text: "argentinos", MaxDepth: 20},
			{Text: "streaming argentina", MaxDepth: 30},
			{Text: "youtuber argentina", MaxDepth: 25},
			{Text: "canal argentino", MaxDepth: 20},
			{Text: "gaming argentina", MaxDepth: 25},
			{Text: "en vivo argentina", MaxDepth: 20},
		},
		LargeProvinces:  []string{"Buenos Aires", "Córdoba", "Santa Fe", "Mendoza"},
		MediumProvinces: []string{"Tucumán", "Salta", "Entre Ríos", "Misiones", "Chaco", "Corrientes"},
		SmallProvinces:  []string{"Catamarca", "La Rioja", "Formosa", "San Luis", "Tierra del Fuego"},
		LocalCodes: []string{
			"MZA", "COR", "ROS", "MDQ", "BRC", "SLA", "TUC", "NQN",
			"USH", "JUJ", "SFN", "CTC", "LRJ", "FSA", "SGO",
		},
		Cultural: []Term{
			{Text: "mate gaming", MaxDepth: 30},
			{Text: "folklore streaming", MaxDepth: 35},
			{Text: "tango en vivo", MaxDepth: 25},
			{Text: "asado live", MaxDepth: 20},
			{Text: "che gaming", MaxDepth: 40},
			{Text: "cuarteto en vivo", MaxDepth: 30},
			{Text: "chamamé live", MaxDepth: 40},
			{Text: "empanadas streaming", MaxDepth: 25},
			{Text: "vino gaming", MaxDepth: 30},
			{Text: "cordillera live", MaxDepth: 25},
			{Text: "patagonia streaming", MaxDepth: 35},
			{Text: "noa gaming", MaxDepth: 30},
			{Text: "cuyo en vivo", MaxDepth: 25},
			{Text: "litoral streaming", MaxDepth: 30},
			{Text: "pampa gaming", MaxDepth: 25},
		},
	}
}

// BuildPlan expands the catalog into the full ordered term sequence:
// general → provincia → codigo_local → cultural.
func BuildPlan(c Catalog) []Term {
	var plan []Term

	for _, t := range c.General {
		t.Phase = PhaseGeneral
		plan = append(plan, t)
	}

	for _, p := range c.LargeProvinces {
		plan = append(plan,
			provinceTerm("streaming", p, 40),
			provinceTerm("gaming", p, 35),
			provinceTerm("youtuber", p, 30),
			provinceTerm("en vivo", p, 25),
		)
	}
	for _, p := range c.MediumProvinces {
		plan = append(plan,
			provinceTerm("streaming", p, 50),
			provinceTerm("gaming", p, 45),
			provinceTerm("youtuber", p, 40),
		)
	}
	for _, p := range c.SmallProvinces {
		plan = append(plan,
			provinceTerm("streaming", p, 50),
			provinceTerm("gaming", p, 50),
			provinceTerm("canal", p, 50),
		)
	}

	for _, code := range c.LocalCodes {
		lc := strings.ToLower(code)
		plan = append(plan,
			Term{Text: "bunker " + lc, Phase: PhaseLocalCode, MaxDepth: 50},
			Term{Text: "charlas " + lc, Phase: PhaseLocalCode, MaxDepth: 50},
			Term{Text: "gaming " + lc, Phase: PhaseLocalCode, MaxDepth: 45},
			Term{Text: "streaming " + lc, Phase: PhaseLocalCode, MaxDepth: 45},
			Term{Text: "en vivo " + lc, Phase: PhaseLocalCode, MaxDepth: 40},
		)
	}

	for _, t := range c.Cultural {
		t.Phase = PhaseCultural
		plan = append(plan, t)
	}

	return plan
}

func provinceTerm(prefix, province string, depth int) Term {
	return Term{Text: prefix + " " + province, Phase: PhaseProvince, MaxDepth: depth}
}

// Planner hands out terms one at a time. It never touches the network; the
// run controller owns execution and quota.
type Planner struct {
	items []Term
	pos   int
}

func NewPlanner(c Catalog) *Planner {
	return &Planner{items: BuildPlan(c)}
}

// NewPlannerFromTerms wraps a pre-built (possibly filtered) plan.
func NewPlannerFromTerms(items []Term) *Planner {
	return &Planner{items: items}
}

// OnlyPhase narrows a plan to a single phase, keeping order.
func OnlyPhase(plan []Term, phase Phase) []Term {
	var out []Term
	for _, t := range plan {
		if t.Phase == phase {
			out = append(out, t)
		}
	}
	return out
}

// Next returns the next scheduled term, or false when the plan is done.
func (p *Planner) Next() (Term, bool) {
	if p.pos >= len(p.items) {
		return Term{}, false
	}
	t := p.items[p.pos]
	p.pos++
	return t, true
}

func (p *Planner) Exhausted() bool { return p.pos >= len(p.items) }

func (p *Planner) Remaining() int { return len(p.items) - p.pos }
