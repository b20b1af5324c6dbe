// Package provinces resolves matched local codes, province names and
// regional hints into a canonical province.
package provinces

import (
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/evidence"
)

// CodeTable maps short local codes to their canonical province. Order of
// resolution follows scan order of the evidence, not this table.
func CodeTable() map[string]string {
	return map[string]string{
		"MZA": "Mendoza", "COR": "Córdoba", "ROS": "Santa Fe",
		"MDQ": "Buenos Aires", "BRC": "Río Negro", "SLA": "Salta",
		"TUC": "Tucumán", "NQN": "Neuquén", "USH": "Tierra del Fuego",
		"JUJ": "Jujuy", "SFN": "Santa Fe", "CTC": "Catamarca",
		"LRJ": "La Rioja", "FSA": "Formosa", "SGO": "Santiago del Estero",
	}
}

// regionHints are cultural/contextual place names that point at a province
// when no explicit marker resolved one.
func regionHints() map[string]string {
	return map[string]string{
		"bariloche": "Río Negro",
		"ushuaia":   "Tierra del Fuego",
		"vendimia":  "Mendoza",
		"aconcagua": "Mendoza",
		"cuarteto":  "Córdoba",
		"chamamé":   "Corrientes",
		"obelisco":  "Buenos Aires",
		"subte":     "Buenos Aires",
	}
}

type Mapper struct {
	codes     map[string]string
	provinces map[string]string // normalized name -> canonical
	hints     map[string]string
}

func NewMapper(codes map[string]string, provinceNames []string) *Mapper {
	m := &Mapper{
		codes:     codes,
		provinces: make(map[string]string, len(provinceNames)),
		hints:     regionHints(),
	}
	for _, p := range provinceNames {
		m.provinces[evidence.Normalize(p)] = p
	}
	return m
}

func NewDefaultMapper() *Mapper {
	return NewMapper(CodeTable(), evidence.DefaultCatalogs().Provinces)
}

// Resolve returns the canonical province for the evidence set, or "" when
// nothing resolves. When distinct provinces match, the first by tier then by
// scan order wins and every candidate is reported so the ambiguity stays
// visible downstream.
func (m *Mapper) Resolve(set evidence.Set) (province string, candidates []string) {
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		candidates = append(candidates, p)
	}

	for _, tok := range set.Explicit {
		if p, ok := m.codes[tok]; ok {
			add(p)
			continue
		}
		if p, ok := m.provinces[evidence.Normalize(tok)]; ok {
			add(p)
		}
	}
	for _, tok := range set.Cultural {
		add(m.hints[evidence.Normalize(tok)])
	}
	for _, tok := range set.Contextual {
		add(m.hints[evidence.Normalize(tok)])
	}

	if len(candidates) == 0 {
		return "", nil
	}
	return candidates[0], candidates
}
