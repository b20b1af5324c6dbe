// Package classifier scores tiered evidence into an origin decision.
// The strongest matching tier alone determines method and confidence;
// weaker tiers only contribute their tokens to the audit trail.
package classifier

import (
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/evidence"
)

type Method string

const (
	MethodExplicit   Method = "explicito"
	MethodCultural   Method = "cultural"
	MethodContextual Method = "contextual"
	MethodNone       Method = "sin_evidencia"
	MethodManual     Method = "manual"
)

// Result is immutable once produced and becomes part of the persisted record.
type Result struct {
	Argentine  bool
	Confidence int // 0-100
	Method     Method
	Indicators []string // ordered union across tiers, winning tier first
	Excluded   []string // foreign markers that suppressed the decision, if any
}

type Config struct {
	ExplicitBase    int
	CulturalBase    int
	CulturalCap     int
	ContextualBase  int
	ContextualCap   int
	MatchBonus      int // per distinct match beyond the first, winning tier only
	AcceptThreshold int
}

func DefaultConfig() Config {
	return Config{
		ExplicitBase:    95,
		CulturalBase:    85,
		CulturalCap:     94,
		ContextualBase:  75,
		ContextualCap:   84,
		MatchBonus:      2,
		AcceptThreshold: 75,
	}
}

type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	if cfg.ContextualCap >= cfg.CulturalBase {
		// Method ordering must always be visible in the confidence ordering.
		cfg.ContextualCap = cfg.CulturalBase - 1
	}
	return &Classifier{cfg: cfg}
}

// Classify is a pure function of the evidence set.
func (c *Classifier) Classify(set evidence.Set) Result {
	// A foreign marker with no explicit Argentine marker vetoes the channel.
	if len(set.Excluded) > 0 && len(set.Explicit) == 0 {
		return Result{Method: MethodNone, Excluded: set.Excluded}
	}

	indicators := indicatorUnion(set)

	switch {
	case len(set.Explicit) > 0:
		return c.result(MethodExplicit, c.cfg.ExplicitBase, indicators, set.Excluded)
	case len(set.Cultural) > 0:
		conf := scale(c.cfg.CulturalBase, c.cfg.CulturalCap, c.cfg.MatchBonus, len(set.Cultural))
		return c.result(MethodCultural, conf, indicators, nil)
	case len(set.Contextual) > 0:
		conf := scale(c.cfg.ContextualBase, c.cfg.ContextualCap, c.cfg.MatchBonus, len(set.Contextual))
		return c.result(MethodContextual, conf, indicators, nil)
	default:
		return Result{Method: MethodNone}
	}
}

func (c *Classifier) result(m Method, confidence int, indicators, excluded []string) Result {
	return Result{
		Argentine:  confidence >= c.cfg.AcceptThreshold,
		Confidence: confidence,
		Method:     m,
		Indicators: indicators,
		Excluded:   excluded,
	}
}

// scale adds bonus per distinct match beyond the first, capped at the tier
// ceiling, so confidence is monotonically non-decreasing in match count.
func scale(base, ceiling, bonus, matches int) int {
	conf := base + (matches-1)*bonus
	if conf > ceiling {
		return ceiling
	}
	return conf
}

// indicatorUnion preserves tier order (strongest first), then scan order.
func indicatorUnion(set evidence.Set) []string {
	out := make([]string, 0, len(set.Explicit)+len(set.Cultural)+len(set.Contextual))
	seen := make(map[string]struct{})
	for _, tier := range [][]string{set.Explicit, set.Cultural, set.Contextual} {
		for _, tok := range tier {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}
