// Package risk combines change severity, blast radius, and usage intensity
// into a single 0-100 score with an auditable breakdown. The formula is
// deterministic and documented so the score can gate CI.
package risk

import (
	"math"

	"ripple/internal/callers"
	"ripple/internal/config"
	"ripple/internal/diff"
	"ripple/internal/logging"
)

// Weights are the scoring constants. They are configuration with documented
// defaults, not hard business rules.
type Weights struct {
	Breaking float64 // base weight per breaking change
	Warning  float64 // base weight per warning change
	Info     float64 // base weight per info change

	// UnusedMultiplier is the exposure multiplier for an endpoint with no
	// known caller sites. Reduced but non-zero: unexercised endpoints still
	// carry latent risk for future consumers.
	UnusedMultiplier float64

	// PerCallerStep and CallerCap shape the call-site multiplier
	// min(1 + step*(callers-1), cap): more sites exposed to the same change
	// increase impact, capped to keep scores bounded.
	PerCallerStep float64
	CallerCap     float64
}

// DefaultWeights returns the documented scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Breaking:         40,
		Warning:          10,
		Info:             0,
		UnusedMultiplier: 0.3,
		PerCallerStep:    0.1,
		CallerCap:        2.0,
	}
}

// WeightsFromConfig maps the scoring configuration onto Weights.
func WeightsFromConfig(cfg config.ScoringConfig) Weights {
	return Weights{
		Breaking:         cfg.BreakingWeight,
		Warning:          cfg.WarningWeight,
		Info:             cfg.InfoWeight,
		UnusedMultiplier: cfg.UnusedMultiplier,
		PerCallerStep:    cfg.PerCallerStep,
		CallerCap:        cfg.CallerCap,
	}
}

// Contribution is one change's share of the score, retained uncapped for
// auditability; only the aggregate is capped.
type Contribution struct {
	Change             diff.Change `json:"change"`
	CallerCount        int         `json:"callerCount"`
	BaseWeight         float64     `json:"baseWeight"`
	ExposureMultiplier float64     `json:"exposureMultiplier"`
	CallsiteMultiplier float64     `json:"callsiteMultiplier"`
	Contribution       float64     `json:"contribution"`
	DeadRisk           bool        `json:"deadRisk,omitempty"`
}

// ScoreResult is the aggregate risk assessment for one analysis run.
type ScoreResult struct {
	// Score is the capped aggregate in [0,100].
	Score int `json:"score"`
	// Contributions lists every change's sub-score in change order.
	Contributions []Contribution `json:"contributions"`
	// DeadRisk lists breaking/warning changes on endpoints with no known
	// callers: still scored (reduced), but reported separately from
	// actively consumed breakage.
	DeadRisk []Contribution `json:"deadRisk,omitempty"`
}

// Engine scores a change list against a caller index.
type Engine struct {
	weights Weights
	logger  *logging.Logger
}

// NewEngine creates a scoring engine with explicit weights, so scoring
// stays a pure function of its inputs.
func NewEngine(weights Weights, logger *logging.Logger) *Engine {
	return &Engine{weights: weights, logger: logger}
}

// Score computes the aggregate risk score. The sum of contributions is used
// rather than the max so an endpoint with many independent breaking changes
// scores higher than one with a single breaking change: the score rewards
// how much is broken, not just whether anything is.
func (e *Engine) Score(changes []diff.Change, index *callers.Index) *ScoreResult {
	result := &ScoreResult{
		Contributions: make([]Contribution, 0, len(changes)),
	}

	total := 0.0
	for _, change := range changes {
		count := 0
		if index != nil {
			count = index.Count(change.Identity.Key())
		}

		c := Contribution{
			Change:             change,
			CallerCount:        count,
			BaseWeight:         e.baseWeight(change.Severity),
			ExposureMultiplier: e.exposure(count),
			CallsiteMultiplier: e.callsite(count),
		}
		c.Contribution = c.BaseWeight * c.ExposureMultiplier * c.CallsiteMultiplier

		if count == 0 && change.Severity.Rank() >= diff.SeverityWarning.Rank() {
			c.DeadRisk = true
			result.DeadRisk = append(result.DeadRisk, c)
		}

		result.Contributions = append(result.Contributions, c)
		total += c.Contribution
	}

	capped := math.Min(100, total)
	if capped < 0 {
		capped = 0
	}
	result.Score = int(math.Round(capped))

	e.logger.Debug("Risk score computed", map[string]interface{}{
		"changes":  len(changes),
		"rawTotal": total,
		"score":    result.Score,
		"deadRisk": len(result.DeadRisk),
	})

	return result
}

func (e *Engine) baseWeight(severity diff.Severity) float64 {
	switch severity {
	case diff.SeverityBreaking:
		return e.weights.Breaking
	case diff.SeverityWarning:
		return e.weights.Warning
	default:
		return e.weights.Info
	}
}

// exposure is 1.0 when the endpoint has at least one known caller and the
// reduced multiplier when it has none.
func (e *Engine) exposure(callerCount int) float64 {
	if callerCount >= 1 {
		return 1.0
	}
	return e.weights.UnusedMultiplier
}

// callsite scales with caller count: min(1 + step*(callers-1), cap),
// clamped to 1.0 below one caller.
func (e *Engine) callsite(callerCount int) float64 {
	if callerCount <= 1 {
		return 1.0
	}
	m := 1 + e.weights.PerCallerStep*float64(callerCount-1)
	return math.Min(m, e.weights.CallerCap)
}
