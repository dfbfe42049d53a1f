// Package environment implements the seasonal resource and hazard model:
// per-tick resource draws and hazard composition. Season indexing advances
// on a fixed day count and applies per-season resource modifiers to a flat
// plants/small-game/large-game resource triple, with every stochastic draw
// routed through the deterministic RNG rather than ambient map state.
package environment

import (
	"math"

	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/rng"
)

// ResourceLevel is the current per-tick resource draw.
type ResourceLevel struct {
	Plants    float64 `json:"plants"`
	SmallGame float64 `json:"smallGame"`
	LargeGame float64 `json:"largeGame"`
}

// RiskModifier is the current composed hazard level, each component in
// [0, 1].
type RiskModifier struct {
	Injury      float64 `json:"injury"`
	Hypothermia float64 `json:"hypothermia"`
	Predator    float64 `json:"predator"`
}

// State is the mutable, serializable environment snapshot.
// Invariant: 0 <= SeasonIndex < len(seasons); Day >= 0; every hazard in
// [0,1]; every resource >= 0.
type State struct {
	Day           int           `json:"day"`
	SeasonIndex   int           `json:"seasonIndex"`
	SeasonDay     int           `json:"seasonDay"`
	ResourceLevel ResourceLevel `json:"resourceLevel"`
	ClimateShock  float64       `json:"climateShock"`
	RiskModifier  RiskModifier  `json:"riskModifier"`
}

// NewInitial builds the day-0 environment: base rates, season 0, and the
// hazard composition for season 0, with no draw yet performed.
func NewInitial(cfg *config.ScenarioConfig) *State {
	season := cfg.Seasons[0]
	hz := cfg.HazardsFor(season.Name)
	return &State{
		Day:         0,
		SeasonIndex: 0,
		SeasonDay:   0,
		ResourceLevel: ResourceLevel{
			Plants:    cfg.Resources.BasePlantRate,
			SmallGame: cfg.Resources.BaseSmallGameRate,
			LargeGame: cfg.Resources.BaseLargeGameRate,
		},
		RiskModifier: RiskModifier{
			Injury:      hz.Injury,
			Hypothermia: hz.Hypothermia,
			Predator:    hz.Predator,
		},
	}
}

// Tick advances the environment by one day.
func Tick(s *State, r *rng.RNG, cfg *config.ScenarioConfig) {
	s.Day++
	s.SeasonIndex = (s.Day / cfg.Timeline.SeasonLengthDays) % len(cfg.Seasons)
	s.SeasonDay = s.Day % cfg.Timeline.SeasonLengthDays

	season := cfg.Seasons[s.SeasonIndex]

	gamma := rng.Gamma(r, cfg.Resources.PoissonGamma.Shape, cfg.Resources.PoissonGamma.Scale)
	climateShock := uniform(r, -season.ClimateNoise, season.ClimateNoise)
	s.ClimateShock = climateShock

	baseMultiplier := season.ResourceMultiplier * math.Max(0.1, gamma+climateShock)

	logGaussianMult := 1.0
	if cfg.Resources.LogGaussian != nil {
		logGaussianMult = rng.LogGaussian(r, cfg.Resources.LogGaussian.Mean, cfg.Resources.LogGaussian.Variance)
	}

	bonus := cfg.Resources.LargeGameBonus[season.Name]

	s.ResourceLevel = ResourceLevel{
		Plants:    cfg.Resources.BasePlantRate * baseMultiplier * logGaussianMult,
		SmallGame: cfg.Resources.BaseSmallGameRate * baseMultiplier * 0.8,
		LargeGame: cfg.Resources.BaseLargeGameRate*baseMultiplier + bonus,
	}

	hz := cfg.HazardsFor(season.Name)
	s.RiskModifier = RiskModifier{
		Injury:      hz.Injury,
		Hypothermia: hz.Hypothermia,
		Predator:    hz.Predator,
	}
}

// uniform draws a value in [min, max).
func uniform(r *rng.RNG, min, max float64) float64 {
	return min + r.Next()*(max-min)
}
