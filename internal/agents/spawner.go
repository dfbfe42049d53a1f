// Agent population initialization — sampling skills and Fehr-Schmidt
// parameters from the scenario's configured distributions, and preferences
// from a fixed normal distribution (mean 0.5, std 0.2).
// A seeded constructor hands out sequential IDs, draws each trait with a
// normal-sample-then-clamp pattern, and assigns camp membership by rotation
// at spawn time rather than as a post-hoc pass.
package agents

import (
	"fmt"

	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/rng"
)

// Camps is the fixed rotation of camp identifiers new agents are assigned
// to round-robin at spawn time.
var Camps = []string{"Camp-A", "Camp-B", "Camp-C"}

// Spawner hands out sequential agent IDs and samples new agents from a
// scenario's configured distributions.
type Spawner struct {
	nextID AgentID
}

// NewSpawner creates a spawner starting IDs at 1.
func NewSpawner() *Spawner {
	return &Spawner{nextID: 1}
}

// SpawnPopulation creates cfg.AgentPopulation.Size fresh agents, rotating
// camp assignment across Camps and sampling every per-agent trait from r.
func (s *Spawner) SpawnPopulation(r *rng.RNG, cfg *config.ScenarioConfig) []*AgentState {
	out := make([]*AgentState, 0, cfg.AgentPopulation.Size)
	for i := 0; i < cfg.AgentPopulation.Size; i++ {
		out = append(out, s.spawnOne(r, cfg))
	}
	return out
}

func (s *Spawner) spawnOne(r *rng.RNG, cfg *config.ScenarioConfig) *AgentState {
	id := s.nextID
	s.nextID++

	camp := Camps[int(id-1)%len(Camps)]

	skillset := make(map[string]float64, len(cfg.AgentPopulation.SkillProfiles))
	for name, profile := range cfg.AgentPopulation.SkillProfiles {
		skillset[name] = clamp(sampleNormal(r, profile.Mean, profile.Std), 0, 1.2)
	}

	sp := cfg.AgentPopulation.SocialPreferences
	fehrSchmidt := FehrSchmidt{
		Alpha:            clamp(sampleNormal(r, sp.AlphaMean, sp.AlphaStd), 0, 10),
		Beta:             clamp(sampleNormal(r, sp.BetaMean, sp.BetaStd), 0, 10),
		ReputationWeight: clamp01(sp.ReputationWeight),
		NormPenalty:      clamp01(sp.NormPenalty),
	}

	preferences := Preferences{
		RiskTolerance:      clamp01(sampleNormal(r, 0.5, 0.2)),
		CooperationBias:    clamp01(sampleNormal(r, 0.5, 0.2)),
		SolitudePreference: clamp01(sampleNormal(r, 0.5, 0.2)),
		NoveltySeeking:     clamp01(sampleNormal(r, 0.5, 0.2)),
		Traditionalism:     clamp01(sampleNormal(r, 0.5, 0.2)),
	}

	return &AgentState{
		ID:     id,
		Name:   fmt.Sprintf("agent-%d", id),
		CampID: camp,
		Energy: cfg.Defaults.DailyEnergyNeed * 1.2,
		Emotion: Emotion{
			Valence: cfg.Cognition.Emotion.BaselineValence,
			Arousal: cfg.Cognition.Emotion.BaselineArousal,
			Mood:    0,
		},
		FehrSchmidt: fehrSchmidt,
		Reputation:  0.5,
		Skillset:    skillset,
		Preferences: preferences,
		SemanticMemory: SemanticMemory{
			ResourceExpectations: map[string]float64{},
		},
		LastReflectionDay: -1,
	}
}

func sampleNormal(r *rng.RNG, mean, std float64) float64 {
	return mean + std*rng.Normal(r)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
