package agents

import (
	"testing"

	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/rng"
)

func testCfg() *config.ScenarioConfig {
	return &config.ScenarioConfig{
		AgentPopulation: config.AgentPopulation{
			Size: 6,
			SkillProfiles: map[string]config.SkillProfile{
				"gathering": {Mean: 0.5, Std: 0.1},
				"hunting":   {Mean: 0.5, Std: 0.1},
			},
			SocialPreferences: config.SocialPreferences{AlphaMean: 1, BetaMean: 0.5, ReputationWeight: 0.4, NormPenalty: 0.5},
		},
		Cognition: config.Cognition{Emotion: config.EmotionParams{BaselineValence: 0.1, BaselineArousal: 0.2}},
		Defaults: config.Defaults{DailyEnergyNeed: 10},
	}
}

func TestSpawnPopulationAssignsSequentialIDsAndRotatesCamps(t *testing.T) {
	r := rng.New(1)
	s := NewSpawner()
	pop := s.SpawnPopulation(r, testCfg())

	if len(pop) != 6 {
		t.Fatalf("expected 6 agents, got %d", len(pop))
	}
	for i, a := range pop {
		if a.ID != AgentID(i+1) {
			t.Fatalf("expected sequential ID %d, got %d", i+1, a.ID)
		}
	}
	if pop[0].CampID == pop[1].CampID && pop[1].CampID == pop[2].CampID {
		t.Fatalf("expected camp rotation across Camps, all three agents share camp %q", pop[0].CampID)
	}
}

func TestSkillDefaultsToPointFiveForUnknownKey(t *testing.T) {
	a := &AgentState{Skillset: map[string]float64{"hunting": 0.9}}
	if a.Skill("crafting") != 0.5 {
		t.Fatalf("expected default skill 0.5, got %v", a.Skill("crafting"))
	}
	if a.Skill("hunting") != 0.9 {
		t.Fatalf("expected configured skill 0.9, got %v", a.Skill("hunting"))
	}
}

func TestCloneDetachesMapsAndSlices(t *testing.T) {
	original := &AgentState{
		ID:       1,
		Skillset: map[string]float64{"hunting": 0.5},
		EpisodicMemory: []EpisodicEntry{{Day: 1, Summary: "x"}},
	}
	clone := Clone(original)
	clone.Skillset["hunting"] = 0.9
	clone.EpisodicMemory[0].Summary = "changed"

	if original.Skillset["hunting"] != 0.5 {
		t.Fatalf("mutating clone's skillset leaked into original")
	}
	if original.EpisodicMemory[0].Summary != "x" {
		t.Fatalf("mutating clone's episodic memory leaked into original")
	}
}
