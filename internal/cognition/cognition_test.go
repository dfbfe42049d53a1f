package cognition

import (
	"testing"

	"github.com/brackenfield/commons-sim/internal/agents"
	"github.com/brackenfield/commons-sim/internal/config"
)

func testCfg() *config.ScenarioConfig {
	return &config.ScenarioConfig{
		Cognition: config.Cognition{
			Emotion:                 config.EmotionParams{Decay: 0.5},
			EpisodicWindowDays:      5,
			SocialMemoryHorizonDays: 5,
			ReflectionIntervalDays:  3,
		},
	}
}

func TestApplyStimulusMovesValenceTowardGoalSign(t *testing.T) {
	cfg := testCfg()
	a := &agents.AgentState{Name: "a"}

	ApplyStimulus(a, cfg, 1, Stimulus{Goal: 1, NormAlignment: 1, Preference: 1, Summary: "good day"})
	if a.Emotion.Valence <= 0 {
		t.Fatalf("expected positive valence after a positive stimulus, got %v", a.Emotion.Valence)
	}
	if len(a.EpisodicMemory) != 1 || a.EpisodicMemory[0].Summary != "good day" {
		t.Fatalf("expected episodic entry recorded, got %+v", a.EpisodicMemory)
	}
}

func TestEpisodicMemoryEvictsOutsideWindow(t *testing.T) {
	cfg := testCfg()
	a := &agents.AgentState{Name: "a"}

	ApplyStimulus(a, cfg, 1, Stimulus{Summary: "day one"})
	ApplyStimulus(a, cfg, 10, Stimulus{Summary: "day ten"})

	for _, e := range a.EpisodicMemory {
		if e.Summary == "day one" {
			t.Fatalf("expected day-one entry evicted once day 10 - day 1 > window, got %+v", a.EpisodicMemory)
		}
	}
}

func TestRegisterInteractionKeepsOneEntryPerPartner(t *testing.T) {
	cfg := testCfg()
	a := &agents.AgentState{Name: "a"}

	RegisterInteraction(a, cfg, 99, 1, 0.5, 1, 0, 0.5)
	RegisterInteraction(a, cfg, 99, 2, 0.5, 1, 0, 0.5)

	if len(a.SocialMemory) != 1 {
		t.Fatalf("expected exactly one social memory entry per partner, got %d", len(a.SocialMemory))
	}
	if a.SocialMemory[0].ResourcesGiven != 2 {
		t.Fatalf("expected accumulated resources given of 2, got %v", a.SocialMemory[0].ResourcesGiven)
	}
}

func TestReflectRespectsIntervalAndUpdatesLastReflectionDay(t *testing.T) {
	cfg := testCfg()
	a := &agents.AgentState{Name: "a", LastReflectionDay: -1}

	first := Reflect(a, cfg, 1)
	if first == "" {
		t.Fatalf("expected a reflection on the first call")
	}
	if a.LastReflectionDay != 1 {
		t.Fatalf("expected LastReflectionDay updated to 1, got %d", a.LastReflectionDay)
	}

	second := Reflect(a, cfg, 2)
	if second != "" {
		t.Fatalf("expected no reflection within the interval, got %q", second)
	}
}
