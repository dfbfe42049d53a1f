package environment

import (
	"testing"

	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/rng"
)

func testCfg() *config.ScenarioConfig {
	return &config.ScenarioConfig{
		Seasons: []config.Season{
			{Name: "spring", ResourceMultiplier: 1, ClimateNoise: 0.1},
			{Name: "summer", ResourceMultiplier: 1.3, ClimateNoise: 0.1},
		},
		Resources: config.Resources{
			BasePlantRate:     10,
			BaseSmallGameRate: 5,
			BaseLargeGameRate: 2,
			PoissonGamma:      config.PoissonGamma{Shape: 2, Scale: 1},
		},
		Hazards:  config.Hazards{Base: config.HazardTriple{Injury: 0.1, Hypothermia: 0.05, Predator: 0.02}},
		Timeline: config.Timeline{SeasonLengthDays: 5},
	}
}

func TestTickIsDeterministicForSameSeed(t *testing.T) {
	cfg := testCfg()

	s1 := NewInitial(cfg)
	r1 := rng.New(10)
	s2 := NewInitial(cfg)
	r2 := rng.New(10)

	for i := 0; i < 20; i++ {
		Tick(s1, r1, cfg)
		Tick(s2, r2, cfg)
		if s1.ResourceLevel != s2.ResourceLevel {
			t.Fatalf("tick %d diverged: %+v vs %+v", i, s1.ResourceLevel, s2.ResourceLevel)
		}
	}
}

func TestSeasonIndexWrapsAcrossSeasonLength(t *testing.T) {
	cfg := testCfg()
	s := NewInitial(cfg)
	r := rng.New(1)

	for i := 0; i < 6; i++ {
		Tick(s, r, cfg)
	}
	// day 6, seasonLength 5, len(seasons) 2 -> seasonIndex = (6/5) % 2 = 1
	if s.SeasonIndex != 1 {
		t.Fatalf("expected seasonIndex 1 after 6 days, got %d", s.SeasonIndex)
	}
}

func TestResourceLevelsStayNonNegative(t *testing.T) {
	cfg := testCfg()
	s := NewInitial(cfg)
	r := rng.New(99)

	for i := 0; i < 100; i++ {
		Tick(s, r, cfg)
		if s.ResourceLevel.Plants < 0 || s.ResourceLevel.SmallGame < 0 || s.ResourceLevel.LargeGame < 0 {
			t.Fatalf("tick %d produced negative resource level: %+v", i, s.ResourceLevel)
		}
	}
}
