package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validScenarioYAML = `
name: test-scenario
displayName: Test Scenario
seasons:
  - name: spring
    resourceMultiplier: 1
    climateNoise: 0.1
tasks:
  - id: forage_berries
    category: foraging
    successProbability: 0.8
    energyCost: 1
    injuryRiskMultiplier: 0.1
    minParticipants: 1
    recommendedParticipants: 2
    norm: equal_share
timeline:
  seasonLengthDays: 10
  dailyMicroInteractions:
    - greeting
`

func TestLoadDirRegistersValidScenarios(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(validScenarioYAML), 0o644); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}

	r := NewRegistry()
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	cfg, err := r.Get("test-scenario")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.DisplayName != "Test Scenario" {
		t.Fatalf("unexpected display name %q", cfg.DisplayName)
	}
}

func TestNamesReturnsSortedScenarioNames(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		cfg := &ScenarioConfig{
			Name:        name,
			DisplayName: name,
			Seasons:     []Season{{Name: SeasonSpring}},
			Tasks:       []Task{{ID: "t"}},
			Timeline:    Timeline{DailyMicroInteractions: []string{"x"}},
		}
		if err := r.Register(cfg); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	got := r.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected sorted names %v, got %v", want, got)
		}
	}
}

func TestValidateRejectsUnknownSeasonName(t *testing.T) {
	cfg := &ScenarioConfig{
		Name:        "bad",
		DisplayName: "Bad",
		Seasons:     []Season{{Name: "monsoon"}},
		Tasks:       []Task{{ID: "t"}},
		Timeline:    Timeline{DailyMicroInteractions: []string{"x"}},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected validation error for unknown season name")
	}
}

func TestValidateRejectsEmptyTaskList(t *testing.T) {
	cfg := &ScenarioConfig{
		Name:        "bad",
		DisplayName: "Bad",
		Timeline:    Timeline{DailyMicroInteractions: []string{"x"}},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected validation error for empty task list")
	}
}
