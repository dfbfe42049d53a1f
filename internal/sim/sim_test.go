package sim

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/brackenfield/commons-sim/internal/agents"
	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/llm"
	"github.com/brackenfield/commons-sim/internal/network"
	"github.com/google/go-cmp/cmp"
)

func testScenario() *config.ScenarioConfig {
	yield := 8.0
	return &config.ScenarioConfig{
		Name: "test-scenario",
		Seasons: []config.Season{
			{Name: "spring", ResourceMultiplier: 1, ClimateNoise: 0.1},
			{Name: "summer", ResourceMultiplier: 1.2, ClimateNoise: 0.1},
		},
		Resources: config.Resources{
			BasePlantRate:     10,
			BaseSmallGameRate: 5,
			BaseLargeGameRate: 2,
			PoissonGamma:      config.PoissonGamma{Shape: 2, Scale: 1},
		},
		Hazards: config.Hazards{Base: config.HazardTriple{Injury: 0.05, Hypothermia: 0.02, Predator: 0.01}},
		Tasks: []config.Task{
			{ID: "forage_berries", Category: config.CategoryForaging, SuccessProbability: 0.9, YieldPerParticipant: &yield, EnergyCost: 1, InjuryRiskMultiplier: 0.1, MinParticipants: 1, RecommendedParticipants: 2, Norm: config.NormEqualShare},
			{ID: "camp_maintenance", Category: config.CategoryPublicGood, Norm: config.NormEqualShare},
		},
		AgentPopulation: config.AgentPopulation{
			Size: 4,
			SkillProfiles: map[string]config.SkillProfile{
				"gathering": {Mean: 0.6, Std: 0.1},
				"hunting":   {Mean: 0.5, Std: 0.1},
				"crafting":  {Mean: 0.5, Std: 0.1},
			},
			SocialPreferences: config.SocialPreferences{AlphaMean: 1, BetaMean: 0.5, ReputationWeight: 0.5, NormPenalty: 0.5},
		},
		Cognition: config.Cognition{
			Emotion:                 config.EmotionParams{Decay: 0.3},
			EpisodicWindowDays:      10,
			SocialMemoryHorizonDays: 10,
			ReflectionIntervalDays:  3,
		},
		Network:  config.Network{Decay: 0.05},
		Timeline: config.Timeline{SeasonLengthDays: 30, DailyMicroInteractions: []string{"greeting"}},
		Defaults: config.Defaults{DailyEnergyNeed: 10},
		Logging:  config.Logging{Tasks: true, Reflections: true, Network: true},
	}
}

func noopChain() *llm.Chain {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return llm.NewChain(log, llm.NewOpenAIResponsesAdapter("", "", ""), llm.NewBedrockConverseAdapter("", "", ""), llm.NewOllamaAdapter("", ""))
}

func TestStepDayProducesDeterministicResultsForSameSeed(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testScenario()

	run := func() StepResult {
		o := Initialize(log, "run-1", cfg, 12345, noopChain())
		result, err := o.StepDay(context.Background())
		if err != nil {
			t.Fatalf("StepDay: %v", err)
		}
		return result
	}

	a := run()
	b := run()

	if diff := cmp.Diff(a.Metrics, b.Metrics); diff != "" {
		t.Fatalf("same seed produced different metrics:\n%s", diff)
	}
}

func TestSerializeFromStateRoundTrips(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testScenario()

	o := Initialize(log, "run-1", cfg, 99, noopChain())
	if _, err := o.StepDay(context.Background()); err != nil {
		t.Fatalf("StepDay: %v", err)
	}

	snapshot := o.Serialize()
	restored := FromState(log, snapshot, noopChain())

	if diff := cmp.Diff(snapshot, restored.Serialize(), cmp.AllowUnexported(network.State{})); diff != "" {
		t.Fatalf("round trip mismatch:\n%s", diff)
	}
}

func TestResumedRunMatchesUnbrokenRunAfterSecondStep(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testScenario()

	unbroken := Initialize(log, "run-1", cfg, 7, noopChain())
	if _, err := unbroken.StepDay(context.Background()); err != nil {
		t.Fatalf("unbroken day 1: %v", err)
	}
	wantDay2, err := unbroken.StepDay(context.Background())
	if err != nil {
		t.Fatalf("unbroken day 2: %v", err)
	}

	resumable := Initialize(log, "run-1", cfg, 7, noopChain())
	if _, err := resumable.StepDay(context.Background()); err != nil {
		t.Fatalf("resumable day 1: %v", err)
	}
	snapshot := resumable.Serialize()
	restored := FromState(log, snapshot, noopChain())
	gotDay2, err := restored.StepDay(context.Background())
	if err != nil {
		t.Fatalf("restored day 2: %v", err)
	}

	if diff := cmp.Diff(wantDay2.Metrics, gotDay2.Metrics); diff != "" {
		t.Fatalf("restored run's next step diverged from the unbroken run's:\n%s", diff)
	}
}

func TestStepDayRespectsCanceledContext(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testScenario()
	o := Initialize(log, "run-1", cfg, 1, noopChain())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.StepDay(ctx); err == nil {
		t.Fatalf("expected StepDay to fail on a canceled context")
	}
}

func TestStepDayKeepsEnergyAndReputationWithinBounds(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testScenario()
	o := Initialize(log, "run-1", cfg, 42, noopChain())

	for day := 0; day < 10; day++ {
		if _, err := o.StepDay(context.Background()); err != nil {
			t.Fatalf("StepDay on day %d: %v", day, err)
		}
	}

	for _, a := range o.state.Agents {
		if a.Energy < 0 {
			t.Fatalf("agent %d has negative energy %v", a.ID, a.Energy)
		}
		if a.HungerDebt < 0 {
			t.Fatalf("agent %d has negative hunger debt %v", a.ID, a.HungerDebt)
		}
		if a.Reputation < 0 || a.Reputation > 1 {
			t.Fatalf("agent %d reputation %v out of [0,1]", a.ID, a.Reputation)
		}
	}
}

func TestStepDayChargesDailyEnergyNeedAgainstParticipants(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testScenario()
	o := Initialize(log, "run-1", cfg, 42, noopChain())

	before := make(map[agents.AgentID]float64, len(o.state.Agents))
	for _, a := range o.state.Agents {
		before[a.ID] = a.Energy
	}

	if _, err := o.StepDay(context.Background()); err != nil {
		t.Fatalf("StepDay: %v", err)
	}

	changed := false
	for _, a := range o.state.Agents {
		if a.Energy != before[a.ID] {
			changed = true
		}
		if a.Energy > before[a.ID]+20 {
			t.Fatalf("agent %d energy %v grew implausibly from %v without the dailyEnergyNeed subtraction", a.ID, a.Energy, before[a.ID])
		}
	}
	if !changed {
		t.Fatalf("expected at least one agent's energy to change after a day of tasks")
	}
}

func TestNormAlignmentIsNeutralAtNormPenaltyDelta(t *testing.T) {
	// share == baseShare/2, so delta = -0.5; with normPenalty 0.5 the shift
	// cancels and alignment reads neutral.
	got := normAlignment(5, 10, 0.5)
	if got != 0 {
		t.Fatalf("expected neutral alignment at delta == -normPenalty, got %v", got)
	}

	fairer := normAlignment(10, 10, 0.5)
	if fairer <= 0 {
		t.Fatalf("expected a fairer-than-tolerated split to read positive, got %v", fairer)
	}

	unfair := normAlignment(0, 10, 0.5)
	if unfair >= 0 {
		t.Fatalf("expected a less fair split to read negative, got %v", unfair)
	}
}
