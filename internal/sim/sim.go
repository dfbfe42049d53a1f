// Package sim is the day-stepped orchestrator: it owns the complete
// simulation state and wires the environment, agent population, task
// planner, cognition engine, social network, and LLM decision chain
// together each day through a single StepDay entrypoint, dispatching into
// each subsystem in turn.
package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brackenfield/commons-sim/internal/agents"
	"github.com/brackenfield/commons-sim/internal/cognition"
	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/environment"
	"github.com/brackenfield/commons-sim/internal/llm"
	"github.com/brackenfield/commons-sim/internal/network"
	"github.com/brackenfield/commons-sim/internal/planner"
	"github.com/brackenfield/commons-sim/internal/rng"
)

// RunMetadata identifies one simulation run, independent of its day-to-day
// state.
type RunMetadata struct {
	RunID        string `json:"runId"`
	ScenarioName string `json:"scenarioName"`
	Seed         uint32 `json:"seed"`
	CreatedAt    string `json:"createdAt"`
	CurrentDay   int    `json:"currentDay"`
}

// CausalLink records one cause-effect pair surfaced during a day's
// execution, used for post-hoc narrative and debugging.
type CausalLink struct {
	Day     int            `json:"day"`
	Cause   string         `json:"cause"`
	Effect  string         `json:"effect"`
	AgentID *agents.AgentID `json:"agentId,omitempty"`
	Weight  float64        `json:"weight"`
}

// SimulationLogEntry is one structured log record of a task execution or
// reflection, returned to the caller in StepResult for persistence.
type SimulationLogEntry struct {
	Day     int    `json:"day"`
	Kind    string `json:"kind"` // "task", "reflection"
	AgentID *agents.AgentID `json:"agentId,omitempty"`
	TaskID  string `json:"taskId,omitempty"`
	Detail  string `json:"detail"`
}

// DailyMetrics is the per-day aggregate handed to persistence and to the
// CLI's progress output.
type DailyMetrics struct {
	Day         int                        `json:"day"`
	Season      string                     `json:"season"`
	Population  int                        `json:"population"`
	Cooperation planner.CooperationMetrics `json:"cooperation"`
	Network     network.Stats              `json:"network"`
}

// TaskAssignment mirrors one planner.Execution in persistence-friendly form.
type TaskAssignment struct {
	TaskID       string                     `json:"taskId"`
	Participants []agents.AgentID           `json:"participants"`
	Success      bool                       `json:"success"`
	Reward       float64                    `json:"reward"`
	Shares       map[agents.AgentID]float64 `json:"shares"`
}

// State is the complete, serializable simulation snapshot.
type State struct {
	Meta               RunMetadata
	Environment        *environment.State
	Agents             []*agents.AgentState
	Network            *network.State
	Scenario           *config.ScenarioConfig
	RNGSeed            uint32
	EnvironmentRNGSeed uint32
}

// StepResult is everything produced by one StepDay call.
type StepResult struct {
	Metrics     DailyMetrics
	Assignments []TaskAssignment
	CausalLinks []CausalLink
	LogEntries  []SimulationLogEntry
}

// Orchestrator runs one simulation's day-stepped lifecycle. It owns two
// independent RNG streams — one for agent/task stochastic draws, one for
// the environment — because reusing a single stream would make environment
// draws depend on how many agent-level draws preceded them each day,
// breaking bit-exact cross-run comparison when task counts vary.
type Orchestrator struct {
	state       *State
	rng         *rng.RNG
	environRng  *rng.RNG
	spawner     *agents.Spawner
	adapterChain *llm.Chain
	log         *slog.Logger
}

// Initialize creates a fresh run from a scenario config and seed.
func Initialize(log *slog.Logger, runID string, cfg *config.ScenarioConfig, seed uint32, chain *llm.Chain) *Orchestrator {
	mainRNG := rng.New(seed)
	environSeed := mainRNG.NextSeed()
	environRNG := rng.New(environSeed)

	spawner := agents.NewSpawner()
	population := spawner.SpawnPopulation(mainRNG, cfg)

	campMembership := make(map[agents.AgentID]string, len(population))
	for _, a := range population {
		campMembership[a.ID] = a.CampID
	}

	return &Orchestrator{
		state: &State{
			Meta: RunMetadata{
				RunID:        runID,
				ScenarioName: cfg.Name,
				Seed:         seed,
				CurrentDay:   0,
			},
			Environment:        environment.NewInitial(cfg),
			Agents:             population,
			Network:            network.New(cfg.Network.Decay, campMembership),
			Scenario:           cfg,
			RNGSeed:            mainRNG.Seed(),
			EnvironmentRNGSeed: environSeed,
		},
		rng:          mainRNG,
		environRng:   environRNG,
		spawner:      spawner,
		adapterChain: chain,
		log:          log,
	}
}

// StepDay advances the simulation by exactly one day: environment tick,
// LLM plan request, task assignment and execution, cognition update, social
// network update, metrics aggregation.
func (o *Orchestrator) StepDay(ctx context.Context) (StepResult, error) {
	if ctx.Err() != nil {
		return StepResult{}, fmt.Errorf("step day: %w", ctx.Err())
	}

	cfg := o.state.Scenario
	env := o.state.Environment
	environment.Tick(env, o.environRng, cfg)
	o.state.Meta.CurrentDay = env.Day

	season := cfg.Seasons[env.SeasonIndex]

	taskIDs := make([]string, len(cfg.Tasks))
	for i, t := range cfg.Tasks {
		taskIDs[i] = t.ID
	}
	planReq := llm.PlanRequest{
		ScenarioName:    cfg.Name,
		Day:             env.Day,
		SeasonName:      season.Name,
		ResourceSummary: fmt.Sprintf("plants=%.2f smallGame=%.2f largeGame=%.2f", env.ResourceLevel.Plants, env.ResourceLevel.SmallGame, env.ResourceLevel.LargeGame),
		TaskIDs:         taskIDs,
		PromptSuffix:    cfg.LLM.PlanTemplate,
	}
	planResp := o.adapterChain.GeneratePlan(ctx, planReq)
	orderedTasks := llm.OrderTasksByPlan(cfg.Tasks, planResp)

	available := make([]*agents.AgentState, 0, len(o.state.Agents))
	for _, a := range o.state.Agents {
		if a.Energy > 0 {
			available = append(available, a)
		}
	}

	executions := planner.AssignTasks(o.rng, available, env.ResourceLevel, orderedTasks, env.RiskModifier)

	var logEntries []SimulationLogEntry
	var causalLinks []CausalLink
	assignments := make([]TaskAssignment, 0, len(executions))

	byID := make(map[agents.AgentID]*agents.AgentState, len(o.state.Agents))
	for _, a := range o.state.Agents {
		byID[a.ID] = a
	}

	dailyEnergyNeed := cfg.Defaults.DailyEnergyNeed

	for _, ex := range executions {
		baseShare := 0.0
		if len(ex.Participants) > 0 {
			baseShare = ex.TotalReward / float64(len(ex.Participants))
		}

		injured := make(map[agents.AgentID]bool, len(ex.Injuries))
		for _, id := range ex.Injuries {
			injured[id] = true
		}

		for _, id := range ex.Participants {
			a, ok := byID[id]
			if !ok {
				continue
			}
			a.Energy = maxFloat(0, a.Energy+ex.Shares[id]-ex.EnergyCost[id]-dailyEnergyNeed)
			if a.Energy < 0.5*dailyEnergyNeed {
				a.HungerDebt += 0.5*dailyEnergyNeed - a.Energy
			}

			if injured[id] {
				a.Energy = maxFloat(0, a.Energy-0.2)
				injuredID := id
				causalLinks = append(causalLinks, CausalLink{Day: env.Day, Cause: ex.TaskID, Effect: "injury", AgentID: &injuredID, Weight: 1})
				cognition.ApplyStimulus(a, cfg, env.Day, cognition.Stimulus{
					Goal:    -1,
					Arousal: 0.3,
					Summary: fmt.Sprintf("injured during %s", ex.TaskID),
				})
			}

			outcome := -1.0
			if ex.Success {
				outcome = 1.0
			}
			cognition.ApplyStimulus(a, cfg, env.Day, cognition.Stimulus{
				Goal:          outcome,
				NormAlignment: normAlignment(ex.Shares[id], baseShare, a.FehrSchmidt.NormPenalty),
				Preference:    a.Preferences.CooperationBias*boolToFloat(len(ex.Participants) > 1) - 0.5,
				Arousal:       0.2 * outcome,
				Summary:       fmt.Sprintf("participated in %s, success=%v", ex.TaskID, ex.Success),
			})

			if ex.Success {
				a.Reputation = clampFloat(a.Reputation+0.05, 0, 1)
			} else {
				a.Reputation = clampFloat(a.Reputation-0.03, 0, 1)
			}

			for _, otherID := range ex.Participants {
				if otherID == id {
					continue
				}
				weight := 0.2 + ex.Shares[id]*0.05
				o.state.Network.ReinforceInteraction(id, otherID, weight)
				cognition.RegisterInteraction(a, cfg, otherID, env.Day, weight, ex.Shares[id], 0, 0.02*boolToFloat(ex.Success))
			}

			if refl := cognition.Reflect(a, cfg, env.Day); refl != "" && cfg.Logging.Reflections {
				logEntries = append(logEntries, SimulationLogEntry{Day: env.Day, Kind: "reflection", AgentID: &a.ID, Detail: refl})
			}
		}

		if cfg.Logging.Tasks {
			logEntries = append(logEntries, SimulationLogEntry{Day: env.Day, Kind: "task", TaskID: ex.TaskID, Detail: fmt.Sprintf("success=%v participants=%d reward=%.2f", ex.Success, len(ex.Participants), ex.TotalReward)})
		}

		assignments = append(assignments, TaskAssignment{
			TaskID:       ex.TaskID,
			Participants: ex.Participants,
			Success:      ex.Success,
			Reward:       ex.TotalReward,
			Shares:       ex.Shares,
		})
	}

	for _, a := range o.state.Agents {
		if a.LastReflectionDay == env.Day {
			continue // already reflected after today's task
		}
		if refl := cognition.Reflect(a, cfg, env.Day); refl != "" && cfg.Logging.Reflections {
			logEntries = append(logEntries, SimulationLogEntry{Day: env.Day, Kind: "reflection", AgentID: &a.ID, Detail: refl})
		}
	}

	o.state.Network.ApplyDecay()

	metrics := DailyMetrics{
		Day:         env.Day,
		Season:      season.Name,
		Population:  len(o.state.Agents),
		Cooperation: planner.EvaluateCooperation(executions, o.state.Agents),
		Network:     o.state.Network.ComputeStats(),
	}

	if cfg.Logging.Network {
		o.log.Info("network snapshot", "day", env.Day, "reciprocity", metrics.Network.Reciprocity, "clustering", metrics.Network.Clustering)
	}

	o.state.RNGSeed = o.rng.Seed()
	o.state.EnvironmentRNGSeed = o.environRng.Seed()

	return StepResult{
		Metrics:     metrics,
		Assignments: assignments,
		CausalLinks: causalLinks,
		LogEntries:  logEntries,
	}, nil
}

// State returns the orchestrator's live state (not a copy). Callers that
// need an independent snapshot should use Serialize.
func (o *Orchestrator) State() *State {
	return o.state
}

// Serialize deep-clones the orchestrator's state for persistence or
// snapshot comparison: the live state must never alias a returned snapshot.
func (o *Orchestrator) Serialize() *State {
	return &State{
		Meta:               o.state.Meta,
		Environment:        cloneEnvironment(o.state.Environment),
		Agents:             agents.CloneAll(o.state.Agents),
		Network:            cloneNetwork(o.state.Network),
		Scenario:           o.state.Scenario,
		RNGSeed:            o.state.RNGSeed,
		EnvironmentRNGSeed: o.state.EnvironmentRNGSeed,
	}
}

// FromState rebuilds a running Orchestrator from a previously serialized
// State, restoring both RNG streams to their persisted seeds rather than
// the run's original seed: the environment RNG stays an independent stream
// across restore boundaries too.
func FromState(log *slog.Logger, snapshot *State, chain *llm.Chain) *Orchestrator {
	restored := &State{
		Meta:               snapshot.Meta,
		Environment:        cloneEnvironment(snapshot.Environment),
		Agents:             agents.CloneAll(snapshot.Agents),
		Network:            cloneNetwork(snapshot.Network),
		Scenario:           snapshot.Scenario,
		RNGSeed:            snapshot.RNGSeed,
		EnvironmentRNGSeed: snapshot.EnvironmentRNGSeed,
	}
	return &Orchestrator{
		state:        restored,
		rng:          rng.New(snapshot.RNGSeed),
		environRng:   rng.New(snapshot.EnvironmentRNGSeed),
		spawner:      agents.NewSpawner(),
		adapterChain: chain,
		log:          log,
	}
}

func cloneEnvironment(e *environment.State) *environment.State {
	clone := *e
	return &clone
}

func cloneNetwork(n *network.State) *network.State {
	clone := network.New(n.ForgetFactor, cloneCampMembership(n.CampMembership))
	clone.SetEdges(n.Edges())
	return clone
}

func cloneCampMembership(m map[agents.AgentID]string) map[agents.AgentID]string {
	out := make(map[agents.AgentID]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// normAlignment measures how a participant's share deviates from an equal
// baseShare, judged against the agent's own norm-penalty tolerance: a delta
// exactly at -normPenalty reads as neutral, a fairer delta reads positive,
// and a less fair one reads negative.
func normAlignment(share, baseShare, normPenalty float64) float64 {
	delta := (share - baseShare) / maxFloat(baseShare, 0.001)
	return clampFloat(delta+normPenalty, -1, 1)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
