// Package planner implements per-day role assignment, success sampling,
// fairness-based reward distribution, injury sampling, and cooperation
// metrics. Resolution is structured as a sequence of small pure helper
// functions operating on a shared agent slice, with a norm-driven,
// per-task reward split over an arbitrary skill key rather than a fixed
// skill/good economy.
package planner

import (
	"math"
	"sort"

	"github.com/brackenfield/commons-sim/internal/agents"
	"github.com/brackenfield/commons-sim/internal/config"
	"github.com/brackenfield/commons-sim/internal/environment"
	"github.com/brackenfield/commons-sim/internal/rng"
)

// Execution is the outcome of running one task for one day.
type Execution struct {
	TaskID       string                      `json:"taskId"`
	Participants []agents.AgentID            `json:"participants"`
	Success      bool                        `json:"success"`
	TotalReward  float64                     `json:"totalReward"`
	Shares       map[agents.AgentID]float64  `json:"shares"`
	EnergyCost   map[agents.AgentID]float64  `json:"energyCost"`
	Injuries     []agents.AgentID            `json:"injuries"`
}

// skillKeyForCategory maps a task category to the skillset key consulted
// for average-skill and proportional-skill computations.
func skillKeyForCategory(category config.TaskCategory) string {
	switch category {
	case config.CategoryForaging:
		return "gathering"
	case config.CategoryHunting:
		return "hunting"
	case config.CategoryPublicGood:
		return "crafting"
	default:
		return "gathering"
	}
}

// resourceLevelForCategory selects the relevant resource pool for a task's
// category.
func resourceLevelForCategory(category config.TaskCategory, res environment.ResourceLevel) float64 {
	switch category {
	case config.CategoryHunting:
		return res.SmallGame + res.LargeGame
	default:
		return res.Plants
	}
}

// AssignTasks runs role assignment and execution for every task in order,
// then bulk-assigns any leftover agents to camp_maintenance (if present).
func AssignTasks(r *rng.RNG, available []*agents.AgentState, res environment.ResourceLevel, tasks []config.Task, hazards environment.RiskModifier) []Execution {
	pool := make([]*agents.AgentState, len(available))
	copy(pool, available)
	rng.Shuffle(r, pool)

	var executions []Execution

	for _, task := range tasks {
		if task.ID == "camp_maintenance" {
			// Reserved for the idle-fallback pass below; never scheduled directly.
			continue
		}

		need := task.RecommendedParticipants
		if need > len(pool) {
			need = len(pool)
		}
		if need < task.MinParticipants {
			continue
		}

		var participants []*agents.AgentState
		var remaining []*agents.AgentState
		for _, a := range pool {
			if len(participants) >= need {
				remaining = append(remaining, a)
				continue
			}
			if task.Category == config.CategoryHunting && a.Skill("hunting") < 0.3 {
				remaining = append(remaining, a)
				continue
			}
			participants = append(participants, a)
		}

		if len(participants) < task.MinParticipants {
			continue
		}

		pool = remaining

		executions = append(executions, execute(r, task, participants, res, hazards))
	}

	if len(pool) > 0 {
		for _, task := range tasksByID(tasks, "camp_maintenance") {
			ids := make([]agents.AgentID, len(pool))
			shares := make(map[agents.AgentID]float64, len(pool))
			cost := make(map[agents.AgentID]float64, len(pool))
			for i, a := range pool {
				ids[i] = a.ID
				shares[a.ID] = 0
				cost[a.ID] = 0
			}
			executions = append(executions, Execution{
				TaskID:       task.ID,
				Participants: ids,
				Success:      true,
				TotalReward:  0,
				Shares:       shares,
				EnergyCost:   cost,
			})
			pool = nil
			break
		}
	}

	return executions
}

func tasksByID(tasks []config.Task, id string) []config.Task {
	for _, t := range tasks {
		if t.ID == id {
			return []config.Task{t}
		}
	}
	return nil
}

func execute(r *rng.RNG, task config.Task, participants []*agents.AgentState, res environment.ResourceLevel, hazards environment.RiskModifier) Execution {
	skillKey := skillKeyForCategory(task.Category)
	resourceLevel := resourceLevelForCategory(task.Category, res)

	avgSkill := 0.0
	for _, a := range participants {
		avgSkill += a.Skill(skillKey)
	}
	avgSkill /= float64(len(participants))

	resourceTerm := -0.1
	if resourceLevel > 0 {
		resourceTerm = 0.05 * math.Log(1+resourceLevel)
	}

	successProbability := clamp01(
		task.SuccessProbability +
			0.05*math.Max(0, float64(len(participants)-task.MinParticipants)) +
			0.1*(avgSkill-0.5) +
			resourceTerm,
	)

	success := r.Next() < successProbability

	totalReward := computeTotalReward(task, success, len(participants))
	shares := splitReward(task.Norm, totalReward, participants, skillKey)

	energyCost := make(map[agents.AgentID]float64, len(participants))
	for _, a := range participants {
		mult := 1.0
		if task.Category == config.CategoryHunting {
			mult = 1 + (1-a.Skill("hunting"))*0.2
		}
		energyCost[a.ID] = task.EnergyCost * mult
	}

	var injuries []agents.AgentID
	injuryMultiplier := 0.7
	if !success {
		injuryMultiplier = 1.1
	}
	for _, a := range participants {
		risk := clamp01(task.InjuryRiskMultiplier * hazards.Injury)
		if r.Next() < risk*injuryMultiplier {
			injuries = append(injuries, a.ID)
		}
	}

	ids := make([]agents.AgentID, len(participants))
	for i, a := range participants {
		ids[i] = a.ID
	}

	return Execution{
		TaskID:       task.ID,
		Participants: ids,
		Success:      success,
		TotalReward:  totalReward,
		Shares:       shares,
		EnergyCost:   energyCost,
		Injuries:     injuries,
	}
}

func computeTotalReward(task config.Task, success bool, participantCount int) float64 {
	if task.YieldPerParticipant != nil {
		if success {
			return *task.YieldPerParticipant * float64(participantCount)
		}
		return 0
	}
	if task.YieldPerParticipantOnSuccess != nil && success {
		return *task.YieldPerParticipantOnSuccess
	}
	return 0
}

// splitReward distributes total among participants according to norm.
func splitReward(norm config.NormRule, total float64, participants []*agents.AgentState, skillKey string) map[agents.AgentID]float64 {
	shares := make(map[agents.AgentID]float64, len(participants))
	n := len(participants)
	if n == 0 {
		return shares
	}

	switch norm {
	case config.NormCollectivePenalty:
		for _, a := range participants {
			shares[a.ID] = 0
		}

	case config.NormProportionalSkill:
		denom := 0.0
		for _, a := range participants {
			denom += a.Skill(skillKey)
		}
		if denom <= 0 {
			denom = float64(n) * 0.5
		}
		for _, a := range participants {
			shares[a.ID] = total * a.Skill(skillKey) / denom
		}

	case config.NormKeyContributor:
		bonusPool := 0.25 * total
		basePool := 0.75 * total
		topCount := n / 3
		if topCount < 1 {
			topCount = 1
		}
		ranked := make([]*agents.AgentState, n)
		copy(ranked, participants)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Skill(skillKey) > ranked[j].Skill(skillKey)
		})
		top := make(map[agents.AgentID]bool, topCount)
		for i := 0; i < topCount; i++ {
			top[ranked[i].ID] = true
		}
		for _, a := range participants {
			share := basePool / float64(n)
			if top[a.ID] {
				share += bonusPool / float64(topCount)
			}
			shares[a.ID] = share
		}

	default: // equal_share
		for _, a := range participants {
			shares[a.ID] = total / float64(n)
		}
	}

	return shares
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
