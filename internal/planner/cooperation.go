package planner

import (
	"math"

	"github.com/brackenfield/commons-sim/internal/agents"
)

// CooperationMetrics summarizes one day's worth of Executions across the
// whole population.
type CooperationMetrics struct {
	CooperationRate float64 `json:"cooperationRate"`
	EnergyBalance   float64 `json:"energyBalance"`
	RiskIncidents   int     `json:"riskIncidents"`
	InequalityIndex float64 `json:"inequalityIndex"`
}

// EvaluateCooperation folds a day's executions into population-wide
// cooperation metrics. population supplies the Fehr-Schmidt parameters used
// to weight InequalityIndex.
func EvaluateCooperation(executions []Execution, population []*agents.AgentState) CooperationMetrics {
	byID := make(map[agents.AgentID]*agents.AgentState, len(population))
	for _, a := range population {
		byID[a.ID] = a
	}

	cooperativeTasks, totalTasks := 0, 0
	energyBalance := 0.0
	riskIncidents := 0
	utilitySum := 0.0
	utilityCount := 0

	for _, ex := range executions {
		totalTasks++
		if len(ex.Participants) > 1 {
			cooperativeTasks++
		}
		for _, id := range ex.Participants {
			energyBalance += ex.Shares[id] - ex.EnergyCost[id]
		}
		riskIncidents += len(ex.Injuries)

		for _, id := range ex.Participants {
			a, ok := byID[id]
			if !ok {
				continue
			}
			others := make([]float64, 0, len(ex.Participants)-1)
			for _, otherID := range ex.Participants {
				if otherID == id {
					continue
				}
				others = append(others, ex.Shares[otherID])
			}
			utilitySum += FehrSchmidtUtility(ex.Shares[id], others, a.FehrSchmidt.Alpha, a.FehrSchmidt.Beta)
			utilityCount++
		}
	}

	cooperationRate := 0.0
	if totalTasks > 0 {
		cooperationRate = float64(cooperativeTasks) / float64(totalTasks)
	}

	inequalityIndex := 0.0
	if utilityCount > 0 {
		inequalityIndex = utilitySum / float64(utilityCount)
	}

	return CooperationMetrics{
		CooperationRate: cooperationRate,
		EnergyBalance:   energyBalance,
		RiskIncidents:   riskIncidents,
		InequalityIndex: inequalityIndex,
	}
}

// FehrSchmidtUtility is the inequality-averse utility an agent derives from
// receiving x while others received others: x minus Alpha times the average
// shortfall felt toward better-off others, minus Beta times the average
// surplus felt guilty about toward worse-off others. With every element of
// others equal to x, both penalty terms vanish and the result is exactly x.
func FehrSchmidtUtility(x float64, others []float64, alpha, beta float64) float64 {
	if len(others) == 0 {
		return x
	}
	disadvantage, advantage := 0.0, 0.0
	for _, o := range others {
		disadvantage += math.Max(o-x, 0)
		advantage += math.Max(x-o, 0)
	}
	n := float64(len(others))
	return x - alpha*(disadvantage/n) - beta*(advantage/n)
}
