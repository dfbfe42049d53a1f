// Package agents provides the agent data model: demographics, emotion,
// Fehr-Schmidt social preferences, skills, and the bounded episodic/social
// memory streams maintained by the cognition engine.
package agents

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Emotion is the agent's current affective state, updated by the cognition
// engine from per-stimulus deltas with exponential decay toward zero.
type Emotion struct {
	Valence float64 `json:"valence"` // -1..1
	Arousal float64 `json:"arousal"` // 0..1.5
	Mood    float64 `json:"mood"`    // -1..1
}

// FehrSchmidt holds an agent's inequality-aversion and norm-compliance
// parameters, sampled once at spawn time and held fixed for the run.
type FehrSchmidt struct {
	Alpha            float64 `json:"alpha"`            // aversion to disadvantageous inequality, >= 0
	Beta             float64 `json:"beta"`             // aversion to advantageous inequality, >= 0
	ReputationWeight float64 `json:"reputationWeight"` // 0..1
	NormPenalty      float64 `json:"normPenalty"`      // 0..1
}

// Preferences are five independent sliders; CooperationBias weights the
// daily task-outcome stimulus. The LLM prompt does not include them.
type Preferences struct {
	RiskTolerance      float64 `json:"riskTolerance"`
	CooperationBias    float64 `json:"cooperationBias"`
	SolitudePreference float64 `json:"solitudePreference"`
	NoveltySeeking     float64 `json:"noveltySeeking"`
	Traditionalism     float64 `json:"traditionalism"`
}

// SemanticMemory holds slow-moving beliefs about the world: what resource
// yields the agent expects, and what fairness norm it expects others to
// follow.
type SemanticMemory struct {
	ResourceExpectations map[string]float64 `json:"resourceExpectations"`
	NormExpectation      float64            `json:"normExpectation"`
}

// EpisodicEntry is one notable dated experience, evicted once it falls
// outside the cognition engine's episodic window.
type EpisodicEntry struct {
	Day     int     `json:"day"`
	Summary string  `json:"summary"`
	Valence float64 `json:"valence"`
}

// SocialMemoryEntry tracks the running relationship state with exactly one
// partner. AgentState.SocialMemory holds at most one entry per partner.
type SocialMemoryEntry struct {
	PartnerID          AgentID `json:"partnerId"`
	LastInteractionDay int     `json:"lastInteractionDay"`
	Reciprocity        float64 `json:"reciprocity"` // -1..1
	ResourcesGiven     float64 `json:"resourcesGiven"`
	ResourcesReceived  float64 `json:"resourcesReceived"`
	Sentiment          float64 `json:"sentiment"` // -1..1
}

// AgentState is the mutable, serializable per-agent state the orchestrator
// advances one day at a time.
type AgentState struct {
	ID     AgentID `json:"id"`
	Name   string  `json:"name"`
	CampID string  `json:"campId"`

	Energy     float64 `json:"energy"`     // >= 0
	HungerDebt float64 `json:"hungerDebt"` // >= 0

	Emotion     Emotion     `json:"emotion"`
	FehrSchmidt FehrSchmidt `json:"fehrSchmidt"`
	Reputation  float64     `json:"reputation"` // 0..1

	Skillset    map[string]float64 `json:"skillset"` // 0..1.2
	Preferences Preferences        `json:"preferences"`

	SemanticMemory SemanticMemory      `json:"semanticMemory"`
	SocialMemory   []SocialMemoryEntry `json:"socialMemory"`
	EpisodicMemory []EpisodicEntry     `json:"episodicMemory"`

	LastReflectionDay int      `json:"lastReflectionDay"`
	LastActions       []string `json:"lastActions"`
}

// Skill returns the agent's value for the named skill, defaulting to 0.5
// when the agent has no entry for that key.
func (a *AgentState) Skill(key string) float64 {
	if v, ok := a.Skillset[key]; ok {
		return v
	}
	return 0.5
}
