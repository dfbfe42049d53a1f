package agents

// Clone returns a fully detached deep copy of a. Every map, slice, and
// struct field that could alias between two snapshots (skillset,
// preferences, memories, last actions) is copied element-by-element, never
// reused by reference — required by the planner's PlanRequest snapshots and
// by Serialize/FromState round-trips, which must never share backing storage
// with the live simulation state.
func Clone(a *AgentState) *AgentState {
	if a == nil {
		return nil
	}
	clone := *a

	clone.Skillset = make(map[string]float64, len(a.Skillset))
	for k, v := range a.Skillset {
		clone.Skillset[k] = v
	}

	clone.SemanticMemory.ResourceExpectations = make(map[string]float64, len(a.SemanticMemory.ResourceExpectations))
	for k, v := range a.SemanticMemory.ResourceExpectations {
		clone.SemanticMemory.ResourceExpectations[k] = v
	}

	if a.SocialMemory != nil {
		clone.SocialMemory = make([]SocialMemoryEntry, len(a.SocialMemory))
		copy(clone.SocialMemory, a.SocialMemory)
	}

	if a.EpisodicMemory != nil {
		clone.EpisodicMemory = make([]EpisodicEntry, len(a.EpisodicMemory))
		copy(clone.EpisodicMemory, a.EpisodicMemory)
	}

	if a.LastActions != nil {
		clone.LastActions = make([]string, len(a.LastActions))
		copy(clone.LastActions, a.LastActions)
	}

	return &clone
}

// CloneAll deep-clones a slice of agents, preserving order.
func CloneAll(agents []*AgentState) []*AgentState {
	out := make([]*AgentState, len(agents))
	for i, a := range agents {
		out[i] = Clone(a)
	}
	return out
}
