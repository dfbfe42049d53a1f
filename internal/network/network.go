// Package network implements the weighted directed social graph: decay,
// reinforcement, and the reciprocity/assortativity/clustering statistics
// used in daily metrics. Bond strengthening follows a find-or-create-edge,
// decay, prune pattern over an explicit directed edge map keyed by
// (source, target), which supports edge-level decay/prune and graph-wide
// statistics that a plain per-agent relationship slice cannot express.
package network

import (
	"github.com/brackenfield/commons-sim/internal/agents"
)

// edgeKey uniquely identifies a directed edge.
type edgeKey struct {
	Source agents.AgentID
	Target agents.AgentID
}

// Edge is one directed, weighted relationship.
type Edge struct {
	Source agents.AgentID `json:"source"`
	Target agents.AgentID `json:"target"`
	Weight float64        `json:"weight"`
}

// pruneThreshold is the minimum weight an edge may hold before it is
// dropped entirely.
const pruneThreshold = 0.01

// State is the mutable, serializable social network snapshot. Agents are
// referenced by ID only, never by pointer, so serialization is trivial and
// cycles cannot form.
type State struct {
	edges          map[edgeKey]*Edge
	ForgetFactor   float64                      `json:"forgetFactor"`
	CampMembership map[agents.AgentID]string    `json:"campMembership"`
}

// New creates an empty network with the given forget factor and initial
// camp membership map.
func New(forgetFactor float64, campMembership map[agents.AgentID]string) *State {
	return &State{
		edges:          make(map[edgeKey]*Edge),
		ForgetFactor:   forgetFactor,
		CampMembership: campMembership,
	}
}

// Edges returns every edge currently in the graph, in an unspecified but
// stable-within-a-call order (map iteration order is not guaranteed across
// calls; callers needing a deterministic order should sort the result).
func (s *State) Edges() []Edge {
	out := make([]Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, *e)
	}
	return out
}

// SetEdges replaces the current edge set wholesale — used when restoring
// from a serialized snapshot.
func (s *State) SetEdges(edges []Edge) {
	s.edges = make(map[edgeKey]*Edge, len(edges))
	for _, e := range edges {
		edge := e
		s.edges[edgeKey{Source: e.Source, Target: e.Target}] = &edge
	}
}

// ApplyDecay multiplies every edge weight by (1 - forgetFactor) and deletes
// edges whose weight drops below the prune threshold.
func (s *State) ApplyDecay() {
	for key, e := range s.edges {
		e.Weight *= 1 - s.ForgetFactor
		if e.Weight < pruneThreshold {
			delete(s.edges, key)
		}
	}
}

// ReinforceInteraction adds delta to the (source, target) edge weight,
// creating it if absent.
func (s *State) ReinforceInteraction(source, target agents.AgentID, delta float64) {
	key := edgeKey{Source: source, Target: target}
	if e, ok := s.edges[key]; ok {
		e.Weight += delta
		return
	}
	s.edges[key] = &Edge{Source: source, Target: target, Weight: delta}
}

// Stats are the graph-wide statistics folded into DailyMetrics.
type Stats struct {
	Reciprocity   float64 `json:"reciprocity"`
	Assortativity float64 `json:"assortativity"`
	Clustering    float64 `json:"clustering"`
}

// ComputeStats derives reciprocity, assortativity, and clustering from the
// current edge set.
func (s *State) ComputeStats() Stats {
	if len(s.edges) == 0 {
		return Stats{Reciprocity: 0, Assortativity: 0.5, Clustering: 0}
	}

	outNeighbors := make(map[agents.AgentID]map[agents.AgentID]bool, len(s.CampMembership))
	for key := range s.edges {
		if outNeighbors[key.Source] == nil {
			outNeighbors[key.Source] = make(map[agents.AgentID]bool)
		}
		outNeighbors[key.Source][key.Target] = true
	}

	reciprocal := 0
	for key := range s.edges {
		if outNeighbors[key.Target] != nil && outNeighbors[key.Target][key.Source] {
			reciprocal++
		}
	}
	reciprocity := float64(reciprocal) / float64(len(s.edges))

	sameCamp, knownEndpoints := 0, 0
	for key := range s.edges {
		sc, sok := s.CampMembership[key.Source]
		tc, tok := s.CampMembership[key.Target]
		if !sok || !tok {
			continue
		}
		knownEndpoints++
		if sc == tc {
			sameCamp++
		}
	}
	assortativity := 0.5
	if knownEndpoints > 0 {
		assortativity = float64(sameCamp) / float64(knownEndpoints)
	}

	closed, open := 0, 0
	for a, aOut := range outNeighbors {
		for b := range aOut {
			if b == a {
				continue
			}
			for c := range outNeighbors[b] {
				if c == a || c == b {
					continue
				}
				open++
				if outNeighbors[a][c] {
					closed++
				}
			}
		}
	}
	clustering := 0.0
	if open > 0 {
		clustering = float64(closed) / float64(open)
	}

	return Stats{Reciprocity: reciprocity, Assortativity: assortativity, Clustering: clustering}
}
