package network

import (
	"testing"

	"github.com/brackenfield/commons-sim/internal/agents"
)

func TestReinforceInteractionCreatesAndAccumulatesEdge(t *testing.T) {
	s := New(0.1, nil)
	s.ReinforceInteraction(1, 2, 0.3)
	s.ReinforceInteraction(1, 2, 0.2)

	edges := s.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Weight != 0.5 {
		t.Fatalf("expected accumulated weight 0.5, got %v", edges[0].Weight)
	}
}

func TestApplyDecayPrunesWeakEdges(t *testing.T) {
	s := New(0.5, nil)
	s.ReinforceInteraction(1, 2, 0.015)
	s.ApplyDecay()

	if len(s.Edges()) != 0 {
		t.Fatalf("expected edge below prune threshold to be removed, got %v", s.Edges())
	}
}

func TestComputeStatsDetectsFullReciprocity(t *testing.T) {
	s := New(0.1, nil)
	s.ReinforceInteraction(1, 2, 0.5)
	s.ReinforceInteraction(2, 1, 0.5)

	stats := s.ComputeStats()
	if stats.Reciprocity != 1 {
		t.Fatalf("expected full reciprocity, got %v", stats.Reciprocity)
	}
}

func TestComputeStatsAssortativityUsesCampMembership(t *testing.T) {
	membership := map[agents.AgentID]string{1: "Camp-A", 2: "Camp-A", 3: "Camp-B"}
	s := New(0.1, membership)
	s.ReinforceInteraction(1, 2, 0.5)
	s.ReinforceInteraction(1, 3, 0.5)

	stats := s.ComputeStats()
	if stats.Assortativity != 0.5 {
		t.Fatalf("expected assortativity 0.5 (1 of 2 same-camp edges), got %v", stats.Assortativity)
	}
}

func TestSetEdgesReplacesGraphWholesale(t *testing.T) {
	s := New(0.1, nil)
	s.ReinforceInteraction(1, 2, 0.5)
	s.SetEdges([]Edge{{Source: 3, Target: 4, Weight: 0.7}})

	edges := s.Edges()
	if len(edges) != 1 || edges[0].Source != 3 {
		t.Fatalf("expected edges replaced wholesale, got %v", edges)
	}
}
