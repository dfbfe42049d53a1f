// Package cognition implements the emotion update and episodic/social memory
// maintenance applied to each task participant, and the periodic reflection
// checked for every agent every day.
// Memory is a bounded list with an eviction rule, and the emotion/memory
// update itself is small and always-on rather than routed through an LLM.
package cognition

import (
	"strings"

	"github.com/brackenfield/commons-sim/internal/agents"
	"github.com/brackenfield/commons-sim/internal/config"
)

// Stimulus is one emotionally relevant event applied to an agent on a given
// day.
type Stimulus struct {
	Goal          float64 // -1..1, goal-congruence of the event
	NormAlignment float64 // -1..1, alignment with the agent's fairness norm expectation
	Preference    float64 // -1..1, alignment with the agent's preferences
	Arousal       float64 // arousal delta contributed by the event
	Summary       string  // episodic memory text
}

// ApplyStimulus updates an agent's emotion state and appends an episodic
// memory entry.
func ApplyStimulus(a *agents.AgentState, cfg *config.ScenarioConfig, day int, stim Stimulus) {
	lambda := cfg.Cognition.Emotion.Decay

	valenceDelta := 0.6*stim.Goal + 0.3*stim.NormAlignment + 0.1*stim.Preference
	arousalDelta := stim.Arousal
	moodDelta := 0.5*valenceDelta + 0.2*arousalDelta

	a.Emotion.Valence = clamp(a.Emotion.Valence*(1-lambda)+valenceDelta, -1, 1)
	a.Emotion.Arousal = clamp(a.Emotion.Arousal*(1-lambda)+arousalDelta, 0, 1.5)
	a.Emotion.Mood = clamp(a.Emotion.Mood*(1-lambda/2)+moodDelta, -1, 1)

	a.EpisodicMemory = append([]agents.EpisodicEntry{{
		Day:     day,
		Summary: stim.Summary,
		Valence: valenceDelta,
	}}, a.EpisodicMemory...)

	evictEpisodic(a, day, cfg.Cognition.EpisodicWindowDays)
}

func evictEpisodic(a *agents.AgentState, day, windowDays int) {
	kept := a.EpisodicMemory[:0]
	for _, e := range a.EpisodicMemory {
		if day-e.Day <= windowDays {
			kept = append(kept, e)
		}
	}
	a.EpisodicMemory = kept
}

// RegisterInteraction updates the bounded social memory entry for partner.
// At most one entry per partner is kept; entries outside the social memory
// horizon are dropped first.
func RegisterInteraction(a *agents.AgentState, cfg *config.ScenarioConfig, partner agents.AgentID, day int, reciprocityDelta, given, received, sentiment float64) {
	horizon := cfg.Cognition.SocialMemoryHorizonDays

	kept := a.SocialMemory[:0]
	var prev *agents.SocialMemoryEntry
	for i := range a.SocialMemory {
		e := a.SocialMemory[i]
		if e.PartnerID == partner {
			prev = &e
			continue
		}
		if day-e.LastInteractionDay > horizon {
			continue
		}
		kept = append(kept, e)
	}
	a.SocialMemory = kept

	fresh := agents.SocialMemoryEntry{
		PartnerID:          partner,
		LastInteractionDay: day,
	}
	if prev != nil {
		fresh.Reciprocity = clamp(prev.Reciprocity*0.6+reciprocityDelta, -1, 1)
		fresh.ResourcesGiven = prev.ResourcesGiven + given
		fresh.ResourcesReceived = prev.ResourcesReceived + received
		fresh.Sentiment = clamp(prev.Sentiment*0.5+sentiment, -1, 1)
	} else {
		fresh.Reciprocity = clamp(reciprocityDelta, -1, 1)
		fresh.ResourcesGiven = given
		fresh.ResourcesReceived = received
		fresh.Sentiment = clamp(sentiment, -1, 1)
	}

	a.SocialMemory = append([]agents.SocialMemoryEntry{fresh}, a.SocialMemory...)
}

// Reflect returns a short reflection string at most every
// reflectionIntervalDays, empty otherwise. Tone is decided by the first
// three episodic entries.
func Reflect(a *agents.AgentState, cfg *config.ScenarioConfig, day int) string {
	interval := cfg.Cognition.ReflectionIntervalDays
	if a.LastReflectionDay >= 0 && day-a.LastReflectionDay < interval {
		return ""
	}

	n := len(a.EpisodicMemory)
	if n > 3 {
		n = 3
	}
	positive, negative := 0, 0
	for _, e := range a.EpisodicMemory[:n] {
		if e.Valence >= 0 {
			positive++
		} else {
			negative++
		}
	}

	a.LastReflectionDay = day

	tone := "concerned"
	if positive >= negative {
		tone = "optimistic"
	}

	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteString(" feels ")
	b.WriteString(tone)
	b.WriteString(" about recent days.")
	return b.String()
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
