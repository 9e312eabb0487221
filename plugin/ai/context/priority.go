package context

import (
	"sort"
)

// MinSegmentTokens is the smallest remainder worth filling with a truncated segment.
const MinSegmentTokens = 32

// ContextPriority represents the priority level of a context segment.
type ContextPriority int

const (
	PriorityTemporal    ContextPriority = 100 // Temporal tag, always first to fit
	PrioritySchedule    ContextPriority = 80  // Upcoming events and patterns
	PriorityRecentTurns ContextPriority = 70  // Most recent turns
	PriorityOlderTurns  ContextPriority = 40  // Older conversation turns
)

// ContextSegment represents a piece of context with priority.
type ContextSegment struct {
	Content   string
	Priority  ContextPriority
	TokenCost int
	Source    string // "temporal", "schedule", "conversation"

	order int // rendering position
}

// RankAndTruncate keeps the highest-priority segments that fit in budget,
// truncating the first one that does not fit when enough room is left.
func RankAndTruncate(segments []*ContextSegment, budget int) []*ContextSegment {
	if len(segments) == 0 {
		return nil
	}

	sorted := make([]*ContextSegment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var result []*ContextSegment
	usedTokens := 0

	for _, seg := range sorted {
		if seg.TokenCost <= 0 {
			continue
		}

		if usedTokens+seg.TokenCost <= budget {
			result = append(result, seg)
			usedTokens += seg.TokenCost
			continue
		}

		remaining := budget - usedTokens
		if remaining >= MinSegmentTokens {
			if truncated := truncateToTokens(seg.Content, remaining); truncated != "" {
				result = append(result, &ContextSegment{
					Content:   truncated,
					Priority:  seg.Priority,
					TokenCost: remaining,
					Source:    seg.Source,
					order:     seg.order,
				})
			}
		}
		break
	}

	return result
}

// truncateToTokens cuts content to roughly maxTokens, at four runes per token.
func truncateToTokens(content string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	runes := []rune(content)
	keep := maxTokens * 4
	if keep >= len(runes) {
		return content
	}
	if keep > 3 {
		return string(runes[:keep-3]) + "..."
	}
	return string(runes[:keep])
}

// EstimateTokens estimates the token count for a string.
// ASCII counts a quarter token per byte; other runes count one each.
func EstimateTokens(content string) int {
	if content == "" {
		return 0
	}

	ascii, other := 0, 0
	for _, r := range content {
		if r < 128 {
			ascii++
		} else {
			other++
		}
	}

	tokens := other + (ascii+3)/4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
