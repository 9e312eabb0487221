package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	engineerrors "github.com/hrygo/orcha/internal/errors"
	"github.com/hrygo/orcha/plugin/ai"
)

// absoluteLayout is the fallback format the LLM may answer with.
const absoluteLayout = "2006-01-02 15:04"

const plannerSystemPrompt = `You extract a calendar event from the user's message.

Current time: %s

Output Schema (JSON Only):
{
  "title": "Short title without time or date words",
  "when": "A time phrase, or an absolute time as YYYY-MM-DD HH:MM"
}

Good time phrases: tomorrow at 3pm, next friday at 10am, on 24/12 at 9am, in 2 hours.
If the message has no time at all, set "when" to an empty string.`

// llmEvent is the JSON reply expected from the LLM.
type llmEvent struct {
	Title string `json:"title"`
	When  string `json:"when"`
}

// planWithLLM asks the LLM to restate text as a title and a time phrase,
// then runs the extractor on the phrase.
func (p *Planner) planWithLLM(ctx context.Context, userID, text string) (string, time.Time, error) {
	noTime := engineerrors.ParseFailure("no time found in request")
	if p.llm == nil {
		return "", time.Time{}, noTime
	}

	now := p.now()
	// Replies may carry absolute dates, so they are only reused within a day.
	key := now.Format("2006-01-02") + "|" + strings.ToLower(text)
	reply, cached := p.replies.Get(key)
	if !cached {
		if !p.limiter.Allow(userID) {
			p.logger.Debug("planner LLM budget exhausted", "user_id", userID)
			return "", time.Time{}, noTime
		}
		var err error
		reply, err = p.llm.Chat(ctx, []ai.Message{
			ai.SystemPrompt(fmt.Sprintf(plannerSystemPrompt, now.Format("Monday, 2006-01-02 15:04"))),
			ai.UserMessage(text),
		})
		if err != nil {
			p.logger.Warn("planner LLM call failed", "user_id", userID, "error", err)
			return "", time.Time{}, engineerrors.Wrap(err, engineerrors.ErrCodeParseFailure, "no time found in request")
		}
	}

	event, err := parseLLMReply(reply)
	if err != nil {
		p.logger.Warn("unreadable planner LLM reply", "user_id", userID, "error", err)
		return "", time.Time{}, err
	}
	if !cached {
		p.replies.Set(key, reply, 0)
	}

	when := strings.TrimSpace(event.When)
	if when == "" {
		return "", time.Time{}, noTime
	}
	if ts, ok := p.resolveTime(when); ok {
		return strings.TrimSpace(event.Title), ts, nil
	}
	if ts, err := time.ParseInLocation(absoluteLayout, when, now.Location()); err == nil {
		return strings.TrimSpace(event.Title), ts, nil
	}
	return "", time.Time{}, noTime.WithContext("when", when)
}

// parseLLMReply decodes the reply, repairing the usual LLM JSON damage
// such as code fences, single quotes and trailing commas.
func parseLLMReply(reply string) (llmEvent, error) {
	s := strings.TrimSpace(reply)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	i := strings.Index(s, "{")
	if i < 0 {
		return llmEvent{}, engineerrors.ParseFailure("LLM reply has no JSON object")
	}
	s = s[i:]

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return llmEvent{}, engineerrors.Wrap(err, engineerrors.ErrCodeParseFailure, "failed to repair LLM reply")
	}

	var event llmEvent
	if err := json.Unmarshal([]byte(repaired), &event); err != nil {
		return llmEvent{}, engineerrors.Wrap(err, engineerrors.ErrCodeParseFailure, "failed to decode LLM reply")
	}
	return event, nil
}
