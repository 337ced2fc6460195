/**
 * @description
 * Classifier Service.
 * Asks the language model for the day's verdict and turns its free text into
 * a Verdict:
 * 1. Build the Global Analyst prompt from the headlines
 * 2. Call the model (no retry)
 * 3. Extract the JSON object, or fall back to a keyword heuristic
 *
 * @dependencies
 * - backend/internal/integrations/openai
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
)

const (
	fallbackGoodScore = 7.0
	fallbackBadScore  = 3.0
	minScore          = 0.0
	maxScore          = 10.0
)

const classifierInstructions = `You are a Global Analyst evaluating the net impact of the day's events on human well-being.
Analyze the provided headlines and determine if the day was "Good" or "Bad" for humanity.
Also provide a numerical score from 0.0 to 10.0, where:
0-1.9: Chaos/Catastrophe
2-3.9: Major setbacks
4-5.9: Mixed/Neutral
6-7.9: Steady progress
8-10.0: Peak humanity (Scientific breakthroughs, global peace, etc.)
Provide the result in a structured JSON format: { "status": "Good" | "Bad", "score": number, "rationale": "Detailed explanation" }.`

// jsonObjectPattern spans the first '{' to the last '}' of the text.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Completer is the language model surface the classifier needs
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type ClassifierService struct {
	LLM Completer
}

// Verdict is the classifier's reading of one day
type Verdict struct {
	Status    models.Status `json:"status"`
	Score     *float64      `json:"score"`
	Rationale string        `json:"rationale"`
}

func NewClassifierService(llm Completer) *ClassifierService {
	return &ClassifierService{LLM: llm}
}

// Classify returns the verdict for headlines. Malformed model output never
// errors; only a missing key or a failed model call do.
func (s *ClassifierService) Classify(ctx context.Context, headlines []models.Headline) (*Verdict, error) {
	if s.LLM == nil || !s.LLM.Configured() {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is not defined", ErrConfiguration)
	}

	raw, err := s.LLM.Complete(ctx, classifierInstructions, BuildClassifierPrompt(headlines))
	if err != nil {
		logger.Error("Error analyzing pulse: %v", err)
		return nil, fmt.Errorf("%w: classification: %w", ErrUpstream, err)
	}

	verdict := ParseVerdict(raw)
	return &verdict, nil
}

// BuildClassifierPrompt lists the headlines 1-indexed as "title: description".
func BuildClassifierPrompt(headlines []models.Headline) string {
	var b strings.Builder
	b.WriteString("Analyze these 20 headlines from today:\n")
	for i, h := range headlines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s: %s", i+1, h.Title, h.Description)
	}
	return b.String()
}

// ParseVerdict reads the model's answer. The greedy match means two separate
// objects in one answer are joined into one unparsable span; that case takes
// the keyword fallback. Fields of an unexpected type are read leniently so a
// parsable object keeps the model's own status.
func ParseVerdict(text string) Verdict {
	if match := jsonObjectPattern.FindString(text); match != "" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(match), &fields); err == nil {
			rawStatus := stringField(fields["status"])
			if status, ok := models.ParseStatus(rawStatus); ok {
				return Verdict{
					Status:    status,
					Score:     clampScore(scoreField(fields["score"])),
					Rationale: strings.TrimSpace(stringField(fields["rationale"])),
				}
			}
			logger.Warn("Model returned unknown status %q; using keyword fallback", rawStatus)
		}
	}

	return fallbackVerdict(text)
}

// stringField returns a JSON string as-is and any other value as its JSON text.
func stringField(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// scoreField accepts a number or a numeric string. Anything else is no score.
func scoreField(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		n = json.Number(strings.TrimSpace(s))
	}
	v, err := n.Float64()
	if err != nil {
		return nil
	}
	return &v
}

func fallbackVerdict(text string) Verdict {
	status, score := models.StatusBad, fallbackBadScore
	if strings.Contains(strings.ToLower(text), "good") {
		status, score = models.StatusGood, fallbackGoodScore
	}
	return Verdict{Status: status, Score: &score, Rationale: text}
}

func clampScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := *score
	switch {
	case v < minScore:
		v = minScore
	case v > maxScore:
		v = maxScore
	}
	return &v
}
