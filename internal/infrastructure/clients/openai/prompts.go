package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

const maxInsights = 3

const insightSystemPrompt = `You are a supportive postnatal care assistant for new mothers in India. Return ONLY valid JSON with this schema:
{
  "insights": [
    {"title": string (max 6 words), "body": string (1-2 short sentences)}
  ] (1-3 items)
}
Write in the requested language. Keep language simple, warm and non-alarmist. Never diagnose, never name medicines or doses, and never contradict advice to seek urgent care. If the risk tier is red, the only insight must encourage reaching a health facility now.`

var languageNames = map[entities.Language]string{
	entities.LanguageEnglish: "English",
	entities.LanguageHindi:   "Hindi (Devanagari script)",
}

func buildInsightUserPrompt(in entities.InsightContext) string {
	lang, ok := languageNames[in.Language]
	if !ok {
		lang = languageNames[entities.DefaultLanguage]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Language: %s\n", lang)
	if in.DeliveryType != "" {
		fmt.Fprintf(&b, "Delivery type: %s\n", in.DeliveryType)
	}
	if in.Phase != "" {
		fmt.Fprintf(&b, "Recovery phase: %s (%d%% of expected recovery window)\n", in.Phase, in.Percent)
	}
	if in.RiskTier != "" {
		fmt.Fprintf(&b, "Latest risk tier: %s\n", in.RiskTier)
	}
	if len(in.Tags) > 0 {
		fmt.Fprintf(&b, "Reported symptoms: %s\n", strings.Join(entities.TagStrings(in.Tags), ", "))
	}
	return b.String()
}

type insightPayload struct {
	Insights []struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	} `json:"insights"`
}

func parseInsightPayload(data []byte) ([]entities.Insight, error) {
	var payload insightPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse insight payload: %w", err)
	}

	out := make([]entities.Insight, 0, len(payload.Insights))
	for _, item := range payload.Insights {
		title := strings.TrimSpace(item.Title)
		body := strings.TrimSpace(item.Body)
		if title == "" || body == "" {
			continue
		}
		out = append(out, entities.Insight{Title: title, Body: body})
		if len(out) == maxInsights {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insight payload contained no usable items")
	}
	return out, nil
}
