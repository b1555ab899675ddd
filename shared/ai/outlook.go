package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"sprinkler-agent/internal/models"
	"sprinkler-agent/shared/config"

	"google.golang.org/genai"
)

const maxOutlookLength = 600

// Outlook asks Gemini for a short gardening outlook based on a sprinkler report
type Outlook struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewOutlook(ctx context.Context, cfg *config.AIConfig, logger *slog.Logger) (*Outlook, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Outlook{
		client: client,
		model:  cfg.Model,
		logger: logger.With("component", "ai"),
	}, nil
}

// Summarize returns two or three sentences of plain text advice for the report
func (o *Outlook) Summarize(ctx context.Context, report *models.SprinklerReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report cannot be nil")
	}

	parts := []*genai.Part{
		genai.NewPartFromText(buildOutlookPrompt(report)),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := o.client.Models.GenerateContent(ctx, o.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate outlook: %w", err)
	}

	responseText := result.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty outlook response from model %s", o.model)
	}

	outlook, err := parseOutlookResponse(responseText)
	if err != nil {
		return "", err
	}

	o.logger.Debug("outlook generated", "model", o.model, "length", len(outlook))
	return outlook, nil
}

func buildOutlookPrompt(report *models.SprinklerReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Precipitation in the last %d hours: %.2f inches (threshold %.2f inches)\n",
		report.HoursToCheck, report.Precipitation.TotalInches, report.Threshold)
	fmt.Fprintf(&b, "Recommendation: %s\n", report.Recommendation.Label)

	if p := report.Pressure; p.Available() {
		fmt.Fprintf(&b, "Barometric pressure: %.1f hPa, 24h change %+.1f hPa (%s)\n",
			*p.CurrentHPa, *p.ChangeHPa, p.Trend(report.PressureThreshold))
	} else {
		b.WriteString("Barometric pressure: unavailable\n")
	}

	if f := report.Forecast; f != nil {
		fmt.Fprintf(&b, "Forecast for %s: %s, %d°%s, wind %s %s. %s\n",
			f.Name, f.ShortForecast, f.Temperature, f.TemperatureUnit, f.WindSpeed, f.WindDirection,
			truncateString(f.DetailedForecast, 400))
	} else {
		b.WriteString("Forecast: unavailable\n")
	}

	for _, day := range report.Precipitation.DailyTotals {
		fmt.Fprintf(&b, "Rain on %s: %.2f inches\n", day.Date.Format("2006-01-02"), day.Inches)
	}

	return fmt.Sprintf(`You are a gardening assistant that reads a nightly weather report for a home lawn sprinkler.

WEATHER REPORT:
%s
INSTRUCTIONS:
1. Write two or three short sentences of plain text advice for watering today
2. Mention the forecast if it changes the recommendation
3. Do not contradict the recommendation, only add context
4. No markdown, no lists

Please provide your answer in the following JSON format:
{
  "outlook": "Two or three sentence plain text outlook"
}`, b.String())
}

func parseOutlookResponse(response string) (string, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	outlook := strings.TrimSpace(response)
	if startIdx != -1 && endIdx > startIdx {
		var result struct {
			Outlook string `json:"outlook"`
		}
		if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &result); err != nil {
			return "", fmt.Errorf("failed to unmarshal outlook JSON: %w", err)
		}
		outlook = strings.TrimSpace(result.Outlook)
	}

	if outlook == "" {
		return "", fmt.Errorf("outlook is required but was empty")
	}

	// Keep the report readable as a single paragraph
	outlook = strings.Join(strings.Fields(outlook), " ")
	return truncateString(outlook, maxOutlookLength), nil
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	// Cut on a rune boundary so the result stays valid UTF-8
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
