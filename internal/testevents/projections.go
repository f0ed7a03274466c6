package testevents

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shinoda11/opsboard/pkg/logger"
)

// scoreResponse is the subset of the score payload the tool inspects.
type scoreResponse struct {
	StaffID string `json:"staff_id,omitempty"`
	Tracked bool   `json:"tracked"`
	Total   int    `json:"total"`
	Grade   string `json:"grade"`
	Stars   int    `json:"stars"`
}

// awardResponse is the subset of an award entry the tool inspects.
type awardResponse struct {
	Category string `json:"category"`
	Status   string `json:"status"`
	Winner   *struct {
		StaffID string `json:"staff_id"`
		Name    string `json:"name"`
	} `json:"winner,omitempty"`
}

// dateRange returns the from/to bounds covered by the generated events.
func dateRange(config *Config) (from, to string) {
	today := time.Now().Truncate(24 * time.Hour)
	from = today.AddDate(0, 0, -config.Days).Format(time.DateOnly)
	to = today.AddDate(0, 0, -1).Format(time.DateOnly)
	return from, to
}

// fetchJSON GETs a URL and decodes the JSON response into out.
func fetchJSON(ctx context.Context, client *HTTPClient, rawURL string, out interface{}) error {
	resp, err := client.Get(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return unmarshalJSON(body, out)
}

// retrieveScores fetches the team score and every staff score for the
// generated range.
func retrieveScores(ctx context.Context, config *Config, staffIDs []string, stats *Stats) (scoreResponse, []scoreResponse, error) {
	client := newHTTPClient(config.Timeout)
	from, to := dateRange(config)
	query := "?store=" + url.QueryEscape(config.StoreID) + "&from=" + from + "&to=" + to

	var team scoreResponse
	if err := fetchJSON(ctx, client, config.BaseURL+"/scores/team"+query, &team); err != nil {
		return scoreResponse{}, nil, fmt.Errorf("team score: %w", err)
	}
	stats.ScoresRetrieved++

	scores := make([]scoreResponse, 0, len(staffIDs))
	for _, id := range staffIDs {
		var sc scoreResponse
		if err := fetchJSON(ctx, client, config.BaseURL+"/scores/staff/"+url.PathEscape(id)+query, &sc); err != nil {
			return scoreResponse{}, nil, fmt.Errorf("staff score %s: %w", id, err)
		}
		scores = append(scores, sc)
		stats.ScoresRetrieved++
	}

	logger.Get().Info(ctx, "scores retrieved",
		logger.Int("teamTotal", team.Total),
		logger.String("teamGrade", team.Grade),
		logger.Int("staffScores", len(scores)))
	return team, scores, nil
}

// retrieveAwards fetches the award ranking for the generated range.
func retrieveAwards(ctx context.Context, config *Config, stats *Stats) ([]awardResponse, error) {
	client := newHTTPClient(config.Timeout)
	from, to := dateRange(config)
	query := "?store=" + url.QueryEscape(config.StoreID) + "&from=" + from + "&to=" + to

	var out []awardResponse
	if err := fetchJSON(ctx, client, config.BaseURL+"/awards"+query, &out); err != nil {
		return nil, fmt.Errorf("awards: %w", err)
	}
	stats.AwardsRetrieved = len(out)

	logger.Get().Info(ctx, "awards retrieved", logger.Int("categories", len(out)))
	return out, nil
}

// retrieveWeekly fetches the weekly report and guardrail for spot checks.
func retrieveWeekly(ctx context.Context, config *Config) (map[string]interface{}, map[string]interface{}, error) {
	client := newHTTPClient(config.Timeout)
	from, to := dateRange(config)
	query := "?store=" + url.QueryEscape(config.StoreID) + "&from=" + from + "&to=" + to

	var weekly map[string]interface{}
	if err := fetchJSON(ctx, client, config.BaseURL+"/reports/weekly"+query, &weekly); err != nil {
		return nil, nil, fmt.Errorf("weekly report: %w", err)
	}

	var guard map[string]interface{}
	guardURL := config.BaseURL + "/guardrail?store=" + url.QueryEscape(config.StoreID) + "&date=" + to
	if err := fetchJSON(ctx, client, guardURL, &guard); err != nil {
		return nil, nil, fmt.Errorf("guardrail: %w", err)
	}
	return weekly, guard, nil
}
