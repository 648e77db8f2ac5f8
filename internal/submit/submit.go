// Package submit posts completed sessions to the score service.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dkarlsv/mindforge/internal/model"
)

const scorePath = "/games/score"

// Client talks to the companion score service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the given service base URL. token is an
// optional bearer token and may be empty.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type scoreRequest struct {
	GameType   string  `json:"game_type"`
	Difficulty string  `json:"difficulty"`
	Score      int     `json:"score"`
	Accuracy   float64 `json:"accuracy"`
	TimeTaken  int     `json:"time_taken"`
	BestStreak int     `json:"best_streak,omitempty"`
}

type scoreResponse struct {
	SparksEarned int `json:"sparks_earned"`
}

// Submit posts one session result and returns the authoritative reward
// confirmed by the service.
func (c *Client) Submit(ctx context.Context, res model.SessionResult) (int, error) {
	payload := scoreRequest{
		GameType:   res.Task,
		Difficulty: res.Difficulty,
		Score:      res.Score,
		Accuracy:   res.Accuracy,
		TimeTaken:  int(res.Elapsed.Seconds()),
		BestStreak: res.BestStreak,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode score payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scorePath, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach score service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected score service status: %s", resp.Status)
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode score response: %w", err)
	}
	return parsed.SparksEarned, nil
}
