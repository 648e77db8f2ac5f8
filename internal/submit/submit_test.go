package submit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkarlsv/mindforge/internal/model"
)

func sampleResult() model.SessionResult {
	return model.SessionResult{
		Task:       "stroop",
		Difficulty: "hard",
		Score:      240,
		Accuracy:   85.7,
		BestStreak: 11,
		Elapsed:    95 * time.Second,
	}
}

func TestSubmit(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"sparks_earned": 61}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token")
	confirmed, err := client.Submit(context.Background(), sampleResult())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if confirmed != 61 {
		t.Fatalf("confirmed reward %d, want 61", confirmed)
	}
	if gotPath != "/games/score" {
		t.Fatalf("posted to %q", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotPayload["game_type"] != "stroop" || gotPayload["difficulty"] != "hard" {
		t.Fatalf("unexpected payload: %v", gotPayload)
	}
	if gotPayload["score"] != float64(240) {
		t.Fatalf("score %v, want 240", gotPayload["score"])
	}
	if gotPayload["time_taken"] != float64(95) {
		t.Fatalf("time_taken %v, want 95", gotPayload["time_taken"])
	}
	if gotPayload["best_streak"] != float64(11) {
		t.Fatalf("best_streak %v, want 11", gotPayload["best_streak"])
	}
}

func TestSubmitWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		if _, err := w.Write([]byte(`{"sparks_earned": 5}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	if _, err := client.Submit(context.Background(), sampleResult()); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestSubmitRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-token")
	if _, err := client.Submit(context.Background(), sampleResult()); err == nil {
		t.Fatalf("expected an error on 401")
	}
}

func TestSubmitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server notices the client disconnect and
		// cancels the request context; otherwise Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	client := NewClient(srv.URL, "")
	if _, err := client.Submit(ctx, sampleResult()); err == nil {
		t.Fatalf("expected a context timeout error")
	}
}
