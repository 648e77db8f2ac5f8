// Package stats contains history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dkarlsv/mindforge/internal/model"
)

const sparkChars = " .:-=+*#%@"

// AccuracySeries extracts per-session accuracy values, oldest first.
func AccuracySeries(rows []model.SessionRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Accuracy
	}
	return out
}

// RewardSeries extracts per-session rewards, oldest first.
func RewardSeries(rows []model.SessionRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = float64(r.Reward)
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints overall totals for the stored sessions. width caps
// the accuracy trend line; zero or negative picks a default.
func RenderSummary(w io.Writer, rows []model.SessionRow, width int) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}
	var accSum float64
	var rewardSum, bestScore int
	bestTask := ""
	for _, r := range rows {
		accSum += r.Accuracy
		rewardSum += r.Reward
		if r.Score > bestScore {
			bestScore = r.Score
			bestTask = r.Task
		}
	}
	count := float64(len(rows))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(rows)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Accuracy: %.1f%%\n", accSum/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best Score: %d (%s)\n", bestScore, bestTask); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sparks Earned: %d\n", rewardSum); err != nil {
		return err
	}
	if width <= 0 {
		width = 60
	}
	series := MovingAverage(AccuracySeries(rows), 5)
	if len(series) > width {
		series = series[len(series)-width:]
	}
	if _, err := fmt.Fprintf(w, "Accuracy Trend: %s\n", Sparkline(series)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistory prints the stored sessions as a table, newest last.
func RenderHistory(w io.Writer, rows []model.SessionRow) error {
	if len(rows) == 0 {
		return nil
	}
	headers := []string{"Played", "Task", "Difficulty", "Trials", "Accuracy", "Mean RT", "Score", "Sparks"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.PlayedAt.Local().Format("2006-01-02 15:04"),
			r.Task,
			r.Difficulty,
			fmt.Sprintf("%d", r.Trials),
			fmt.Sprintf("%.1f%%", r.Accuracy),
			fmt.Sprintf("%.0f ms", r.MeanRTMs),
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%d", r.Reward),
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderBests prints the per-task best sessions.
func RenderBests(w io.Writer, bests []model.SessionRow) error {
	played := make([]model.SessionRow, 0, len(bests))
	for _, b := range bests {
		if b.Task != "" {
			played = append(played, b)
		}
	}
	if len(played) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Personal Bests"); err != nil {
		return err
	}
	headers := []string{"Task", "Difficulty", "Score", "Accuracy", "Sparks"}
	tableRows := make([][]string, 0, len(played))
	for _, b := range played {
		tableRows = append(tableRows, []string{
			b.Task,
			b.Difficulty,
			fmt.Sprintf("%d", b.Score),
			fmt.Sprintf("%.1f%%", b.Accuracy),
			fmt.Sprintf("%d", b.Reward),
		})
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
