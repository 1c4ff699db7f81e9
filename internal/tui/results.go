package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vizier/internal/config"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/session"
	"github.com/verte-zerg/vizier/internal/stats"
)

const resultsPlotHeight = 6

// resultsScreen shows the outcome of a finished run. Results stay visible even when
// they could not be saved.
type resultsScreen struct {
	launch  config.Launch
	reason  session.Reason
	results []model.Result
	err     error
	table   table.Model
}

func newResultsScreen(launch config.Launch, reason session.Reason, results []model.Result, err error) *resultsScreen {
	r := &resultsScreen{
		launch:  launch,
		reason:  reason,
		results: results,
		err:     err,
	}
	r.table = table.New(
		table.WithColumns([]table.Column{
			{Title: "Trial", Width: 6},
			{Title: "Level", Width: 6},
			{Title: "Answer", Width: 10},
			{Title: "Response (ms)", Width: 14},
		}),
		table.WithRows(trialRows(results)),
		table.WithFocused(true),
		table.WithHeight(5),
	)
	r.table.SetStyles(resultsTableStyles())
	return r
}

func trialRows(results []model.Result) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, res := range results {
		answer := "incorrect"
		if res.Correct {
			answer = "correct"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", res.Trial),
			fmt.Sprintf("%d", res.PrimaryParam),
			answer,
			fmt.Sprintf("%d", res.Delta.Milliseconds()),
		})
	}
	return rows
}

func resultsTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.NoColor{}).
		Bold(true)
	return styles
}

func (r *resultsScreen) resize(width, height int) {
	used := lipgloss.Height(r.header(width))
	r.table.SetHeight(max(3, height-used-2))
}

func (r *resultsScreen) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	r.table, cmd = r.table.Update(msg)
	return cmd
}

func (r *resultsScreen) summary() (correct, incorrect int) {
	for _, res := range r.results {
		if res.Correct {
			correct++
		} else {
			incorrect++
		}
	}
	return correct, incorrect
}

func (r *resultsScreen) header(width int) string {
	correct, incorrect := r.summary()
	lines := []string{
		titleStyle.Render("Results: " + launchTitle(r.launch)),
		fmt.Sprintf("Correct %s  Incorrect %s  Ended: %s",
			successStyle.Render(fmt.Sprintf("%d", correct)),
			incorrectStyle.Render(fmt.Sprintf("%d", incorrect)),
			endReason(r.reason)),
	}
	if est, ok := stats.ThresholdEstimate(r.results, 0); ok {
		lines = append(lines, fmt.Sprintf("Threshold estimate: level %.1f", est))
	}
	if r.err != nil {
		msg := r.err.Error()
		if errAborted(r.err) {
			msg = "The exercise stopped early: " + msg
		}
		lines = append(lines, wrapText(msg, max(10, width), renderWith(errorStyle)))
	}
	if len(r.results) > 1 {
		var buf bytes.Buffer
		if err := stats.RenderStaircase(&buf, r.results, width, resultsPlotHeight, true); err == nil {
			lines = append(lines, strings.TrimRight(buf.String(), "\n"))
		}
	}
	return strings.Join(lines, "\n")
}

func endReason(reason session.Reason) string {
	switch reason {
	case session.ReasonTrialLimit:
		return "all trials done"
	case session.ReasonTimeout:
		return "time is up"
	case session.ReasonClosed:
		return "stopped"
	case session.ReasonAborted:
		return "aborted"
	default:
		return string(reason)
	}
}

func (r *resultsScreen) view(width, height int) string {
	body := r.header(width)
	if len(r.results) > 0 {
		body += "\n" + r.table.View()
	} else {
		body += "\n" + pendingStyle.Render("No trials recorded.")
	}
	footer := footerStyle.Render("up/down scroll · enter back")
	lines := strings.Split(body, "\n")
	if len(lines) > height-1 {
		lines = lines[:max(0, height-1)]
	}
	return strings.Join(append(lines, footer), "\n")
}
