package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/vizier/internal/config"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/profile"
	"github.com/verte-zerg/vizier/internal/stats"
)

// launcher lists the catalog exercises with a difficulty picker per row.
type launcher struct {
	catalog config.Catalog
	names   []string
	labels  map[string][]string
	choice  map[string]int
	cursor  int
}

func newLauncher(c config.Catalog) *launcher {
	l := &launcher{
		catalog: c,
		names:   c.Names(),
		labels:  map[string][]string{},
		choice:  map[string]int{},
	}
	for _, name := range l.names {
		l.labels[name] = c.Exercises[name].Labels()
	}
	l.suggest(nil)
	return l
}

// suggest preselects each exercise's difficulty from the user's history.
func (l *launcher) suggest(history []model.SessionAggregate) {
	for _, name := range l.names {
		labels := l.labels[name]
		fallback := ""
		if len(labels) > 0 {
			fallback = labels[0]
		}
		for _, label := range labels {
			if label == "medium" {
				fallback = label
			}
		}
		pick := stats.SuggestDifficulty(history, name, labels, fallback)
		for i, label := range labels {
			if label == pick {
				l.choice[name] = i
			}
		}
	}
}

func (l *launcher) move(key string) {
	if len(l.names) == 0 {
		return
	}
	name := l.names[l.cursor]
	switch key {
	case "up", "k":
		l.cursor = (l.cursor - 1 + len(l.names)) % len(l.names)
	case "down", "j":
		l.cursor = (l.cursor + 1) % len(l.names)
	case "left", "h":
		l.choice[name] = max(0, l.choice[name]-1)
	case "right", "l":
		l.choice[name] = min(len(l.labels[name])-1, l.choice[name]+1)
	}
}

func (l *launcher) selected() (name, label string, ok bool) {
	if len(l.names) == 0 {
		return "", "", false
	}
	name = l.names[l.cursor]
	labels := l.labels[name]
	if len(labels) == 0 {
		return name, "", true
	}
	return name, labels[l.choice[name]], true
}

func (l *launcher) resolve() (config.Launch, error) {
	name, label, ok := l.selected()
	if !ok {
		return config.Launch{}, fmt.Errorf("no exercises in catalog")
	}
	return l.catalog.Resolve(name, label)
}

func (l *launcher) view(width, height int, pc profile.Context, errMsg string) string {
	lines := []string{titleStyle.Render("vizier"), ""}
	if pc.User.Username != "" {
		lines = append(lines, footerStyle.Render("Patient: "+pc.User.DisplayName()), "")
	}
	nameWidth := 0
	for _, name := range l.names {
		nameWidth = max(nameWidth, len(l.title(name)))
	}
	for i, name := range l.names {
		marker := "  "
		style := pendingStyle
		if i == l.cursor {
			marker = "> "
			style = selectedStyle
		}
		row := fmt.Sprintf("%s%-*s  %s", marker, nameWidth, l.title(name), l.renderLabels(name))
		lines = append(lines, style.Render(truncate(row, width)))
	}
	lines = append(lines, "", footerStyle.Render("up/down exercise · left/right difficulty · enter start · q quit"))
	if errMsg != "" {
		lines = append(lines, "", wrapText(errMsg, max(10, width-4), renderWith(errorStyle)))
	}
	content := strings.Join(lines, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (l *launcher) title(name string) string {
	if t := l.catalog.Exercises[name].Title; t != "" {
		return t
	}
	return name
}

func (l *launcher) renderLabels(name string) string {
	labels := l.labels[name]
	parts := make([]string, len(labels))
	for i, label := range labels {
		if i == l.choice[name] {
			label = "[" + label + "]"
		}
		parts[i] = label
	}
	return strings.Join(parts, " ")
}
