package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/vizier/internal/model"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

var arrowGlyphs = map[model.Direction]rune{
	model.DirectionUp:    '↑',
	model.DirectionDown:  '↓',
	model.DirectionLeft:  '←',
	model.DirectionRight: '→',
}

const emptySlot = '·'

// buildAnswerRunes lays out the entered arrows of a recall row, one cell per
// target slot. Until reveal the answers stay neutral; afterwards each one is
// colored against the target.
func buildAnswerRunes(target, answers []model.Direction, reveal bool) []styledRune {
	out := make([]styledRune, 0, len(target)*2)
	for i := range target {
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		glyph := emptySlot
		style := pendingStyle
		if i < len(answers) {
			glyph = arrowGlyphs[answers[i]]
			style = answerStyle
			if reveal {
				style = incorrectStyle
				if answers[i] == target[i] {
					style = correctStyle
				}
			}
		} else if i == len(answers) && !reveal {
			style = cursorStyle
		}
		out = append(out, styledRune{
			s:     style.Render(string(glyph)),
			width: runewidth.RuneWidth(glyph),
		})
	}
	return out
}

// buildTextRunes styles plain text for wrapping.
func buildTextRunes(text string, render func(string) string) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		out = append(out, styledRune{
			s:       render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

// wrapText wraps a message to width, breaking on spaces where possible.
func wrapText(text string, width int, render func(string) string) string {
	return wrapStyledRunes(buildTextRunes(text, render), width)
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}

// truncate cuts s to width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
