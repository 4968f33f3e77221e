package formatter

import (
	"fmt"
	"strings"

	"github.com/arborsched/arbor/internal/app"
)

// FormatTaskTree renders tasks (already in the graph's declaration order,
// which is a pre-order walk of the task forest) as an indented tree keyed
// off each TaskView's dot path depth, instead of the flat table
// FormatTaskTable produces.
func FormatTaskTree(tasks []app.TaskView) string {
	levels := make([]int, len(tasks))
	for i, t := range tasks {
		levels[i] = strings.Count(t.DotPath, ".")
	}

	items := make([]TreeItem, len(tasks))
	for i, t := range tasks {
		name := t.DotPath
		if idx := strings.LastIndex(name, "."); idx >= 0 {
			name = name[idx+1:]
		}

		detail := fmt.Sprintf("%.0f%%", t.CompletePercent)
		if len(t.Assignments) > 0 {
			detail = fmt.Sprintf("%s, %s", detail, formatAssignments(t.Assignments))
		}

		items[i] = TreeItem{
			Title:  name,
			Level:  levels[i],
			IsLast: isLastAtLevel(levels, i),
			Status: t.Status,
			Detail: detail,
		}
	}
	return RenderTree(items)
}

// isLastAtLevel reports whether tasks[i] has no following sibling at the
// same tree level: scanning forward, the next index at level <= levels[i]
// determines it. If that index is deeper impossible (levels are
// monotonic at boundaries), if it's strictly shallower or the slice ends
// first, i is the last child at its level.
func isLastAtLevel(levels []int, i int) bool {
	level := levels[i]
	for j := i + 1; j < len(levels); j++ {
		if levels[j] < level {
			return true
		}
		if levels[j] == level {
			return false
		}
	}
	return true
}
