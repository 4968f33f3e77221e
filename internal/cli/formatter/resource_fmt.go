package formatter

import (
	"fmt"

	"github.com/arborsched/arbor/internal/domain"
)

// FormatResourceRoster renders a project's declared resources and groups:
// their efficiency, calendar, and vacation count, without requiring a
// scheduled scenario.
func FormatResourceRoster(graph *domain.Graph) string {
	headers := []string{"RESOURCE", "KIND", "EFFICIENCY", "CALENDAR", "VACATIONS"}
	var rows [][]string
	for _, r := range graph.Resources {
		kind := "worker"
		if r.IsGroup {
			kind = fmt.Sprintf("group (%d members)", len(r.MemberIDs))
		}
		calendar := Dim("--")
		if cal := graph.Calendars[r.CalendarID]; cal != nil {
			calendar = cal.Name
		}
		rows = append(rows, []string{
			r.Name,
			kind,
			fmt.Sprintf("%.0f%%", r.EffectiveEfficiency()*100),
			calendar,
			fmt.Sprintf("%d", len(r.Vacations)),
		})
	}
	return RenderTable(headers, rows)
}
