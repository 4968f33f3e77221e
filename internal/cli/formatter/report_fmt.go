package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/arborsched/arbor/internal/app"
)

// FormatScheduleResult renders a full app.ScheduleResult: the scenario
// header, the task table, the resource utilisation table, and the
// diagnostics list, in that order.
func FormatScheduleResult(result *app.ScheduleResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n\n", Header(result.ScenarioName), StatusIndicator(result.State))
	b.WriteString(FormatTaskTable(result.Tasks))
	b.WriteString("\n")
	b.WriteString(FormatResourceTable(result.Resources))
	b.WriteString("\n")
	b.WriteString(FormatDiagnostics(result.Diagnostics))

	return b.String()
}

// FormatTaskTable renders one row per task: its schedule window, booked
// resources, progress, and derived status.
func FormatTaskTable(tasks []app.TaskView) string {
	headers := []string{"TASK", "START", "END", "ASSIGNED", "DONE", "COST", "STATUS"}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.DotPath,
			formatOptionalTime(t.Start),
			formatOptionalTime(t.End),
			formatAssignments(t.Assignments),
			fmt.Sprintf("%s %3.0f%%", RenderCompactBar(t.CompletePercent/100, 8, false), t.CompletePercent),
			FormatMoney(t.Cost),
			StatusIndicator(t.Status),
		})
	}
	return RenderTable(headers, rows)
}

// FormatResourceTable renders one row per resource: its utilisation
// percentage and booked slot count.
func FormatResourceTable(resources []app.ResourceView) string {
	headers := []string{"RESOURCE", "UTILISATION", "BOOKINGS"}
	rows := make([][]string, 0, len(resources))
	for _, r := range resources {
		rows = append(rows, []string{
			r.Name,
			fmt.Sprintf("%s %3.0f%%", RenderCompactBar(r.UtilisationPercent/100, 12, false), r.UtilisationPercent),
			fmt.Sprintf("%d", len(r.Assignments)),
		})
	}
	return RenderTable(headers, rows)
}

// FormatDiagnostics renders the ordered diagnostic list, grouped under a
// header and colored by severity.
func FormatDiagnostics(diags []app.DiagnosticView) string {
	if len(diags) == 0 {
		return Dim("no diagnostics\n")
	}
	var b strings.Builder
	b.WriteString(Header("diagnostics"))
	b.WriteString("\n")
	for _, d := range diags {
		style := SeverityColor(d.Severity)
		line := fmt.Sprintf("%s [%s] %s", style.Render(strings.ToUpper(d.Severity)), d.Kind, d.Message)
		if len(d.Refs) > 0 {
			line += " " + Dim("("+strings.Join(d.Refs, ", ")+")")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func formatAssignments(assignments []app.ResourceAssignment) string {
	if len(assignments) == 0 {
		return Dim("--")
	}
	parts := make([]string, len(assignments))
	for i, a := range assignments {
		parts[i] = fmt.Sprintf("%s(%.0f%%)", a.Resource, a.EfficiencyShare*100)
	}
	return strings.Join(parts, ", ")
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return Dim("--")
	}
	return t.Format("Jan 2 15:04")
}
