package service

import (
	"github.com/arborsched/arbor/internal/app"
	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
	"github.com/arborsched/arbor/internal/scheduler"
	"github.com/arborsched/arbor/internal/timegrid"
)

// buildScheduleResult projects one scenario's scheduled graph/store into
// the reporter-facing app.ScheduleResult: per-task and per-resource views
// plus the ordered diagnostics list.
func buildScheduleResult(graph *domain.Graph, store *propstore.Store, grid *timegrid.Grid, result scheduler.Result) *app.ScheduleResult {
	scenario := graph.Scenarios[result.ScenarioID]
	name := ""
	if scenario != nil {
		name = scenario.Name
	}

	out := &app.ScheduleResult{
		ScenarioName: name,
		State:        string(result.State),
	}

	bookingsByResource := make(map[domain.EntityID][]app.BookedSlot)
	for _, id := range graph.TaskOrder {
		t := graph.Tasks[id]
		view := buildTaskView(graph, store, grid, result.ScenarioID, t)
		out.Tasks = append(out.Tasks, view)

		bookings, _ := propstore.GetTyped[[]domain.Booking](store, id, result.ScenarioID, propstore.AttrBookings)
		for _, b := range bookings {
			bookingsByResource[b.ResourceID] = append(bookingsByResource[b.ResourceID], app.BookedSlot{
				Task: t.DotPath, Start: b.Start, End: b.End,
			})
		}
	}

	registry := timegrid.NewRegistry(grid, graph)
	for id, res := range graph.Resources {
		if res.IsGroup {
			continue
		}
		out.Resources = append(out.Resources, buildResourceView(grid, registry, id, res, bookingsByResource[id]))
	}

	for _, d := range result.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, buildDiagnosticView(graph, d))
	}
	return out
}

func buildTaskView(graph *domain.Graph, store *propstore.Store, grid *timegrid.Grid, scenarioID domain.ScenarioID, t *domain.Task) app.TaskView {
	view := app.TaskView{DotPath: t.DotPath, Name: t.Name}

	if startSlot, ok := propstore.GetTyped[domain.Slot](store, t.ID, scenarioID, propstore.AttrStart); ok {
		tm := grid.TimeAt(startSlot)
		view.Start = &tm
	}
	if endSlot, ok := propstore.GetTyped[domain.Slot](store, t.ID, scenarioID, propstore.AttrEnd); ok {
		tm := grid.TimeAt(endSlot)
		view.End = &tm
	}

	bookings, _ := propstore.GetTyped[[]domain.Booking](store, t.ID, scenarioID, propstore.AttrBookings)
	shareByResource := make(map[domain.EntityID]float64)
	var booked float64
	for _, b := range bookings {
		shareByResource[b.ResourceID] += b.EfficiencyShare
		booked += b.EfficiencyShare
	}
	for rid, share := range shareByResource {
		name := rid.String()
		if res := graph.Resources[rid]; res != nil {
			name = res.Name
		}
		view.Assignments = append(view.Assignments, app.ResourceAssignment{Resource: name, EfficiencyShare: share})
	}
	view.BookedEffort = booked

	if remaining, ok := propstore.GetTyped[float64](store, t.ID, scenarioID, propstore.AttrRemainingEffort); ok {
		view.RemainingEffort = remaining
	}
	if complete, ok := propstore.GetTyped[float64](store, t.ID, scenarioID, propstore.AttrComplete); ok {
		view.CompletePercent = complete
	}
	if cost, ok := propstore.GetTyped[float64](store, t.ID, scenarioID, propstore.AttrAccruedCost); ok {
		view.Cost = cost
	}
	if revenue, ok := propstore.GetTyped[float64](store, t.ID, scenarioID, propstore.AttrAccruedRevenue); ok {
		view.Revenue = revenue
	}
	if st, ok := propstore.GetTyped[domain.TaskState](store, t.ID, scenarioID, propstore.AttrState); ok {
		view.State = string(st)
	}
	if status, ok := propstore.GetTyped[domain.Status](store, t.ID, scenarioID, propstore.AttrStatus); ok {
		view.Status = string(status)
	}
	return view
}

func buildResourceView(grid *timegrid.Grid, registry *timegrid.Registry, id domain.EntityID, res *domain.Resource, bookings []app.BookedSlot) app.ResourceView {
	view := app.ResourceView{Name: res.Name, Assignments: bookings}

	total := registry.ForResource(id).CountWorking(0, grid.TotalSlots())
	if total > 0 {
		var bookedSlots int
		slotDur := grid.SlotDuration()
		for _, b := range bookings {
			bookedSlots += int(b.End.Sub(b.Start) / slotDur)
		}
		view.UtilisationPercent = float64(bookedSlots) / float64(total) * 100
	}
	return view
}

func buildDiagnosticView(graph *domain.Graph, d scheduler.Diagnostic) app.DiagnosticView {
	view := app.DiagnosticView{Severity: string(d.Severity), Kind: string(d.Kind), Message: d.Message}
	for _, ref := range d.Refs {
		view.Refs = append(view.Refs, resolveRefName(graph, ref))
	}
	if d.Slot != domain.NoSlot {
		v := int64(d.Slot)
		view.Slot = &v
	}
	return view
}

func resolveRefName(graph *domain.Graph, ref domain.EntityID) string {
	if t := graph.Tasks[ref]; t != nil {
		return t.DotPath
	}
	if r := graph.Resources[ref]; r != nil {
		return r.Name
	}
	if a := graph.Accounts[ref]; a != nil {
		return a.Name
	}
	return ref.String()
}
