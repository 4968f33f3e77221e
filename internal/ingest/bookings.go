package ingest

import (
	"fmt"
	"time"

	"github.com/arborsched/arbor/internal/domain"
	"github.com/arborsched/arbor/internal/propstore"
)

// ExportBookings walks every task's AttrBookings overlay for scenarioID and
// produces a deterministic (task, resource, interval, sloppy) artefact:
// addressed by dot path and resource name so the export can be
// re-ingested against a freshly re-parsed Document without depending on
// the EntityIDs of the run that produced it.
func ExportBookings(graph *domain.Graph, store *propstore.Store, scenarioID domain.ScenarioID) (BookingExport, error) {
	scenario := graph.Scenarios[scenarioID]
	if scenario == nil {
		return BookingExport{}, fmt.Errorf("ingest: unknown scenario %s", scenarioID)
	}

	export := BookingExport{ScenarioName: scenario.Name}
	for _, taskID := range graph.TaskOrder {
		task := graph.Tasks[taskID]
		bookings, _ := propstore.GetTyped[[]domain.Booking](store, taskID, scenarioID, propstore.AttrBookings)
		for _, b := range bookings {
			eb := ExportedBooking{
				TaskPath:        task.DotPath,
				Start:           b.Start.UTC().Format(time.RFC3339),
				End:             b.End.UTC().Format(time.RFC3339),
				OverheadMin:     b.OverheadMin,
				Sloppy:          int(b.Sloppy),
				EfficiencyShare: b.EfficiencyShare,
			}
			if b.ResourceID != domain.NoEntity {
				res := graph.Resources[b.ResourceID]
				if res == nil {
					return BookingExport{}, fmt.Errorf("ingest: booking on task %q references unknown resource id %s", task.DotPath, b.ResourceID)
				}
				eb.Resource = res.Name
			}
			export.Bookings = append(export.Bookings, eb)
		}
	}
	return export, nil
}

// ApplyBookings folds an export's bookings back into doc as input bookings
// on their addressed tasks, so the document can be re-ingested and
// rescheduled in projection mode against the same ground truth: the
// round trip is expected to be a fixed point.
func ApplyBookings(doc *Document, export BookingExport) error {
	byPath := indexTasksByPath(doc.Tasks, "")
	for _, eb := range export.Bookings {
		t, ok := byPath[eb.TaskPath]
		if !ok {
			return fmt.Errorf("ingest: export references unknown task path %q", eb.TaskPath)
		}
		t.BookingsInput = append(t.BookingsInput, BookingDoc{
			Resource:        eb.Resource,
			Start:           eb.Start,
			End:             eb.End,
			OverheadMin:     eb.OverheadMin,
			Sloppy:          eb.Sloppy,
			EfficiencyShare: eb.EfficiencyShare,
		})
	}
	return nil
}

func indexTasksByPath(docs []TaskDoc, parentPath string) map[string]*TaskDoc {
	out := make(map[string]*TaskDoc)
	indexTasksByPathInto(docs, parentPath, out)
	return out
}

func indexTasksByPathInto(docs []TaskDoc, parentPath string, out map[string]*TaskDoc) {
	for i := range docs {
		path := dotPath(parentPath, docs[i].Name)
		out[path] = &docs[i]
		indexTasksByPathInto(docs[i].Children, path, out)
	}
}
