package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arborsched/arbor/internal/domain"
)

// builder accumulates the frozen graph across the two passes Build runs:
// pass one allocates ids and structure, pass two resolves every
// name/dot-path reference (dependencies, allocations, bookings, charges,
// scenario parents) now that every id exists.
type builder struct {
	graph *domain.Graph

	nextEntity   int32
	nextScenario int32

	calendarByName map[string]domain.EntityID
	shiftByName    map[string]domain.EntityID
	accountByName  map[string]domain.EntityID
	resourceByName map[string]domain.EntityID
	taskByPath     map[string]domain.EntityID
	scenarioByName map[string]domain.ScenarioID
}

func newBuilder() *builder {
	return &builder{
		graph:          domain.NewGraph(),
		calendarByName: map[string]domain.EntityID{},
		shiftByName:    map[string]domain.EntityID{},
		accountByName:  map[string]domain.EntityID{},
		resourceByName: map[string]domain.EntityID{},
		taskByPath:     map[string]domain.EntityID{},
		scenarioByName: map[string]domain.ScenarioID{},
	}
}

func (b *builder) allocEntity() domain.EntityID {
	b.nextEntity++
	return domain.EntityID(b.nextEntity)
}

func (b *builder) allocScenario() domain.ScenarioID {
	b.nextScenario++
	return domain.ScenarioID(b.nextScenario)
}

// Build converts doc into a frozen domain.Graph, returning a structural
// error on any unresolved reference or malformed value.
func Build(doc *Document) (*domain.Graph, error) {
	b := newBuilder()

	if err := b.buildProject(doc.Project); err != nil {
		return nil, fmt.Errorf("ingest: project: %w", err)
	}
	if err := b.buildCalendars(doc.Calendars); err != nil {
		return nil, err
	}
	if err := b.buildShifts(doc.Shifts); err != nil {
		return nil, err
	}
	if err := b.buildAccounts(doc.Accounts); err != nil {
		return nil, err
	}
	if err := b.buildResourcesPassOne(doc.Resources); err != nil {
		return nil, err
	}
	if err := b.buildTasksPassOne(doc.Tasks, domain.NoEntity, ""); err != nil {
		return nil, err
	}
	if err := b.buildScenariosPassOne(doc.Scenarios); err != nil {
		return nil, err
	}

	if err := b.resolveProjectCalendar(doc.Project); err != nil {
		return nil, err
	}
	if err := b.resolveResourcesPassTwo(doc.Resources); err != nil {
		return nil, err
	}
	if err := b.resolveTasksPassTwo(doc.Tasks, ""); err != nil {
		return nil, err
	}
	if err := b.resolveScenariosPassTwo(doc.Scenarios); err != nil {
		return nil, err
	}

	if err := b.graph.Freeze(); err != nil {
		return nil, err
	}
	return b.graph, nil
}

func parseTimeRequired(s, field string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid RFC3339 timestamp %q: %w", field, s, err)
	}
	return t, nil
}

func parseTimeOptional(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTimeRequired(*s, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (b *builder) buildProject(p ProjectDoc) error {
	start, err := parseTimeRequired(p.Start, "start")
	if err != nil {
		return err
	}
	end, err := parseTimeRequired(p.End, "end")
	if err != nil {
		return err
	}
	loc := time.UTC
	if p.TimeZone != "" {
		l, err := time.LoadLocation(p.TimeZone)
		if err != nil {
			return fmt.Errorf("timeZone: %w", err)
		}
		loc = l
	}
	b.graph.Project = &domain.Project{
		ID:                b.allocEntity(),
		Name:              p.Name,
		Start:             start,
		End:               end,
		TimeZone:          loc,
		SlotSeconds:       p.SlotSeconds,
		CurrencyPrecision: p.CurrencyPrecision,
		Seed:              p.Seed,
	}
	return nil
}

func (b *builder) resolveProjectCalendar(p ProjectDoc) error {
	if p.Calendar == "" {
		return nil
	}
	id, ok := b.calendarByName[p.Calendar]
	if !ok {
		return fmt.Errorf("ingest: project references unknown calendar %q", p.Calendar)
	}
	b.graph.Project.CalendarID = id
	return nil
}

func parseWorkingTemplate(d WorkingTemplateDoc) (domain.WorkingTemplate, error) {
	wt := domain.WorkingTemplate{
		ProductivityMultiplier: d.ProductivityMultiplier,
	}
	if len(d.Weekly) > 0 {
		wt.Weekly = make(map[time.Weekday][]domain.TimeRange)
		for dayName, ranges := range d.Weekly {
			wd, err := parseWeekday(dayName)
			if err != nil {
				return wt, err
			}
			trs, err := parseTimeRanges(ranges)
			if err != nil {
				return wt, err
			}
			wt.Weekly[wd] = trs
		}
	}
	if len(d.DateExceptions) > 0 {
		wt.DateExceptions = make(map[string][]domain.TimeRange)
		for date, ranges := range d.DateExceptions {
			trs, err := parseTimeRanges(ranges)
			if err != nil {
				return wt, err
			}
			wt.DateExceptions[date] = trs
		}
	}
	for _, h := range d.Holidays {
		start, err := parseTimeRequired(h.Start, "holidays.start")
		if err != nil {
			return wt, err
		}
		end, err := parseTimeRequired(h.End, "holidays.end")
		if err != nil {
			return wt, err
		}
		wt.Holidays = append(wt.Holidays, domain.DateInterval{Start: start, End: end})
	}
	return wt, nil
}

func parseTimeRanges(docs []TimeRangeDoc) ([]domain.TimeRange, error) {
	out := make([]domain.TimeRange, 0, len(docs))
	for _, d := range docs {
		startMin, err := parseHHMM(d.Start)
		if err != nil {
			return nil, err
		}
		endMin, err := parseHHMM(d.End)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.TimeRange{StartMin: startMin, EndMin: endMin})
	}
	return out, nil
}

func parseHHMM(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid HH:MM time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM time %q: %w", s, err)
	}
	return h*60 + m, nil
}

var weekdayByName = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayByName[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return wd, nil
}

func (b *builder) buildCalendars(docs []CalendarDoc) error {
	for _, d := range docs {
		wt, err := parseWorkingTemplate(d.WorkingTemplateDoc)
		if err != nil {
			return fmt.Errorf("calendar %q: %w", d.Name, err)
		}
		id := b.allocEntity()
		b.graph.Calendars[id] = &domain.Calendar{ID: id, Name: d.Name, WorkingTemplate: wt}
		b.calendarByName[d.Name] = id
	}
	return nil
}

func (b *builder) buildShifts(docs []ShiftDoc) error {
	for _, d := range docs {
		wt, err := parseWorkingTemplate(d.WorkingTemplateDoc)
		if err != nil {
			return fmt.Errorf("shift %q: %w", d.Name, err)
		}
		id := b.allocEntity()
		b.graph.Shifts[id] = &domain.Shift{ID: id, Name: d.Name, WorkingTemplate: wt}
		b.shiftByName[d.Name] = id
	}
	return nil
}

func (b *builder) buildAccounts(docs []AccountDoc) error {
	for _, d := range docs {
		id := b.allocEntity()
		b.graph.Accounts[id] = &domain.Account{ID: id, Name: d.Name}
		b.accountByName[d.Name] = id
	}
	for _, d := range docs {
		if d.Parent == "" {
			continue
		}
		parentID, ok := b.accountByName[d.Parent]
		if !ok {
			return fmt.Errorf("account %q references unknown parent %q", d.Name, d.Parent)
		}
		b.graph.Accounts[b.accountByName[d.Name]].ParentID = parentID
	}
	return nil
}

func (b *builder) buildResourcesPassOne(docs []ResourceDoc) error {
	for _, d := range docs {
		id := b.allocEntity()
		b.graph.Resources[id] = &domain.Resource{ID: id, Name: d.Name, IsGroup: d.IsGroup, Efficiency: d.Efficiency}
		b.resourceByName[d.Name] = id
	}
	return nil
}

func (b *builder) resolveResourcesPassTwo(docs []ResourceDoc) error {
	for _, d := range docs {
		r := b.graph.Resources[b.resourceByName[d.Name]]
		for _, m := range d.Members {
			mid, ok := b.resourceByName[m]
			if !ok {
				return fmt.Errorf("resource %q references unknown member %q", d.Name, m)
			}
			r.MemberIDs = append(r.MemberIDs, mid)
		}
		if d.Calendar != "" {
			cid, ok := b.calendarByName[d.Calendar]
			if !ok {
				return fmt.Errorf("resource %q references unknown calendar %q", d.Name, d.Calendar)
			}
			r.CalendarID = cid
		}
		for _, sa := range d.Shifts {
			assignment, err := b.resolveShiftAssignment(sa)
			if err != nil {
				return fmt.Errorf("resource %q: %w", d.Name, err)
			}
			r.Shifts = append(r.Shifts, assignment)
		}
		for _, v := range d.Vacations {
			start, err := parseTimeRequired(v.Start, "vacations.start")
			if err != nil {
				return err
			}
			end, err := parseTimeRequired(v.End, "vacations.end")
			if err != nil {
				return err
			}
			r.Vacations = append(r.Vacations, domain.DateInterval{Start: start, End: end})
		}
		r.Limits = domain.ResourceLimits{
			PerDaySlots:   d.Limits.PerDaySlots,
			PerWeekSlots:  d.Limits.PerWeekSlots,
			PerMonthSlots: d.Limits.PerMonthSlots,
		}
		for _, rate := range d.Rates {
			from, err := parseTimeRequired(rate.EffectiveFrom, "rates.effectiveFrom")
			if err != nil {
				return err
			}
			r.Rates = append(r.Rates, domain.RateEntry{EffectiveFrom: from, PerSlot: rate.PerSlot})
		}
	}
	return nil
}

func (b *builder) resolveShiftAssignment(sa ShiftAssignmentDoc) (domain.ShiftAssignment, error) {
	sid, ok := b.shiftByName[sa.Shift]
	if !ok {
		return domain.ShiftAssignment{}, fmt.Errorf("references unknown shift %q", sa.Shift)
	}
	start, err := parseTimeRequired(sa.Start, "shifts.start")
	if err != nil {
		return domain.ShiftAssignment{}, err
	}
	end, err := parseTimeRequired(sa.End, "shifts.end")
	if err != nil {
		return domain.ShiftAssignment{}, err
	}
	return domain.ShiftAssignment{ShiftID: sid, Start: start, End: end}, nil
}

func dotPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + "." + name
}

func (b *builder) buildTasksPassOne(docs []TaskDoc, parentID domain.EntityID, parentPath string) error {
	for _, d := range docs {
		path := dotPath(parentPath, d.Name)
		if _, dup := b.taskByPath[path]; dup {
			return fmt.Errorf("duplicate task path %q", path)
		}
		id := b.allocEntity()
		t := &domain.Task{
			ID:       id,
			ParentID: parentID,
			Seq:      int(id),
			DotPath:  path,
			Name:     d.Name,
			Kind:     domain.TaskKind(d.Kind),
			Direction: domain.Forward,
		}
		if d.Direction != "" {
			t.Direction = domain.Direction(d.Direction)
		}
		b.graph.Tasks[id] = t
		b.taskByPath[path] = id
		b.graph.TaskOrder = append(b.graph.TaskOrder, id)
		if parentID != domain.NoEntity {
			b.graph.Tasks[parentID].ChildIDs = append(b.graph.Tasks[parentID].ChildIDs, id)
		}
		if err := b.buildTasksPassOne(d.Children, id, path); err != nil {
			return err
		}
	}
	return nil
}

// resolveTargetPath implements the "!"/"!!" sibling/parent dot-path scope
// rule: "!name" resolves against the declaring task's own parent (a
// sibling reference); "!!name" resolves one level further up (the
// parent's parent); a target with no leading "!" is an absolute path.
func resolveTargetPath(ownPath, target string) string {
	if !strings.HasPrefix(target, "!") {
		return target
	}
	ups := 0
	for strings.HasPrefix(target, "!") {
		target = target[1:]
		ups++
	}
	segments := strings.Split(ownPath, ".")
	// The declaring task's own parent is segments[:len-1]; each extra "!"
	// climbs one more ancestor level.
	base := len(segments) - ups
	if base < 0 {
		base = 0
	}
	prefix := strings.Join(segments[:base], ".")
	return dotPath(prefix, target)
}

func (b *builder) resolveTasksPassTwo(docs []TaskDoc, parentPath string) error {
	for _, d := range docs {
		path := dotPath(parentPath, d.Name)
		t := b.graph.Tasks[b.taskByPath[path]]

		var err error
		if t.Start, err = parseTimeOptional(d.Start, path+".start"); err != nil {
			return err
		}
		if t.End, err = parseTimeOptional(d.End, path+".end"); err != nil {
			return err
		}
		if t.MinStart, err = parseTimeOptional(d.MinStart, path+".minStart"); err != nil {
			return err
		}
		if t.MaxStart, err = parseTimeOptional(d.MaxStart, path+".maxStart"); err != nil {
			return err
		}
		if t.MinEnd, err = parseTimeOptional(d.MinEnd, path+".minEnd"); err != nil {
			return err
		}
		if t.MaxEnd, err = parseTimeOptional(d.MaxEnd, path+".maxEnd"); err != nil {
			return err
		}

		t.Effort = d.Effort
		t.DurationSlots = d.DurationSlots
		t.LengthSlots = d.LengthSlots
		t.CompleteUser = d.CompleteUser
		t.ActualScheduled = d.ActualScheduled
		t.StrictBookings = d.StrictBookings

		for _, dep := range d.Depends {
			link, err := b.resolveDependency(path, dep)
			if err != nil {
				return fmt.Errorf("task %q depends: %w", path, err)
			}
			t.Depends = append(t.Depends, link)
		}
		for _, dep := range d.Precedes {
			link, err := b.resolveDependency(path, dep)
			if err != nil {
				return fmt.Errorf("task %q precedes: %w", path, err)
			}
			t.Precedes = append(t.Precedes, link)
		}

		for _, a := range d.Allocations {
			set := domain.AllocationCandidateSet{
				Policy:     domain.PolicyOrder,
				Persistent: a.Persistent,
				Mandatory:  a.Mandatory,
				RandomSeed: a.RandomSeed,
			}
			if a.Policy != "" {
				set.Policy = domain.AllocationPolicy(a.Policy)
			}
			for _, rname := range a.Resources {
				rid, ok := b.resourceByName[rname]
				if !ok {
					return fmt.Errorf("task %q allocates unknown resource %q", path, rname)
				}
				set.Resources = append(set.Resources, rid)
			}
			t.Allocations = append(t.Allocations, set)
		}

		for _, bk := range d.BookingsInput {
			booking, err := b.resolveBooking(bk)
			if err != nil {
				return fmt.Errorf("task %q booking: %w", path, err)
			}
			t.BookingsInput = append(t.BookingsInput, booking)
		}

		for _, c := range d.Charges {
			charge := domain.ChargeEvent{Amount: c.Amount, Kind: domain.ChargeKind(c.Kind), Timing: domain.ChargeTiming(c.Timing)}
			if c.Account != "" {
				aid, ok := b.accountByName[c.Account]
				if !ok {
					return fmt.Errorf("task %q charges unknown account %q", path, c.Account)
				}
				charge.AccountID = aid
			}
			t.Charges = append(t.Charges, charge)
		}
		if d.Account != "" {
			aid, ok := b.accountByName[d.Account]
			if !ok {
				return fmt.Errorf("task %q references unknown account %q", path, d.Account)
			}
			t.AccountID = aid
		}
		if d.Calendar != "" {
			cid, ok := b.calendarByName[d.Calendar]
			if !ok {
				return fmt.Errorf("task %q references unknown calendar %q", path, d.Calendar)
			}
			t.CalendarID = cid
		}
		for _, sa := range d.Shifts {
			assignment, err := b.resolveShiftAssignment(sa)
			if err != nil {
				return fmt.Errorf("task %q: %w", path, err)
			}
			t.Shifts = append(t.Shifts, assignment)
		}

		if err := b.resolveTasksPassTwo(d.Children, path); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) resolveDependency(ownPath string, d DependencyDoc) (domain.DependencyLink, error) {
	targetPath := resolveTargetPath(ownPath, d.Target)
	tid, ok := b.taskByPath[targetPath]
	if !ok {
		return domain.DependencyLink{}, fmt.Errorf("unknown target %q (resolved to %q)", d.Target, targetPath)
	}
	link := domain.DependencyLink{TargetID: tid, GapLength: d.GapLength, Anchor: domain.AnchorOnEnd}
	if d.Anchor != "" {
		link.Anchor = domain.DependencyAnchor(d.Anchor)
	}
	if d.GapDuration != "" {
		dur, err := time.ParseDuration(d.GapDuration)
		if err != nil {
			return domain.DependencyLink{}, fmt.Errorf("invalid gapDuration %q: %w", d.GapDuration, err)
		}
		link.GapDuration = dur
	}
	return link, nil
}

func (b *builder) resolveBooking(d BookingDoc) (domain.Booking, error) {
	start, err := parseTimeRequired(d.Start, "bookings.start")
	if err != nil {
		return domain.Booking{}, err
	}
	end, err := parseTimeRequired(d.End, "bookings.end")
	if err != nil {
		return domain.Booking{}, err
	}
	bk := domain.Booking{
		Start: start, End: end, OverheadMin: d.OverheadMin,
		Sloppy: domain.SloppyLevel(d.Sloppy), EfficiencyShare: d.EfficiencyShare,
	}
	if bk.EfficiencyShare == 0 {
		bk.EfficiencyShare = 1.0
	}
	if d.Resource != "" {
		rid, ok := b.resourceByName[d.Resource]
		if !ok {
			return domain.Booking{}, fmt.Errorf("references unknown resource %q", d.Resource)
		}
		bk.ResourceID = rid
	}
	return bk, nil
}

func (b *builder) buildScenariosPassOne(docs []ScenarioDoc) error {
	for _, d := range docs {
		id := b.allocScenario()
		b.graph.Scenarios[id] = &domain.Scenario{
			ID: id, Name: d.Name, Projection: d.Projection,
			StrictBookings: d.StrictBookings, Disabled: d.Disabled,
		}
		b.scenarioByName[d.Name] = id
		b.graph.ScenarioOrder = append(b.graph.ScenarioOrder, id)
	}
	return nil
}

func (b *builder) resolveScenariosPassTwo(docs []ScenarioDoc) error {
	for _, d := range docs {
		if d.Parent == "" {
			continue
		}
		pid, ok := b.scenarioByName[d.Parent]
		if !ok {
			return fmt.Errorf("scenario %q references unknown parent %q", d.Name, d.Parent)
		}
		b.graph.Scenarios[b.scenarioByName[d.Name]].ParentID = pid
	}
	return nil
}
