package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/arborsched/arbor/internal/domain"
)

type rangeJSON struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type intervalJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func weekdayToName(wd time.Weekday) string { return weekdayNames[int(wd)] }

func weekdayFromName(name string) (time.Weekday, error) {
	for i, n := range weekdayNames {
		if n == strings.ToLower(name) {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("repository: unknown weekday %q", name)
}

// encodeWorkingTemplate serializes wt's three variable-shape fields into
// the weekly_json/date_exceptions_json/holidays_json columns calendars and
// shifts share.
func encodeWorkingTemplate(wt domain.WorkingTemplate) (weeklyJSON, exceptionsJSON, holidaysJSON string, err error) {
	if len(wt.Weekly) > 0 {
		m := make(map[string][]rangeJSON, len(wt.Weekly))
		for wd, ranges := range wt.Weekly {
			m[weekdayToName(wd)] = encodeRanges(ranges)
		}
		if weeklyJSON, err = marshalJSON(m); err != nil {
			return
		}
	}
	if len(wt.DateExceptions) > 0 {
		m := make(map[string][]rangeJSON, len(wt.DateExceptions))
		for date, ranges := range wt.DateExceptions {
			m[date] = encodeRanges(ranges)
		}
		if exceptionsJSON, err = marshalJSON(m); err != nil {
			return
		}
	}
	if len(wt.Holidays) > 0 {
		list := make([]intervalJSON, 0, len(wt.Holidays))
		for _, h := range wt.Holidays {
			list = append(list, intervalJSON{Start: h.Start.UTC().Format(time.RFC3339), End: h.End.UTC().Format(time.RFC3339)})
		}
		if holidaysJSON, err = marshalJSON(list); err != nil {
			return
		}
	}
	return
}

func decodeWorkingTemplate(weeklyJSON, exceptionsJSON, holidaysJSON string, multiplier float64) (domain.WorkingTemplate, error) {
	wt := domain.WorkingTemplate{ProductivityMultiplier: multiplier}

	weekly, err := unmarshalJSON[map[string][]rangeJSON](weeklyJSON)
	if err != nil {
		return wt, err
	}
	if len(weekly) > 0 {
		wt.Weekly = make(map[time.Weekday][]domain.TimeRange, len(weekly))
		for name, ranges := range weekly {
			wd, err := weekdayFromName(name)
			if err != nil {
				return wt, err
			}
			wt.Weekly[wd] = decodeRanges(ranges)
		}
	}

	exceptions, err := unmarshalJSON[map[string][]rangeJSON](exceptionsJSON)
	if err != nil {
		return wt, err
	}
	if len(exceptions) > 0 {
		wt.DateExceptions = make(map[string][]domain.TimeRange, len(exceptions))
		for date, ranges := range exceptions {
			wt.DateExceptions[date] = decodeRanges(ranges)
		}
	}

	holidays, err := unmarshalJSON[[]intervalJSON](holidaysJSON)
	if err != nil {
		return wt, err
	}
	for _, h := range holidays {
		start, err := parseTime(h.Start)
		if err != nil {
			return wt, err
		}
		end, err := parseTime(h.End)
		if err != nil {
			return wt, err
		}
		wt.Holidays = append(wt.Holidays, domain.DateInterval{Start: start, End: end})
	}
	return wt, nil
}

func encodeRanges(ranges []domain.TimeRange) []rangeJSON {
	out := make([]rangeJSON, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, rangeJSON{Start: r.StartMin, End: r.EndMin})
	}
	return out
}

func decodeRanges(ranges []rangeJSON) []domain.TimeRange {
	out := make([]domain.TimeRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, domain.TimeRange{StartMin: r.Start, EndMin: r.End})
	}
	return out
}

type shiftAssignmentJSON struct {
	ShiftID int32  `json:"shiftId"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

func encodeShiftAssignments(assignments []domain.ShiftAssignment) (string, error) {
	if len(assignments) == 0 {
		return "", nil
	}
	list := make([]shiftAssignmentJSON, 0, len(assignments))
	for _, a := range assignments {
		list = append(list, shiftAssignmentJSON{
			ShiftID: int32(a.ShiftID),
			Start:   a.Start.UTC().Format(time.RFC3339),
			End:     a.End.UTC().Format(time.RFC3339),
		})
	}
	return marshalJSON(list)
}

func decodeShiftAssignments(s string) ([]domain.ShiftAssignment, error) {
	list, err := unmarshalJSON[[]shiftAssignmentJSON](s)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ShiftAssignment, 0, len(list))
	for _, a := range list {
		start, err := parseTime(a.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseTime(a.End)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ShiftAssignment{ShiftID: domain.EntityID(a.ShiftID), Start: start, End: end})
	}
	return out, nil
}

func encodeIntervals(intervals []domain.DateInterval) (string, error) {
	if len(intervals) == 0 {
		return "", nil
	}
	list := make([]intervalJSON, 0, len(intervals))
	for _, v := range intervals {
		list = append(list, intervalJSON{Start: v.Start.UTC().Format(time.RFC3339), End: v.End.UTC().Format(time.RFC3339)})
	}
	return marshalJSON(list)
}

func decodeIntervals(s string) ([]domain.DateInterval, error) {
	list, err := unmarshalJSON[[]intervalJSON](s)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DateInterval, 0, len(list))
	for _, v := range list {
		start, err := parseTime(v.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseTime(v.End)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.DateInterval{Start: start, End: end})
	}
	return out, nil
}

type rateJSON struct {
	EffectiveFrom string  `json:"effectiveFrom"`
	PerSlot       float64 `json:"perSlot"`
}

func encodeRates(rates []domain.RateEntry) (string, error) {
	if len(rates) == 0 {
		return "", nil
	}
	list := make([]rateJSON, 0, len(rates))
	for _, r := range rates {
		list = append(list, rateJSON{EffectiveFrom: r.EffectiveFrom.UTC().Format(time.RFC3339), PerSlot: r.PerSlot})
	}
	return marshalJSON(list)
}

func decodeRates(s string) ([]domain.RateEntry, error) {
	list, err := unmarshalJSON[[]rateJSON](s)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RateEntry, 0, len(list))
	for _, r := range list {
		from, err := parseTime(r.EffectiveFrom)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.RateEntry{EffectiveFrom: from, PerSlot: r.PerSlot})
	}
	return out, nil
}
