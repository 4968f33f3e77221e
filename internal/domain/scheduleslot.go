package domain

// ScheduleSlot is the scheduler's most granular output unit: one resource's
// booked share of one task at one slot, in one scenario (§3). Reporters
// roll contiguous same-task/same-resource ScheduleSlots up into Bookings.
type ScheduleSlot struct {
	TaskID          EntityID
	ScenarioID      ScenarioID
	Slot            Slot
	ResourceID      EntityID
	EfficiencyShare float64
}
