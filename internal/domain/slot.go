package domain

// Slot is the fixed time-quantum index of the scheduler (Glossary: Slot).
// All derived times are integer multiples of it, counted from Project.Start.
type Slot int64

// NoSlot is the sentinel "not computed" value.
const NoSlot Slot = -1
