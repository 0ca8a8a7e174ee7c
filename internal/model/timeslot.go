package model

// TimeSlot is one entry of the fixed slot catalogue.  Start and End are
// wall-clock times formatted HH:MM:SS.
type TimeSlot struct {
	ID    int    `json:"id" yaml:"id"`       // time_slots.id
	Start string `json:"start" yaml:"start"` // time_slots.start_time
	End   string `json:"end" yaml:"end"`     // time_slots.end_time
}
