package checkout

// TimeSlot is a delivery window offered at checkout.
type TimeSlot struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var timeSlots = []TimeSlot{
	{ID: "morning", Label: "9:00 AM - 12:00 PM"},
	{ID: "afternoon", Label: "12:00 PM - 3:00 PM"},
	{ID: "evening", Label: "3:00 PM - 6:00 PM"},
	{ID: "night", Label: "6:00 PM - 9:00 PM"},
}

func TimeSlots() []TimeSlot {
	out := make([]TimeSlot, len(timeSlots))
	copy(out, timeSlots)
	return out
}

func LookupTimeSlot(id string) (TimeSlot, bool) {
	for _, s := range timeSlots {
		if s.ID == id {
			return s, true
		}
	}
	return TimeSlot{}, false
}
