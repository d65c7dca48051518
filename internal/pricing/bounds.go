package pricing

import "math"

// Bounds is the range of a slider control.
type Bounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

var (
	DistanceBounds  = Bounds{Min: 1, Max: 10, Step: 1}
	WeightBounds    = Bounds{Min: 1, Max: 10, Step: 0.5}
	ItemCountBounds = Bounds{Min: 1, Max: 30, Step: 1}
	GuestBounds     = Bounds{Min: 10, Max: 200, Step: 1}
	DurationBounds  = Bounds{Min: 1, Max: 8, Step: 1}
)

// Apply snaps v to the nearest step and keeps it inside the range.
func (b Bounds) Apply(v float64) float64 {
	if b.Step > 0 {
		v = b.Min + math.Round((v-b.Min)/b.Step)*b.Step
	}
	return math.Min(b.Max, math.Max(b.Min, v))
}

// Clamp applies the control domains to every field the service type reads.
func Clamp(in Input) Input {
	switch in.ServiceType {
	case ServiceDelivery:
		in.Distance = DistanceBounds.Apply(in.Distance)
		in.Weight = WeightBounds.Apply(in.Weight)
	case ServiceTechnician:
		in.Duration = int(DurationBounds.Apply(float64(in.Duration)))
	case ServiceShopping:
		in.ItemCount = int(ItemCountBounds.Apply(float64(in.ItemCount)))
		in.Distance = DistanceBounds.Apply(in.Distance)
	case ServiceEvent:
		in.Guests = int(GuestBounds.Apply(float64(in.Guests)))
	}
	return in
}
