package tracker

import (
	"strings"
	"time"
)

// CancelledLabel is the label of the step appended to a cancelled order.
const CancelledLabel = "Cancelled"

var progression = []struct {
	status Status
	label  string
}{
	{StatusPending, "Order Placed"},
	{StatusConfirmed, "Confirmed"},
	{StatusOutForDelivery, "Out for Delivery"},
	{StatusDelivered, "Delivered"},
}

// Step is one row of the tracking timeline.
type Step struct {
	Label     string     `json:"label"`
	Completed bool       `json:"completed"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// Courier is the person delivering an order.
type Courier struct {
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone" json:"phone"`
	PhotoURL string `bson:"photoUrl,omitempty" json:"photoUrl,omitempty"`
}

type BannerKind string

const (
	BannerCancelled  BannerKind = "cancelled"
	BannerInProgress BannerKind = "in-progress"
)

type Banner struct {
	Kind     BannerKind `json:"kind"`
	Reason   string     `json:"reason,omitempty"`
	ETA      *time.Time `json:"eta,omitempty"`
	Courier  *Courier   `json:"courier,omitempty"`
	CallLink string     `json:"callLink,omitempty"`
}

// Input is everything the tracker renders from. Live marks an order the
// customer is actively following.
type Input struct {
	History []Event
	Courier *Courier
	ETA     *time.Time
	Live    bool
}

type View struct {
	Status  Status  `json:"status"`
	Steps   []Step  `json:"steps"`
	Current int     `json:"current"`
	Banner  *Banner `json:"banner,omitempty"`
}

// Steps builds the timeline for a history. The four progress steps are
// always present; a cancelled order gets a trailing Cancelled step.
func Steps(history []Event) []Step {
	reached := make(map[Status]Event, len(history))
	for _, ev := range history {
		if _, ok := reached[ev.Status]; !ok {
			reached[ev.Status] = ev
		}
	}

	steps := make([]Step, 0, len(progression)+1)
	for _, p := range progression {
		step := Step{Label: p.label}
		if ev, ok := reached[p.status]; ok {
			at := ev.At
			step.Completed = true
			step.Timestamp = &at
		}
		steps = append(steps, step)
	}

	if ev, ok := reached[StatusCancelled]; ok {
		at := ev.At
		steps = append(steps, Step{
			Label:     CancelledLabel,
			Completed: true,
			Timestamp: &at,
			Reason:    ev.Reason,
		})
	}
	return steps
}

// CurrentIndex returns the index of the step to highlight: the one before
// the first incomplete step, or the last step when all are complete. For a
// cancelled order it is the step labelled Cancelled. It returns -1 when the
// first step is incomplete.
func CurrentIndex(steps []Step, status Status) int {
	if status == StatusCancelled {
		for i, s := range steps {
			if s.Label == CancelledLabel {
				return i
			}
		}
	}
	for i, s := range steps {
		if !s.Completed {
			return i - 1
		}
	}
	return len(steps) - 1
}

func Render(in Input) View {
	status := Current(in.History)
	steps := Steps(in.History)
	view := View{
		Status:  status,
		Steps:   steps,
		Current: CurrentIndex(steps, status),
	}

	switch {
	case status == StatusCancelled:
		banner := &Banner{Kind: BannerCancelled}
		if i := view.Current; i >= 0 && i < len(steps) {
			banner.Reason = steps[i].Reason
		}
		view.Banner = banner
	case status == StatusOutForDelivery && in.Live:
		banner := &Banner{Kind: BannerInProgress, ETA: in.ETA, Courier: in.Courier}
		if in.Courier != nil {
			banner.CallLink = callLink(in.Courier.Phone)
		}
		view.Banner = banner
	}
	return view
}

func callLink(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r == '+' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "tel:" + b.String()
}
