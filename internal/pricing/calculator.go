package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type ServiceType string

const (
	ServiceDelivery   ServiceType = "delivery"
	ServiceTechnician ServiceType = "technician"
	ServiceShopping   ServiceType = "shopping"
	ServiceEvent      ServiceType = "event"
)

var ErrUnknownService = errors.New("unknown service type")

// Input holds the estimator controls. Only the fields relevant to the
// service type are read.
type Input struct {
	ServiceType    ServiceType `bson:"serviceType" json:"serviceType"`
	Distance       float64     `bson:"distance,omitempty" json:"distance,omitempty"`
	Weight         float64     `bson:"weight,omitempty" json:"weight,omitempty"`
	ItemCount      int         `bson:"itemCount,omitempty" json:"itemCount,omitempty"`
	Guests         int         `bson:"guests,omitempty" json:"guests,omitempty"`
	TechnicianType string      `bson:"technicianType,omitempty" json:"technicianType,omitempty"`
	Duration       int         `bson:"duration,omitempty" json:"duration,omitempty"`
	Express        bool        `bson:"express" json:"express"`
}

// Quote is the result of an estimate. Price is rounded to a whole unit.
type Quote struct {
	ServiceType ServiceType `json:"serviceType"`
	Base        float64     `json:"base"`
	Surcharge   float64     `json:"surcharge"`
	Express     bool        `json:"express"`
	Price       int64       `json:"price"`
}

// Calculate prices the input. Express is a multiplier for every service
// except technician visits, which add a flat fee.
func Calculate(in Input, rates Rates) (Quote, error) {
	var base, price float64

	switch in.ServiceType {
	case ServiceDelivery:
		base = 30 + in.Distance*10 + in.Weight*5
		price = base
		if in.Express {
			price = base * 1.5
		}
	case ServiceTechnician:
		base = rates.TechnicianRate(in.TechnicianType) * float64(in.Duration)
		price = base
		if in.Express {
			price = base + 100
		}
	case ServiceShopping:
		base = 50 + float64(in.ItemCount)*10 + in.Distance*10
		price = base
		if in.Express {
			price = base * 1.3
		}
	case ServiceEvent:
		base = 1000 + float64(in.Guests)*50
		price = base
		if in.Express {
			price = base * 1.4
		}
	default:
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownService, in.ServiceType)
	}

	return Quote{
		ServiceType: in.ServiceType,
		Base:        base,
		Surcharge:   price - base,
		Express:     in.Express,
		Price:       int64(math.Round(price)),
	}, nil
}

// Rates is the technician rate card, per hour.
type Rates struct {
	Technician  map[string]float64
	DefaultRate float64
}

func DefaultRates() Rates {
	return Rates{
		Technician: map[string]float64{
			"electrician": 200,
			"plumber":     180,
			"carpenter":   220,
			"painter":     150,
			"ac-repair":   300,
		},
		DefaultRate: 250,
	}
}

// TechnicianRate returns the hourly rate for kind. Unknown kinds fall back
// to the default rate.
func (r Rates) TechnicianRate(kind string) float64 {
	if rate, ok := r.Technician[strings.ToLower(strings.TrimSpace(kind))]; ok {
		return rate
	}
	return r.DefaultRate
}
