package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"localserve/internal/pricing"
)

type pricingFile struct {
	DefaultRate float64            `yaml:"default_rate"`
	Technician  map[string]float64 `yaml:"technician_rates"`
}

// LoadPricingRates reads the technician rate card from a YAML file. Kinds
// missing from the file keep their built-in rate. An empty path returns the
// built-in card.
func LoadPricingRates(path string) (pricing.Rates, error) {
	rates := pricing.DefaultRates()
	if strings.TrimSpace(path) == "" {
		return rates, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return rates, fmt.Errorf("read pricing file: %w", err)
	}

	var file pricingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return rates, fmt.Errorf("parse pricing file: %w", err)
	}

	if file.DefaultRate < 0 {
		return rates, fmt.Errorf("pricing file: default_rate must not be negative")
	}
	if file.DefaultRate > 0 {
		rates.DefaultRate = file.DefaultRate
	}
	for kind, rate := range file.Technician {
		if rate <= 0 {
			return rates, fmt.Errorf("pricing file: rate for %q must be positive", kind)
		}
		rates.Technician[strings.ToLower(strings.TrimSpace(kind))] = rate
	}
	return rates, nil
}
