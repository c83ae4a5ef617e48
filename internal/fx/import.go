package fx

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseRates decodes a YAML rate sheet:
//
//	rates:
//	  - {date: 2024-03-01, from: USD, to: INR, rate: 83.1, for_selling: true}
func ParseRates(r io.Reader) ([]Rate, error) {
	var sheet struct {
		Rates []Rate `yaml:"rates"`
	}
	if err := yaml.NewDecoder(r).Decode(&sheet); err != nil {
		return nil, fmt.Errorf("fx: parse rates: %w", err)
	}
	return sheet.Rates, nil
}
