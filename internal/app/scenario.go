package app

import (
	"fmt"
	"os"

	"trove_go/internal/domain"
	"trove_go/internal/validation"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Scenario is one validation described in a YAML file.
type Scenario struct {
	Original      domain.Trove     `yaml:"original"`
	Proposed      domain.Trove     `yaml:"proposed"`
	BorrowingRate decimal.Decimal  `yaml:"borrowing_rate"`
	State         validation.State `yaml:"state"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	// Unset amounts decode as zero; normalise precision
	s.Original = domain.NewTrove(s.Original.Collateral, s.Original.Debt)
	s.Proposed = domain.NewTrove(s.Proposed.Collateral, s.Proposed.Debt)
	return &s, nil
}

// Run validates the scenario and flattens the result.
func (s *Scenario) Run(v *validation.Validator) (validation.Report, error) {
	res, err := v.Validate(s.Original, s.Proposed, s.BorrowingRate, s.State)
	if err != nil {
		return validation.Report{}, err
	}
	return res.Report(), nil
}
