// Package config loads and validates the scheduler's global Config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
)

// Config holds the scheduler's mutable-by-owner, immutable-within-request
// configuration.
type Config struct {
	Owner       string `yaml:"owner" json:"owner"`
	FeeCollector string `yaml:"fee_collector" json:"fee_collector"`
	FeeDenom    string `yaml:"fee_denom" json:"fee_denom"`

	MinimumReward uint64 `yaml:"minimum_reward" json:"minimum_reward"`

	CreationFeePercentage     uint64 `yaml:"creation_fee_percentage" json:"creation_fee_percentage"`
	CancellationFeePercentage uint64 `yaml:"cancellation_fee_percentage" json:"cancellation_fee_percentage"`

	TMin uint64 `yaml:"t_min" json:"t_min"`
	TMax uint64 `yaml:"t_max" json:"t_max"`

	AMin uint64 `yaml:"a_min" json:"a_min"`
	AMax uint64 `yaml:"a_max" json:"a_max"`

	QMax uint64 `yaml:"q_max" json:"q_max"`
}

// Validate enforces the construction invariants from It is called
// both at Instantiate and before committing any UpdateConfig request.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return schedulererrors.New(schedulererrors.CodeInvalidCondition, "owner is required")
	}
	if c.FeeCollector == "" {
		return schedulererrors.New(schedulererrors.CodeInvalidCondition, "fee_collector is required")
	}
	if c.FeeDenom == "" {
		return schedulererrors.New(schedulererrors.CodeInvalidCondition, "fee_denom is required")
	}
	if c.AMax < c.AMin {
		return schedulererrors.MaxFeeUnderMinFee()
	}
	if c.TMax < c.TMin {
		return schedulererrors.MaxTimeUnderMinTime()
	}
	if c.MinimumReward < c.AMin {
		return schedulererrors.RewardSmallerThanFee()
	}
	if c.CreationFeePercentage > 100 {
		return schedulererrors.CreationFeeTooHigh()
	}
	if c.CancellationFeePercentage > 100 {
		return schedulererrors.CancellationFeeTooHigh()
	}
	if c.QMax == 0 {
		return schedulererrors.New(schedulererrors.CodeInvalidCondition, "q_max must be > 0")
	}
	return nil
}

// Load reads and validates a Config from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Instantiate validates cfg and returns it, mirroring the boundary's
// Instantiate entry point.
func Instantiate(cfg Config) (*Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Update merges non-zero-value fields of patch into c and re-validates the
// result atomically: on failure c is left untouched.
func (c *Config) Update(patch ConfigPatch) error {
	candidate := *c
	patch.apply(&candidate)
	if err := candidate.Validate(); err != nil {
		return err
	}
	*c = candidate
	return nil
}

// ConfigPatch carries the optional fields of an UpdateConfig request.
type ConfigPatch struct {
	FeeCollector              *string `json:"fee_collector,omitempty"`
	MinimumReward             *uint64 `json:"minimum_reward,omitempty"`
	CreationFeePercentage     *uint64 `json:"creation_fee_percentage,omitempty"`
	CancellationFeePercentage *uint64 `json:"cancellation_fee_percentage,omitempty"`
	TMin                      *uint64 `json:"t_min,omitempty"`
	TMax                      *uint64 `json:"t_max,omitempty"`
	AMin                      *uint64 `json:"a_min,omitempty"`
	AMax                      *uint64 `json:"a_max,omitempty"`
	QMax                      *uint64 `json:"q_max,omitempty"`
}

func (p ConfigPatch) apply(c *Config) {
	if p.FeeCollector != nil {
		c.FeeCollector = *p.FeeCollector
	}
	if p.MinimumReward != nil {
		c.MinimumReward = *p.MinimumReward
	}
	if p.CreationFeePercentage != nil {
		c.CreationFeePercentage = *p.CreationFeePercentage
	}
	if p.CancellationFeePercentage != nil {
		c.CancellationFeePercentage = *p.CancellationFeePercentage
	}
	if p.TMin != nil {
		c.TMin = *p.TMin
	}
	if p.TMax != nil {
		c.TMax = *p.TMax
	}
	if p.AMin != nil {
		c.AMin = *p.AMin
	}
	if p.AMax != nil {
		c.AMax = *p.AMax
	}
	if p.QMax != nil {
		c.QMax = *p.QMax
	}
}

// State is the process-wide persisted counters.
type State struct {
	CurrentJobID uint64 `json:"current_job_id"`
	Q            uint64 `json:"q"`
}

// NewState returns the initial State: current_job_id starts at 1, q at 0.
func NewState() *State {
	return &State{CurrentJobID: 1, Q: 0}
}

// NextJobID returns the next job id and advances the counter. Ids are never
// reused and never decrement.
func (s *State) NextJobID() uint64 {
	id := s.CurrentJobID
	s.CurrentJobID++
	return id
}

// IncQ increments the pending-job counter, kept in lockstep with the Job
// Store's pending partition by the Lifecycle Engine alone.
func (s *State) IncQ() {
	s.Q++
}

// DecQ decrements the pending-job counter.
func (s *State) DecQ() {
	if s.Q > 0 {
		s.Q--
	}
}
