package config

import (
	"os"
	"path/filepath"
	"testing"

	schedulererrors "github.com/warpscheduler/core/schedulererrors"
)

func validConfig() Config {
	return Config{
		Owner:                     "owner1",
		FeeCollector:              "collector1",
		FeeDenom:                  "u",
		MinimumReward:             100,
		CreationFeePercentage:     10,
		CancellationFeePercentage: 20,
		TMin:                      10,
		TMax:                      100,
		AMin:                      1,
		AMax:                      10,
		QMax:                      5,
	}
}

func TestInstantiate_Valid(t *testing.T) {
	cfg, err := Instantiate(validConfig())
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	if cfg.QMax != 5 {
		t.Errorf("QMax = %d, want 5", cfg.QMax)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr schedulererrors.Code
	}{
		{"a_max under a_min", func(c *Config) { c.AMax = 0 }, schedulererrors.CodeMaxFeeUnderMinFee},
		{"t_max under t_min", func(c *Config) { c.TMax = 5 }, schedulererrors.CodeMaxTimeUnderMinTime},
		{"reward under a_min", func(c *Config) { c.MinimumReward = 0 }, schedulererrors.CodeRewardSmallerThanFee},
		{"creation fee over 100", func(c *Config) { c.CreationFeePercentage = 101 }, schedulererrors.CodeCreationFeeTooHigh},
		{"cancellation fee over 100", func(c *Config) { c.CancellationFeePercentage = 101 }, schedulererrors.CodeCancellationFeeTooHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			se, ok := schedulererrors.As(err)
			if !ok {
				t.Fatalf("error is not a scheduler error: %v", err)
			}
			if se.Code != tt.wantErr {
				t.Errorf("Code = %v, want %v", se.Code, tt.wantErr)
			}
		})
	}
}

func TestConfig_Update_AtomicOnFailure(t *testing.T) {
	cfg := validConfig()
	badFee := uint64(200)
	err := cfg.Update(ConfigPatch{CreationFeePercentage: &badFee})
	if err == nil {
		t.Fatal("Update() error = nil, want error")
	}
	if cfg.CreationFeePercentage != 10 {
		t.Errorf("CreationFeePercentage = %d, want unchanged 10", cfg.CreationFeePercentage)
	}
}

func TestConfig_Update_Applies(t *testing.T) {
	cfg := validConfig()
	newMin := uint64(500)
	if err := cfg.Update(ConfigPatch{MinimumReward: &newMin}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if cfg.MinimumReward != 500 {
		t.Errorf("MinimumReward = %d, want 500", cfg.MinimumReward)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
owner: owner1
fee_collector: collector1
fee_denom: u
minimum_reward: 100
creation_fee_percentage: 10
cancellation_fee_percentage: 20
t_min: 10
t_max: 100
a_min: 1
a_max: 10
q_max: 5
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Owner != "owner1" || cfg.QMax != 5 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestState_NextJobID_Monotonic(t *testing.T) {
	s := NewState()
	first := s.NextJobID()
	second := s.NextJobID()
	if first != 1 || second != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", first, second)
	}
	if s.CurrentJobID != 3 {
		t.Errorf("CurrentJobID = %d, want 3", s.CurrentJobID)
	}
}
