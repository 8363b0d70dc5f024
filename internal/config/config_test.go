package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/turtletrader/engine/internal/config"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q): %v", s, err)
	}
	return d
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsWhenNoConfigPath(t *testing.T) {
	rules, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := types.DefaultRules()
	if !rules.RiskFactor.Equal(want.RiskFactor) || rules.MaxUnitsPerMarket != want.MaxUnitsPerMarket {
		t.Errorf("Load(\"\") = %+v, want defaults %+v", rules, want)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	path := writeConfig(t, "risk_factor: \"0.01\"\nmax_units_per_market: 6\n")
	rules, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !rules.RiskFactor.Equal(decimalFromString(t, "0.01")) {
		t.Errorf("RiskFactor = %s, want 0.01", rules.RiskFactor)
	}
	if rules.MaxUnitsPerMarket != 6 {
		t.Errorf("MaxUnitsPerMarket = %d, want 6", rules.MaxUnitsPerMarket)
	}
}

func TestLoad_RejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "not_a_real_rule_key: 1\n")
	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown config key")
	}
	var fatal *config.FatalConfig
	if !asFatalConfig(err, &fatal) {
		t.Fatalf("expected *config.FatalConfig, got %T: %v", err, err)
	}
	if len(fatal.UnknownKeys) != 1 || fatal.UnknownKeys[0] != "not_a_real_rule_key" {
		t.Errorf("UnknownKeys = %v, want [not_a_real_rule_key]", fatal.UnknownKeys)
	}
}

func asFatalConfig(err error, target **config.FatalConfig) bool {
	fc, ok := err.(*config.FatalConfig)
	if ok {
		*target = fc
	}
	return ok
}
