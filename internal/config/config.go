// Package config loads the Rules trading configuration via viper, with an
// explicit allow-list so an unrecognized key in a config file fails startup
// instead of being silently ignored. TURTLE_-prefixed environment variables
// are read only for recognized keys; any other TURTLE_ variable is ignored.
package config

import (
	"fmt"
	"strings"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// FatalConfig is returned when a config file contains a key not present in
// types.AllowedRuleKeys.
type FatalConfig struct {
	UnknownKeys []string
}

func (e *FatalConfig) Error() string {
	return fmt.Sprintf("unrecognized config keys: %s", strings.Join(e.UnknownKeys, ", "))
}

// Load reads Rules from configPath (if non-empty) layered under
// TURTLE_-prefixed environment variables, starting from types.DefaultRules
// so every field always has a value even if configPath is empty. It returns
// *FatalConfig if any loaded key is not in types.AllowedRuleKeys.
func Load(configPath string) (types.Rules, error) {
	v := viper.New()
	v.SetEnvPrefix("TURTLE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, types.DefaultRules())

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return types.Rules{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	if unknown := unknownKeys(v); len(unknown) > 0 {
		return types.Rules{}, &FatalConfig{UnknownKeys: unknown}
	}

	var rules types.Rules
	if err := v.Unmarshal(&rules, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))); err != nil {
		return types.Rules{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return rules, nil
}

func setDefaults(v *viper.Viper, defaults types.Rules) {
	v.SetDefault("risk_factor", defaults.RiskFactor.String())
	v.SetDefault("stop_multiplier", defaults.StopMultiplier.String())
	v.SetDefault("pyramid_interval", defaults.PyramidInterval.String())
	v.SetDefault("max_units_per_market", defaults.MaxUnitsPerMarket)
	v.SetDefault("max_units_correlated", defaults.MaxUnitsCorrelated)
	v.SetDefault("max_total_exposure_mode", string(defaults.MaxTotalExposureMode))
	v.SetDefault("max_total_units", defaults.MaxTotalUnits)
	v.SetDefault("risk_cap_fraction", defaults.RiskCapFraction.String())
	v.SetDefault("atr_period", defaults.ATRPeriod)
	v.SetDefault("atr_method", string(defaults.ATRMethod))
	v.SetDefault("entry_period_s1", defaults.EntryPeriodS1)
	v.SetDefault("entry_period_s2", defaults.EntryPeriodS2)
	v.SetDefault("exit_period_s1", defaults.ExitPeriodS1)
	v.SetDefault("exit_period_s2", defaults.ExitPeriodS2)
	v.SetDefault("drawdown_trigger", defaults.DrawdownTrigger.String())
	v.SetDefault("drawdown_notional_reduction", defaults.DrawdownNotionalReduction.String())
	v.SetDefault("notional_floor", defaults.NotionalFloor.String())
	v.SetDefault("check_interval_seconds", defaults.CheckIntervalSeconds)
	v.SetDefault("days_before_expiry", defaults.DaysBeforeExpiry)
}

// unknownKeys returns every key viper has loaded (from defaults or the config
// file) that is not in types.AllowedRuleKeys. Environment variables only
// override keys viper already knows, so they never add a key here.
func unknownKeys(v *viper.Viper) []string {
	allowed := make(map[string]bool, len(types.AllowedRuleKeys))
	for _, k := range types.AllowedRuleKeys {
		allowed[k] = true
	}

	var unknown []string
	for key := range v.AllSettings() {
		if !allowed[key] {
			unknown = append(unknown, key)
		}
	}
	return unknown
}
