package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CurveDefaults describes the decay curve seeded at startup when the curve
// registry is empty.
type CurveDefaults struct {
	NumPeriods    uint16 `mapstructure:"numPeriods"`
	FormulaBase   uint8  `mapstructure:"formulaBase"`
	PeriodSeconds uint32 `mapstructure:"periodSeconds"`
	MinMultiplier uint8  `mapstructure:"minMultiplier"`
}

// ProtocolConfig carries tunables that operators adjust without redeploying.
type ProtocolConfig struct {
	// RewardBasisPointsCap bounds the reward share a tier may route to the pool.
	RewardBasisPointsCap uint16 `mapstructure:"rewardBasisPointsCap"`
	// DefaultGrantTier receives grants issued to accounts with no subscription.
	DefaultGrantTier uint16        `mapstructure:"defaultGrantTier"`
	DefaultCurve     CurveDefaults `mapstructure:"defaultCurve"`
}

func DefaultProtocolConfig() ProtocolConfig {
	return ProtocolConfig{
		RewardBasisPointsCap: 5000,
		DefaultGrantTier:     1,
		DefaultCurve: CurveDefaults{
			NumPeriods:    6,
			FormulaBase:   2,
			PeriodSeconds: 7 * 24 * 3600,
			MinMultiplier: 0,
		},
	}
}

// ProtocolHolder exposes the current protocol config and hot-reloads it when
// the backing file changes.
type ProtocolHolder struct {
	current atomic.Value // holds ProtocolConfig
}

func NewProtocolHolder() (*ProtocolHolder, error) {
	v := viper.New()

	v.SetConfigName("protocol")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tenura/config")
	v.AddConfigPath("/etc/tenura")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TENURA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultProtocolConfig()
	v.SetDefault("protocol.rewardBasisPointsCap", defaults.RewardBasisPointsCap)
	v.SetDefault("protocol.defaultGrantTier", defaults.DefaultGrantTier)
	v.SetDefault("protocol.defaultCurve", defaults.DefaultCurve)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	holder := &ProtocolHolder{}
	cfg, err := unmarshalProtocol(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(_ fsnotify.Event) {
		next, err := unmarshalProtocol(v)
		if err != nil {
			log.Printf("protocol config reload rejected: %v", err)
			return
		}
		holder.current.Store(next)
	})
	v.WatchConfig()

	return holder, nil
}

// Current returns the active protocol config snapshot.
func (h *ProtocolHolder) Current() ProtocolConfig {
	if cfg, ok := h.current.Load().(ProtocolConfig); ok {
		return cfg
	}
	return DefaultProtocolConfig()
}

// StaticProtocolHolder wraps a fixed config, for tests.
func StaticProtocolHolder(cfg ProtocolConfig) *ProtocolHolder {
	holder := &ProtocolHolder{}
	holder.current.Store(cfg)
	return holder
}

func unmarshalProtocol(v *viper.Viper) (ProtocolConfig, error) {
	var cfg ProtocolConfig
	if err := v.UnmarshalKey("protocol", &cfg); err != nil {
		return ProtocolConfig{}, err
	}
	if cfg.RewardBasisPointsCap == 0 || cfg.RewardBasisPointsCap > 10000 {
		cfg.RewardBasisPointsCap = DefaultProtocolConfig().RewardBasisPointsCap
	}
	if cfg.DefaultGrantTier == 0 {
		cfg.DefaultGrantTier = 1
	}
	return cfg, nil
}
