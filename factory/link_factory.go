package factory

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/opd-ai/remoteiq/interfaces"
	simnet "github.com/opd-ai/remoteiq/testing"
	"github.com/sirupsen/logrus"
)

// Environment variable names read by NewLinkFactory.
const (
	EnvSimulation = "REMOTEIQ_LINK_SIMULATION"
	EnvDrop       = "REMOTEIQ_LINK_DROP"
	EnvDuplicate  = "REMOTEIQ_LINK_DUPLICATE"
	EnvReorder    = "REMOTEIQ_LINK_REORDER"
	EnvSeed       = "REMOTEIQ_LINK_SEED"
)

// MaxReorderWindow bounds REMOTEIQ_LINK_REORDER.
const MaxReorderWindow = 4096

// LinkFactory creates datagram senders according to a link configuration.
// It is safe for concurrent use.
type LinkFactory struct {
	mu     sync.RWMutex
	config interfaces.LinkConfig
}

// NewLinkFactory creates a factory from base, overridden by the environment.
func NewLinkFactory(base interfaces.LinkConfig) *LinkFactory {
	cfg := base
	applyEnvironmentOverrides(&cfg, os.Getenv)

	logrus.WithFields(logrus.Fields{
		"function":       "NewLinkFactory",
		"use_simulation": cfg.UseSimulation,
		"drop_rate":      cfg.DropRate,
		"duplicate_rate": cfg.DuplicateRate,
		"reorder_window": cfg.ReorderWindow,
		"seed":           cfg.Seed,
	}).Info("Created link factory")

	return &LinkFactory{config: cfg}
}

// applyEnvironmentOverrides updates cfg from the REMOTEIQ_LINK_* variables.
// Turning on an impairment turns on the simulator unless
// REMOTEIQ_LINK_SIMULATION says otherwise.
func applyEnvironmentOverrides(cfg *interfaces.LinkConfig, getenv func(string) string) {
	parseRate(getenv, EnvDrop, &cfg.DropRate)
	parseRate(getenv, EnvDuplicate, &cfg.DuplicateRate)
	parseInt(getenv, EnvReorder, 0, MaxReorderWindow, &cfg.ReorderWindow)
	if v := getenv(EnvSeed); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err != nil {
			warnEnv(EnvSeed, v, err)
		} else {
			cfg.Seed = seed
		}
	}

	if cfg.Impaired() {
		cfg.UseSimulation = true
	}
	if v := getenv(EnvSimulation); v != "" {
		if useSim, err := strconv.ParseBool(v); err != nil {
			warnEnv(EnvSimulation, v, err)
		} else {
			cfg.UseSimulation = useSim
		}
	}
}

func parseRate(getenv func(string) string, name string, dst *float64) {
	v := getenv(name)
	if v == "" {
		return
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err == nil && (rate < 0 || rate > 1) {
		err = interfaces.ErrInvalidRate
	}
	if err != nil {
		warnEnv(name, v, err)
		return
	}
	*dst = rate
}

func parseInt(getenv func(string) string, name string, lo, hi int, dst *int) {
	v := getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err == nil && (n < lo || n > hi) {
		err = fmt.Errorf("value %d not in [%d, %d]", n, lo, hi)
	}
	if err != nil {
		warnEnv(name, v, err)
		return
	}
	*dst = n
}

func warnEnv(name, value string, err error) {
	logrus.WithFields(logrus.Fields{
		"function": "applyEnvironmentOverrides",
		"env_var":  name,
		"value":    value,
		"error":    err.Error(),
	}).Warn("Ignoring invalid environment override")
}

// Config returns a copy of the effective configuration.
func (f *LinkFactory) Config() interfaces.LinkConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.config
}

// CreateLink wraps next in a simulated link when simulation is enabled and
// returns next unchanged otherwise.
func (f *LinkFactory) CreateLink(next interfaces.IDatagramSender) (interfaces.IDatagramSender, error) {
	return f.CreateLinkWithConfig(next, nil)
}

// CreateLinkWithConfig is CreateLink with an explicit configuration; nil
// selects the factory configuration.
func (f *LinkFactory) CreateLinkWithConfig(next interfaces.IDatagramSender, cfg *interfaces.LinkConfig) (interfaces.IDatagramSender, error) {
	if next == nil {
		return nil, fmt.Errorf("next sender cannot be nil")
	}
	if cfg == nil {
		c := f.Config()
		cfg = &c
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid link config: %w", err)
	}

	if !cfg.UseSimulation {
		logrus.WithFields(logrus.Fields{
			"function": "LinkFactory.CreateLinkWithConfig",
		}).Debug("Using direct link")
		return next, nil
	}

	link, err := simnet.NewSimulatedLink(cfg, next)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function":       "LinkFactory.CreateLinkWithConfig",
		"drop_rate":      cfg.DropRate,
		"duplicate_rate": cfg.DuplicateRate,
		"reorder_window": cfg.ReorderWindow,
	}).Info("Using simulated link")
	return link, nil
}

// UpdateConfig replaces the factory configuration after validating it.
func (f *LinkFactory) UpdateConfig(cfg interfaces.LinkConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid link config: %w", err)
	}
	f.mu.Lock()
	f.config = cfg
	f.mu.Unlock()
	return nil
}
