// config_test.go: unit tests for lockfree configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package lockfree

import (
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want Config
	}{
		{
			name: "empty config uses defaults",
			cfg:  Config{},
			want: Config{
				MaxTrieDepth:        DefaultMaxTrieDepth,
				ReclaimQueueWarnLen: DefaultReclaimQueueWarnLen,
				TryForceInterval:    DefaultTryForceInterval,
			},
		},
		{
			name: "depth beyond max falls back to default",
			cfg:  Config{MaxTrieDepth: 99},
			want: Config{
				MaxTrieDepth:        DefaultMaxTrieDepth,
				ReclaimQueueWarnLen: DefaultReclaimQueueWarnLen,
				TryForceInterval:    DefaultTryForceInterval,
			},
		},
		{
			name: "valid values preserved",
			cfg:  Config{MaxTrieDepth: 4, ReclaimQueueWarnLen: 128, TryForceInterval: time.Second},
			want: Config{MaxTrieDepth: 4, ReclaimQueueWarnLen: 128, TryForceInterval: time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if tt.cfg.MaxTrieDepth != tt.want.MaxTrieDepth {
				t.Errorf("MaxTrieDepth = %v, want %v", tt.cfg.MaxTrieDepth, tt.want.MaxTrieDepth)
			}
			if tt.cfg.ReclaimQueueWarnLen != tt.want.ReclaimQueueWarnLen {
				t.Errorf("ReclaimQueueWarnLen = %v, want %v", tt.cfg.ReclaimQueueWarnLen, tt.want.ReclaimQueueWarnLen)
			}
			if tt.cfg.TryForceInterval != tt.want.TryForceInterval {
				t.Errorf("TryForceInterval = %v, want %v", tt.cfg.TryForceInterval, tt.want.TryForceInterval)
			}
			if tt.cfg.Logger == nil || tt.cfg.TimeProvider == nil || tt.cfg.MetricsCollector == nil {
				t.Error("Validate() should populate Logger, TimeProvider and MetricsCollector")
			}
		})
	}
}

func TestConfig_Validate_NegativeWarnLen(t *testing.T) {
	cfg := Config{ReclaimQueueWarnLen: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative ReclaimQueueWarnLen")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxTrieDepth != DefaultMaxTrieDepth {
		t.Errorf("MaxTrieDepth = %v, want %v", cfg.MaxTrieDepth, DefaultMaxTrieDepth)
	}
	if cfg.ReclaimQueueWarnLen != DefaultReclaimQueueWarnLen {
		t.Errorf("ReclaimQueueWarnLen = %v, want %v", cfg.ReclaimQueueWarnLen, DefaultReclaimQueueWarnLen)
	}
	if cfg.TryForceInterval != DefaultTryForceInterval {
		t.Errorf("TryForceInterval = %v, want %v", cfg.TryForceInterval, DefaultTryForceInterval)
	}
}

func TestSystemTimeProvider(t *testing.T) {
	provider := &systemTimeProvider{}

	now1 := provider.Now()
	if now1 <= 0 {
		t.Errorf("expected positive timestamp, got: %v", now1)
	}

	oneYearAgo := time.Now().Add(-365 * 24 * time.Hour).UnixNano()
	tomorrow := time.Now().Add(24 * time.Hour).UnixNano()
	if now1 < oneYearAgo || now1 > tomorrow {
		t.Errorf("timestamp out of reasonable range: %v", now1)
	}

	now2 := provider.Now()
	if now2 < now1 {
		t.Errorf("time should not go backwards: now1=%v, now2=%v", now1, now2)
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NoOpLogger{}

	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")

	logger.Debug("test", "key", "value")
	logger.Info("test", "key", "value")
	logger.Warn("test", "key", "value")
	logger.Error("test", "key", "value")
}

// TestNew_CallsValidate verifies that New applies Config defaults via Validate.
func TestNew_CallsValidate(t *testing.T) {
	m := New[string, int](Config{})
	defer m.Close()

	m.Insert("a", 1)
	if v, found := m.GetValue("a"); !found || v != 1 {
		t.Errorf("GetValue() = %v, %v; want 1, true", v, found)
	}
}
