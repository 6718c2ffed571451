// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskora/taskora/internal/platform/config"
)

func TestConfig_AllowsOrigin(t *testing.T) {
	cfg := &config.Config{ExtraOrigins: "https://staging.example.com, http://localhost:3000"}

	testCases := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "app_domain", origin: "https://taskora.app", allowed: true},
		{name: "app_subdomain", origin: "https://app.taskora.app", allowed: true},
		{name: "app_domain_with_port", origin: "https://taskora.app:8443", allowed: true},
		{name: "lookalike_domain", origin: "https://eviltaskora.app", allowed: false},
		{name: "unrelated_domain", origin: "https://example.com", allowed: false},
		{name: "extra_origin_exact", origin: "https://staging.example.com", allowed: true},
		{name: "extra_origin_with_spaces", origin: "http://localhost:3000", allowed: true},
		{name: "extra_origin_subpath_mismatch", origin: "https://staging.example.com.evil.com", allowed: false},
		{name: "empty_origin", origin: "", allowed: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.allowed, cfg.AllowsOrigin(testCase.origin))
		})
	}
}
