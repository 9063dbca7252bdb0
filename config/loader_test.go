package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadFromEnv_URL(t *testing.T) {
	t.Setenv("GOCHAT_URL", "wss://chat.example.com/ws")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.URL != "wss://chat.example.com/ws" {
		t.Errorf("URL = %q, want %q", cfg.URL, "wss://chat.example.com/ws")
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	tests := []struct {
		key    string
		values []string
		get    func(*Config) bool
	}{
		{"GOCHAT_PLAIN", []string{"1", "true", "yes", "TRUE", "Yes"}, func(c *Config) bool { return c.Plain }},
		{"GOCHAT_STATS", []string{"1", "true"}, func(c *Config) bool { return c.Stats }},
		{"GOCHAT_SSH_AGENT", []string{"yes"}, func(c *Config) bool { return c.UseSSHAgent }},
	}

	for _, tt := range tests {
		for _, v := range tt.values {
			t.Run(tt.key+"="+v, func(t *testing.T) {
				t.Setenv(tt.key, v)
				cfg := &Config{}
				LoadFromEnv(cfg)
				if !tt.get(cfg) {
					t.Errorf("%s=%s should enable the option", tt.key, v)
				}
			})
		}
	}
}

func TestLoadFromEnv_FalseyBooleans(t *testing.T) {
	for _, v := range []string{"0", "false", "no", "off"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("GOCHAT_PLAIN", v)
			cfg := &Config{}
			LoadFromEnv(cfg)
			if cfg.Plain {
				t.Errorf("GOCHAT_PLAIN=%s should not enable plain mode", v)
			}
		})
	}
}

func TestLoadFromEnv_Timeout(t *testing.T) {
	t.Setenv("GOCHAT_TIMEOUT", "10")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
}

func TestLoadFromEnv_SSHFields(t *testing.T) {
	t.Setenv("GOCHAT_TUNNEL", "admin@bastion:2222")
	t.Setenv("GOCHAT_SSH_KEY", "/home/user/.ssh/id_rsa")
	t.Setenv("GOCHAT_SSH_PASSWORD", "true")
	t.Setenv("GOCHAT_SSH_AGENT", "1")
	t.Setenv("GOCHAT_STRICT_HOSTKEY", "yes")
	t.Setenv("GOCHAT_KNOWN_HOSTS", "/custom/known_hosts")

	cfg := &Config{}
	LoadFromEnv(cfg)

	if cfg.TunnelSpec != "admin@bastion:2222" {
		t.Errorf("TunnelSpec = %q", cfg.TunnelSpec)
	}
	if cfg.SSHKeyPath != "/home/user/.ssh/id_rsa" {
		t.Errorf("SSHKeyPath = %q", cfg.SSHKeyPath)
	}
	if !cfg.SSHPassword {
		t.Error("SSHPassword should be true")
	}
	if !cfg.UseSSHAgent {
		t.Error("UseSSHAgent should be true")
	}
	if !cfg.StrictHostKey {
		t.Error("StrictHostKey should be true")
	}
	if cfg.KnownHostsPath != "/custom/known_hosts" {
		t.Errorf("KnownHostsPath = %q", cfg.KnownHostsPath)
	}
}

func TestLoadFromEnv_Output(t *testing.T) {
	t.Setenv("GOCHAT_VERBOSE", "3")
	t.Setenv("GOCHAT_LOG_FILE", "/var/log/gochat.log")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Verbose != 3 {
		t.Errorf("Verbose = %d, want 3", cfg.Verbose)
	}
	if cfg.LogFile != "/var/log/gochat.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestLoadFromEnv_NoOverrideWhenEmpty(t *testing.T) {
	// Ensure no GOCHAT_ vars are set.
	os.Clearenv()

	cfg := &Config{URL: "ws://original:1", Timeout: 7 * time.Second}
	LoadFromEnv(cfg)

	if cfg.URL != "ws://original:1" {
		t.Errorf("URL was overridden: %q", cfg.URL)
	}
	if cfg.Timeout != 7*time.Second {
		t.Errorf("Timeout was overridden: %v", cfg.Timeout)
	}
}

func TestLoadFromEnv_InvalidIntIgnored(t *testing.T) {
	t.Setenv("GOCHAT_TIMEOUT", "not-a-number")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Timeout != 0 {
		t.Errorf("Timeout should be 0 for invalid input, got %v", cfg.Timeout)
	}
}
