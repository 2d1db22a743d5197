package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "worktrack.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Addr != "127.0.0.1:8787" {
		t.Fatalf("addr %q", c.Server.Addr)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worktrack.yml")
	data := []byte("server:\n  addr: 0.0.0.0:9000\nexport:\n  download_ttl: 1h\ncalendar:\n  confidence_threshold: 0.9\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Addr != "0.0.0.0:9000" {
		t.Fatalf("addr %q", c.Server.Addr)
	}
	if c.Export.Dir != "exports" {
		t.Fatalf("dir %q", c.Export.Dir)
	}
	ttl, err := c.DownloadTTL()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != time.Hour {
		t.Fatalf("ttl %v", ttl)
	}
	if c.Calendar.ConfidenceThreshold != 0.9 {
		t.Fatalf("threshold %v", c.Calendar.ConfidenceThreshold)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"missing addr":       func(c *Config) { c.Server.Addr = "" },
		"missing export dir": func(c *Config) { c.Export.Dir = "" },
		"bad ttl":            func(c *Config) { c.Export.DownloadTTL = "soon" },
		"threshold range":    func(c *Config) { c.Calendar.ConfidenceThreshold = 1.5 },
		"ai without url":     func(c *Config) { c.AI.Enabled = true; c.AI.BaseURL = "" },
	}
	for name, mutate := range cases {
		c := Default()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
