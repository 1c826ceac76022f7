package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAgencyFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadAgencyConfigs(t *testing.T) {
	dir := t.TempDir()

	writeAgencyFile(t, dir, "10-gruno.yaml", `
id: gruno
name: Gruno Verhuur
handler: links
base_url: https://www.grunoverhuur.nl
list_path: /woningaanbod/huur/groningen
price_min: 100
price_max: 5000
synthetic:
  count: 15
  price_min: 700
  price_max: 1800
  size_min: 25
  size_max: 110
  rooms_min: 1
  rooms_max: 4
  types: [Appartement, Studio]
`)
	writeAgencyFile(t, dir, "20-nova.yaml", `
id: nova
name: Nova Vastgoed
handler: wordpress
base_url: https://www.novavastgoed.com
list_path: /aanbod/
price_min: 100
price_max: 5000
synthetic:
  count: 10
  price_min: 650
  price_max: 1500
  size_min: 20
  size_max: 90
  rooms_min: 1
  rooms_max: 3
`)
	writeAgencyFile(t, dir, "notes.txt", "not a config")

	cfg := &Config{Agencies: make(map[string]*AgencyConfig)}
	if err := cfg.LoadAgencyConfigs(dir); err != nil {
		t.Fatalf("LoadAgencyConfigs: %v", err)
	}

	if len(cfg.Agencies) != 2 {
		t.Fatalf("expected 2 agencies, got %d", len(cfg.Agencies))
	}

	// File name order decides result-set order.
	if len(cfg.AgencyOrder) != 2 || cfg.AgencyOrder[0] != "gruno" || cfg.AgencyOrder[1] != "nova" {
		t.Fatalf("unexpected order: %v", cfg.AgencyOrder)
	}

	gruno := cfg.Agencies["gruno"]
	if gruno.Name != "Gruno Verhuur" || gruno.Handler != "links" {
		t.Fatalf("unexpected gruno config: %+v", gruno)
	}
	if gruno.ListURL() != "https://www.grunoverhuur.nl/woningaanbod/huur/groningen" {
		t.Fatalf("ListURL = %q", gruno.ListURL())
	}
	if gruno.Synthetic.Count != 15 || len(gruno.Synthetic.Types) != 2 {
		t.Fatalf("unexpected synthetic config: %+v", gruno.Synthetic)
	}

	names := cfg.AgencyNames()
	if len(names) != 2 || names[0] != "Gruno Verhuur" || names[1] != "Nova Vastgoed" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestLoadAgencyConfigsMissingID(t *testing.T) {
	dir := t.TempDir()
	writeAgencyFile(t, dir, "bad.yaml", "name: No ID Here\n")

	cfg := &Config{Agencies: make(map[string]*AgencyConfig)}
	if err := cfg.LoadAgencyConfigs(dir); err == nil {
		t.Fatal("expected error for config without id")
	}
}

func TestLoadAgencyConfigsMissingDir(t *testing.T) {
	cfg := &Config{Agencies: make(map[string]*AgencyConfig)}
	if err := cfg.LoadAgencyConfigs(filepath.Join(t.TempDir(), "nope")); err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("MIN_LISTINGS", "")
	t.Setenv("CACHE_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Ingest.MinListings != 40 {
		t.Fatalf("MinListings = %d", cfg.Ingest.MinListings)
	}
	if cfg.Cache.TTL.Minutes() != 30 {
		t.Fatalf("TTL = %s", cfg.Cache.TTL)
	}
}
