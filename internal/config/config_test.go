package config

import "testing"

func TestValidate_Driver(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "cassandra"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}

	cfg.Database.Driver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}

	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Database = DatabaseConfig{Driver: "memory"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory driver needs no addrs: %v", err)
	}
}

func TestValidate_Port(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 0},
		Database: DatabaseConfig{Driver: "memory"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing port")
	}

	cfg.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestValidate_NegativeWeights(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
		Search:   SearchConfig{KeywordWeight: -0.5, SemanticWeight: 0.5},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "redis" {
		t.Errorf("default driver: %q", cfg.Database.Driver)
	}
	if cfg.Index.Dimensions != 1536 {
		t.Errorf("default dimensions: %d", cfg.Index.Dimensions)
	}
	if cfg.Index.Probes != 8 {
		t.Errorf("default probes: %d", cfg.Index.Probes)
	}
	if cfg.Search.KeywordWeight != 0.5 || cfg.Search.SemanticWeight != 0.5 {
		t.Errorf("default weights: %f/%f", cfg.Search.KeywordWeight, cfg.Search.SemanticWeight)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Error("HTTP timeout defaults not applied")
	}
}

func TestApplyDefaults_KeepsExplicitWeights(t *testing.T) {
	cfg := Config{Search: SearchConfig{KeywordWeight: 0.2, SemanticWeight: 0.8}}
	cfg.ApplyDefaults()
	if cfg.Search.KeywordWeight != 0.2 || cfg.Search.SemanticWeight != 0.8 {
		t.Errorf("explicit weights overwritten: %f/%f", cfg.Search.KeywordWeight, cfg.Search.SemanticWeight)
	}

	// A deliberate single zero weight survives as long as the pair is
	// not entirely unset.
	cfg = Config{Search: SearchConfig{SemanticWeight: 1.0}}
	cfg.ApplyDefaults()
	if cfg.Search.KeywordWeight != 0 || cfg.Search.SemanticWeight != 1.0 {
		t.Errorf("semantic-only weights overwritten: %f/%f", cfg.Search.KeywordWeight, cfg.Search.SemanticWeight)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MEMBERSEARCH_TEST_PASSWORD", "s3cret")

	in := []byte("password: ${MEMBERSEARCH_TEST_PASSWORD}\naddr: ${MEMBERSEARCH_TEST_MISSING:-localhost:6379}\n")
	out := string(expandEnvVars(in))

	want := "password: s3cret\naddr: localhost:6379\n"
	if out != want {
		t.Errorf("expansion mismatch:\ngot:  %q\nwant: %q", out, want)
	}
}
