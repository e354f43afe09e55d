package authapi

import "testing"

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg := LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, 1<<20)
	}
}

func TestLoadConfigFromEnv_Override(t *testing.T) {
	t.Setenv("FENSTER_AUTH_MAX_BODY_BYTES", "4096")
	cfg := LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 4096 {
		t.Fatalf("MaxBodyBytes = %d, want 4096", cfg.MaxBodyBytes)
	}
}

func TestLoadConfigFromEnv_IgnoresGarbage(t *testing.T) {
	t.Setenv("FENSTER_AUTH_MAX_BODY_BYTES", "-1")
	cfg := LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("MaxBodyBytes = %d, want default", cfg.MaxBodyBytes)
	}
}
