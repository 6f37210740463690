package config

import "testing"

func TestLoadCoordinatorDefaults(t *testing.T) {
	cfg, err := LoadCoordinator()
	if err != nil {
		t.Fatalf("LoadCoordinator() error = %v", err)
	}
	if cfg.ReconnectGraceMS != 30000 {
		t.Fatalf("ReconnectGraceMS = %d, want 30000", cfg.ReconnectGraceMS)
	}
	if cfg.SessionEventLogSize != 500 || cfg.WSSendBuffer != 256 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadRatingOverrides(t *testing.T) {
	t.Setenv("RATING_K_FACTOR", "24")
	t.Setenv("RATING_PERIOD", "monthly")

	cfg, err := LoadRating()
	if err != nil {
		t.Fatalf("LoadRating() error = %v", err)
	}
	if cfg.KFactor != 24 || cfg.Period != "monthly" || cfg.DefaultRating != 1200 {
		t.Fatalf("unexpected rating config: %+v", cfg)
	}
}
