package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresProviderKey(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() error = nil, want missing PROVIDER_API_KEY")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "key")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("IMAGE_POLL_ATTEMPTS", "")
	t.Setenv("VIDEO_POLL_ATTEMPTS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ImagePollAttempts != 40 || cfg.ImagePollInterval != 5*time.Second {
		t.Fatalf("image poll budget = %d x %s", cfg.ImagePollAttempts, cfg.ImagePollInterval)
	}
	if cfg.VideoPollAttempts != 120 {
		t.Fatalf("video poll attempts = %d, want 120", cfg.VideoPollAttempts)
	}
	if cfg.RetryBudget != 1 {
		t.Fatalf("retry budget = %d, want 1", cfg.RetryBudget)
	}
	if cfg.SupabaseBucket != "generated" {
		t.Fatalf("bucket = %q", cfg.SupabaseBucket)
	}
	// The write timeout must cover a full synchronous video generation.
	if cfg.HTTPWriteTimeout <= time.Duration(cfg.VideoPollAttempts)*cfg.VideoPollInterval {
		t.Fatalf("write timeout %s does not cover video poll budget", cfg.HTTPWriteTimeout)
	}
}

func TestLoadConfigSupabaseNeedsServiceKey(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "key")
	t.Setenv("SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() error = nil, want missing SUPABASE_SERVICE_KEY")
	}
}

func TestLoadConfigRejectsNonPositiveBudgets(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "key")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("IMAGE_POLL_ATTEMPTS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() error = nil, want invalid poll budget")
	}
}

func TestLoadConfigRejectsNegativeRetryBudget(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "key")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("GENERATION_RETRY_BUDGET", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() error = nil, want negative retry budget rejected")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PROVIDER_API_KEY", "key")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("IMAGE_POLL_ATTEMPTS", "7")
	t.Setenv("IMAGE_POLL_INTERVAL_SECONDS", "2")
	t.Setenv("GENERATION_RETRY_BUDGET", "0")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ImagePollAttempts != 7 || cfg.ImagePollInterval != 2*time.Second {
		t.Fatalf("image poll budget = %d x %s", cfg.ImagePollAttempts, cfg.ImagePollInterval)
	}
	if cfg.RetryBudget != 0 {
		t.Fatalf("retry budget = %d, want 0", cfg.RetryBudget)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://staging.example.com" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}
