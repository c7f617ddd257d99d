package config

import "testing"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskchat")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LLM_API_KEY", "key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.LLMTimeoutSeconds != 30 || cfg.ToolTimeoutSeconds != 10 {
		t.Errorf("unexpected timeout defaults: llm=%d tool=%d", cfg.LLMTimeoutSeconds, cfg.ToolTimeoutSeconds)
	}
	if cfg.HistoryWindow != 20 {
		t.Errorf("expected history window 20, got %d", cfg.HistoryWindow)
	}
}

func TestLoadConfig_FailsFastOnMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LLM_API_KEY", "key")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}
