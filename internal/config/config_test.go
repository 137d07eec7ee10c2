package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "42", 10, 42},
		{"uses default for empty", "TEST_INT_2", "", 10, 10},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestMustGetEnv_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for missing required env var")
		}
	}()

	os.Unsetenv("NONEXISTENT_REQUIRED_VAR")
	mustGetEnv("NONEXISTENT_REQUIRED_VAR")
}

func TestMustGetEnv_ReturnsValue(t *testing.T) {
	os.Setenv("TEST_REQUIRED", "value123")
	defer os.Unsetenv("TEST_REQUIRED")

	result := mustGetEnv("TEST_REQUIRED")
	if result != "value123" {
		t.Errorf("Expected 'value123', got %q", result)
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal time.Duration
		expected   time.Duration
	}{
		{"parses duration", "TEST_DUR_1", "90s", time.Minute, 90 * time.Second},
		{"uses default for empty", "TEST_DUR_2", "", time.Minute, time.Minute},
		{"uses default for garbage", "TEST_DUR_3", "soon", time.Minute, time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsDurationOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, result)
			}
		})
	}
}

func TestLoadBot_YAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	content := "token: from-file\napi_base_url: http://api.local\napi_timeout: 3s\ndebug: true\nquiz_size: 5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TG_BOT_TOKEN", "")
	t.Setenv("API_BASE_URL", "http://override.local")
	t.Setenv("QUIZ_SIZE", "")

	cfg, err := LoadBot(path)
	if err != nil {
		t.Fatalf("LoadBot: %v", err)
	}
	if cfg.Token != "from-file" {
		t.Errorf("Expected token from file, got %q", cfg.Token)
	}
	if cfg.APIBaseURL != "http://override.local" {
		t.Errorf("Expected env override for base URL, got %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", cfg.APITimeout)
	}
	if !cfg.Debug {
		t.Errorf("Expected debug from file")
	}
	if cfg.QuizSize != 5 {
		t.Errorf("Expected quiz size 5 from file, got %d", cfg.QuizSize)
	}
}

func TestLoadBot_RequiresToken(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "")
	if _, err := LoadBot(""); err == nil {
		t.Error("Expected error without a token")
	}
}

func TestLoadBot_Defaults(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "abc")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("API_TIMEOUT", "")
	t.Setenv("QUIZ_SIZE", "")

	cfg, err := LoadBot("")
	if err != nil {
		t.Fatalf("LoadBot: %v", err)
	}
	if cfg.APIBaseURL != "http://127.0.0.1:5000" || cfg.APITimeout != 5*time.Second || cfg.QuizSize != 10 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadBot_SharesQuizSizeWithServer(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "abc")
	t.Setenv("QUIZ_SIZE", "7")

	cfg, err := LoadBot("")
	if err != nil {
		t.Fatalf("LoadBot: %v", err)
	}
	if cfg.QuizSize != 7 {
		t.Errorf("Expected QUIZ_SIZE to apply to the bot, got %d", cfg.QuizSize)
	}
}
