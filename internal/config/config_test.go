package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HTTP_LISTEN",
	"SMTP_LISTEN", "SMTP_HOSTNAME", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_MAX_MESSAGE_SIZE",
	"ADMIN_USERNAME", "ADMIN_PASSWORD",
	"STORE_DRIVER", "STORE_DSN",
	"PROVIDER",
	"RESEND_API_KEY", "RESEND_BASE_URL", "RESEND_FROM", "RESEND_TIMEOUT",
	"SES_REGION", "SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY", "SES_SENDER",
	"TLS_CERT_FILE", "TLS_KEY_FILE",
	"METRICS_LISTEN", "LOG_LEVEL",
}

// clearEnv blanks every variable read by applyEnvVars for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range allEnvVars {
		t.Setenv(env, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Listen != ":8080" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":8080")
	}
	if cfg.SMTP.Listen != ":2525" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":2525")
	}
	if cfg.SMTP.Hostname != "localhost" {
		t.Errorf("SMTP.Hostname: got %q, want %q", cfg.SMTP.Hostname, "localhost")
	}
	if cfg.SMTP.MaxMessageSize != 26214400 {
		t.Errorf("SMTP.MaxMessageSize: got %d, want %d", cfg.SMTP.MaxMessageSize, 26214400)
	}
	if cfg.Admin.Username != "" || cfg.Admin.Password != "" {
		t.Errorf("Admin: got %+v, want empty", cfg.Admin)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Errorf("Store.Driver: got %q, want %q", cfg.Store.Driver, DriverSQLite)
	}
	if cfg.Store.DSN != "mailroom.db" {
		t.Errorf("Store.DSN: got %q, want %q", cfg.Store.DSN, "mailroom.db")
	}
	if cfg.Provider != "" {
		t.Errorf("Provider: got %q, want empty", cfg.Provider)
	}
	if cfg.Resend.BaseURL != "https://api.resend.com" {
		t.Errorf("Resend.BaseURL: got %q, want %q", cfg.Resend.BaseURL, "https://api.resend.com")
	}
	if cfg.Resend.From != "onboarding@resend.dev" {
		t.Errorf("Resend.From: got %q, want %q", cfg.Resend.From, "onboarding@resend.dev")
	}
	if cfg.Resend.Timeout != 30*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 30*time.Second)
	}
	if cfg.Metrics.Listen != "" {
		t.Errorf("Metrics.Listen: got %q, want empty", cfg.Metrics.Listen)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_LISTEN", ":9080")
	t.Setenv("SMTP_LISTEN", ":9025")
	t.Setenv("SMTP_HOSTNAME", "mx.example.com")
	t.Setenv("SMTP_USERNAME", "relay")
	t.Setenv("SMTP_PASSWORD", "relaypass")
	t.Setenv("SMTP_MAX_MESSAGE_SIZE", "10485760")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "secret123")
	t.Setenv("STORE_DRIVER", "POSTGRES")
	t.Setenv("STORE_DSN", "postgres://localhost/mailroom")
	t.Setenv("PROVIDER", "Resend")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("RESEND_BASE_URL", "http://localhost:9999")
	t.Setenv("RESEND_FROM", "ops@example.com")
	t.Setenv("RESEND_TIMEOUT", "5s")
	t.Setenv("SES_REGION", "us-east-1")
	t.Setenv("SES_SENDER", "ses@example.com")
	t.Setenv("TLS_CERT_FILE", "/certs/cert.pem")
	t.Setenv("TLS_KEY_FILE", "/certs/key.pem")
	t.Setenv("METRICS_LISTEN", ":9100")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Listen != ":9080" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":9080")
	}
	if cfg.SMTP.Listen != ":9025" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":9025")
	}
	if cfg.SMTP.Hostname != "mx.example.com" {
		t.Errorf("SMTP.Hostname: got %q, want %q", cfg.SMTP.Hostname, "mx.example.com")
	}
	if cfg.SMTP.MaxMessageSize != 10485760 {
		t.Errorf("SMTP.MaxMessageSize: got %d, want %d", cfg.SMTP.MaxMessageSize, 10485760)
	}
	if cfg.Admin.Username != "admin" || cfg.Admin.Password != "secret123" {
		t.Errorf("Admin: got %+v", cfg.Admin)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Errorf("Store.Driver: got %q, want %q", cfg.Store.Driver, DriverPostgres)
	}
	if cfg.Store.DSN != "postgres://localhost/mailroom" {
		t.Errorf("Store.DSN: got %q", cfg.Store.DSN)
	}
	if cfg.Provider != ProviderResend {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, ProviderResend)
	}
	if cfg.Resend.APIKey != "re_123" {
		t.Errorf("Resend.APIKey: got %q, want %q", cfg.Resend.APIKey, "re_123")
	}
	if cfg.Resend.BaseURL != "http://localhost:9999" {
		t.Errorf("Resend.BaseURL: got %q", cfg.Resend.BaseURL)
	}
	if cfg.Resend.From != "ops@example.com" {
		t.Errorf("Resend.From: got %q", cfg.Resend.From)
	}
	if cfg.Resend.Timeout != 5*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 5*time.Second)
	}
	if cfg.SES.Region != "us-east-1" || cfg.SES.Sender != "ses@example.com" {
		t.Errorf("SES: got %+v", cfg.SES)
	}
	if cfg.TLS.CertFile != "/certs/cert.pem" || cfg.TLS.KeyFile != "/certs/key.pem" {
		t.Errorf("TLS: got %+v", cfg.TLS)
	}
	if cfg.Metrics.Listen != ":9100" {
		t.Errorf("Metrics.Listen: got %q, want %q", cfg.Metrics.Listen, ":9100")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMTP_MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("RESEND_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.MaxMessageSize != 26214400 {
		t.Errorf("SMTP.MaxMessageSize: got %d, want %d", cfg.SMTP.MaxMessageSize, 26214400)
	}
	if cfg.Resend.Timeout != 30*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 30*time.Second)
	}
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROVIDER", "pigeon")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown provider, got nil")
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "oracle")

	if _, err := Load(); err == nil {
		t.Error("expected error for unknown store driver, got nil")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
http:
  listen: ":8181"
smtp:
  listen: ":3025"
  username: "yamluser"
  password: "yamlpass"
  max_message_size: 5242880
admin:
  username: "operator"
  password: "hunter2"
store:
  driver: "postgres"
  dsn: "postgres://db/mail"
provider: "ses"
resend:
  api_key: "re_yaml"
  timeout: "10s"
ses:
  region: "eu-west-1"
  sender: "yaml@example.com"
tls:
  cert_file: "/yaml/cert.pem"
  key_file: "/yaml/key.pem"
metrics:
  listen: ":9200"
logging:
  level: "warn"
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Listen != ":8181" {
		t.Errorf("HTTP.Listen: got %q, want %q", cfg.HTTP.Listen, ":8181")
	}
	if cfg.SMTP.Listen != ":3025" {
		t.Errorf("SMTP.Listen: got %q, want %q", cfg.SMTP.Listen, ":3025")
	}
	if cfg.SMTP.MaxMessageSize != 5242880 {
		t.Errorf("SMTP.MaxMessageSize: got %d, want %d", cfg.SMTP.MaxMessageSize, 5242880)
	}
	if cfg.Admin.Username != "operator" || cfg.Admin.Password != "hunter2" {
		t.Errorf("Admin: got %+v", cfg.Admin)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Store.DSN != "postgres://db/mail" {
		t.Errorf("Store: got %+v", cfg.Store)
	}
	if cfg.Provider != ProviderSES {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, ProviderSES)
	}
	if cfg.Resend.Timeout != 10*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 10*time.Second)
	}
	if cfg.Resend.From != "onboarding@resend.dev" {
		t.Errorf("Resend.From: got %q, want default", cfg.Resend.From)
	}
	if cfg.SES.Region != "eu-west-1" {
		t.Errorf("SES.Region: got %q, want %q", cfg.SES.Region, "eu-west-1")
	}
	if cfg.Metrics.Listen != ":9200" {
		t.Errorf("Metrics.Listen: got %q, want %q", cfg.Metrics.Listen, ":9200")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
smtp:
  listen: ":3025"
admin:
  username: "yamladmin"
logging:
  level: "warn"
`)

	t.Setenv("SMTP_LISTEN", ":9025")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Listen != ":9025" {
		t.Errorf("SMTP.Listen: got %q, want %q (env should override YAML)", cfg.SMTP.Listen, ":9025")
	}
	if cfg.Admin.Username != "yamladmin" {
		t.Errorf("Admin.Username: got %q, want %q (empty env should not override YAML)", cfg.Admin.Username, "yamladmin")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level: got %q, want %q (env should override YAML)", cfg.Logging.Level, "error")
	}
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "{{invalid yaml")

	_, err := LoadFromFile(path)
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestAuthEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		expect   bool
	}{
		{name: "both set", username: "user", password: "pass", expect: true},
		{name: "username only", username: "user", password: "", expect: false},
		{name: "password only", username: "", password: "pass", expect: false},
		{name: "neither set", username: "", password: "", expect: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{SMTP: SMTPConfig{Username: tt.username, Password: tt.password}}
			if got := cfg.AuthEnabled(); got != tt.expect {
				t.Errorf("AuthEnabled(): got %v, want %v", got, tt.expect)
			}
			admin := &Config{Admin: AdminConfig{Username: tt.username, Password: tt.password}}
			if got := admin.AdminConfigured(); got != tt.expect {
				t.Errorf("AdminConfigured(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestSESConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ses    SESConfig
		expect bool
	}{
		{name: "region and sender set", ses: SESConfig{Region: "us-east-1", Sender: "ses@example.com"}, expect: true},
		{name: "missing region", ses: SESConfig{Sender: "ses@example.com"}, expect: false},
		{name: "missing sender", ses: SESConfig{Region: "us-east-1"}, expect: false},
		{name: "none set", ses: SESConfig{}, expect: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{SES: tt.ses}
			if got := cfg.SESConfigured(); got != tt.expect {
				t.Errorf("SESConfigured(): got %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestResendConfigured(t *testing.T) {
	t.Parallel()

	if (&Config{}).ResendConfigured() {
		t.Error("ResendConfigured(): got true for empty config")
	}
	if !(&Config{Resend: ResendConfig{APIKey: "re_1"}}).ResendConfigured() {
		t.Error("ResendConfigured(): got false with api key set")
	}
}
