package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"auth-service/internal/security"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":5501" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":5501")
	}
	if cfg.GRPCAddr != ":5502" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":5502")
	}
	if cfg.JWTIssuer != "auth-service" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "auth-service")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.CookieDomain != "localhost" || cfg.CookieSecure {
		t.Errorf("cookie = %q secure=%v, want localhost insecure", cfg.CookieDomain, cfg.CookieSecure)
	}
	if cfg.AdminFirstName != "System" || cfg.AdminLastName != "Admin" {
		t.Errorf("admin names = %q %q", cfg.AdminFirstName, cfg.AdminLastName)
	}
	if cfg.SessionEventsTopic != "auth-session-events" {
		t.Errorf("SessionEventsTopic = %q", cfg.SessionEventsTopic)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel = %v, want INFO", cfg.SlogLevel())
	}
	if cfg.RefreshSweepInterval != time.Hour {
		t.Errorf("RefreshSweepInterval = %v, want 1h", cfg.RefreshSweepInterval)
	}
}

func TestLoad_SweepInterval(t *testing.T) {
	os.Clearenv()
	os.Setenv("REFRESH_SWEEP_INTERVAL", "15m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshSweepInterval != 15*time.Minute {
		t.Errorf("RefreshSweepInterval = %v, want 15m", cfg.RefreshSweepInterval)
	}

	os.Setenv("REFRESH_SWEEP_INTERVAL", "-1m")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a negative sweep interval")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("COOKIE_SECURE", "true")
	os.Setenv("ADMIN_EMAIL", "root@x.io")
	os.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true")
	}
	if cfg.AdminEmail != "root@x.io" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want DEBUG", cfg.SlogLevel())
	}
}

func TestLoad_BCRYPT_COSTRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
		{"zero", "0", 10, false}, // Should default to 10
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatal("Load should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	os.Clearenv()
	os.Setenv("LOG_LEVEL", "chatty")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject an unknown LOG_LEVEL")
	}
}

func TestLoad_AdminPasswordTooLong(t *testing.T) {
	os.Clearenv()
	os.Setenv("ADMIN_PASSWORD", strings.Repeat("p", security.MaxPasswordBytes+1))

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject an ADMIN_PASSWORD bcrypt cannot hash")
	}

	os.Setenv("ADMIN_PASSWORD", strings.Repeat("p", security.MaxPasswordBytes))
	if _, err := Load(); err != nil {
		t.Fatalf("Load with a 72-byte password: %v", err)
	}
}

func TestLoad_ProductionRequiresSecureCookies(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load should return error when COOKIE_SECURE=false and APP_ENV=production")
	}
	if cfg != nil {
		t.Error("Load should return nil config on error")
	}

	os.Setenv("COOKIE_SECURE", "true")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with secure cookies: %v", err)
	}
}

func TestKafkaBrokersList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092, ,b:9092 ", []string{"a:9092", "b:9092"}},
	}
	for _, tt := range tests {
		got := (&Config{KafkaBrokers: tt.in}).KafkaBrokersList()
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("KafkaBrokersList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	var nilCfg *Config
	if nilCfg.KafkaBrokersList() != nil {
		t.Error("nil config should have no brokers")
	}
}

func writeKeyPair(t *testing.T) (privPath, pubPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	dir := t.TempDir()
	privPath = filepath.Join(dir, "private.pem")
	pubPath = filepath.Join(dir, "public.pem")
	if err := os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644); err != nil {
		t.Fatal(err)
	}
	return privPath, pubPath
}

func TestKeyMaterial_FromFiles(t *testing.T) {
	privPath, pubPath := writeKeyPair(t)
	cfg := &Config{JWTPrivateKey: privPath, JWTPublicKey: pubPath, RefreshTokenSecret: "s3cret"}

	keys, err := cfg.KeyMaterial()
	if err != nil {
		t.Fatalf("KeyMaterial: %v", err)
	}
	if err := keys.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestKeyMaterial_MissingIsNotConfigured(t *testing.T) {
	keys, err := (&Config{}).KeyMaterial()
	if err != nil {
		t.Fatalf("KeyMaterial: %v", err)
	}
	if err := keys.Validate(); !errors.Is(err, security.ErrKeyNotConfigured) {
		t.Fatalf("Validate: want ErrKeyNotConfigured, got %v", err)
	}
}

func TestKeyMaterial_MissingFile(t *testing.T) {
	cfg := &Config{JWTPrivateKey: filepath.Join(t.TempDir(), "nope.pem")}
	if _, err := cfg.KeyMaterial(); err == nil {
		t.Fatal("KeyMaterial should fail for a missing key file")
	}
}

func TestScopePolicy(t *testing.T) {
	if p, err := (&Config{}).ScopePolicy(); err != nil || p != "" {
		t.Fatalf("unset: %q, %v", p, err)
	}
	path := filepath.Join(t.TempDir(), "scope.rego")
	if err := os.WriteFile(path, []byte("package auth.scope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := (&Config{ScopePolicyPath: path}).ScopePolicy()
	if err != nil || p != "package auth.scope\n" {
		t.Fatalf("file: %q, %v", p, err)
	}
	if _, err := (&Config{ScopePolicyPath: path + ".missing"}).ScopePolicy(); err == nil {
		t.Fatal("missing file should error")
	}
}
