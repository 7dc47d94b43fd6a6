package configuration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv_LoadsExistingFiles(t *testing.T) {
	tmp := t.TempDir()
	envFile := filepath.Join(tmp, ".env")
	if err := os.WriteFile(envFile, []byte("SAC_TEST_ENV_LOAD=ok\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", envFile, err)
	}

	_ = os.Unsetenv("SAC_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("SAC_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{envFile, filepath.Join(tmp, ".env.local")})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("SAC_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded, got %q", got)
	}
}

func TestLoadEnv_NoFiles(t *testing.T) {
	n, err := LoadEnv([]string{filepath.Join(t.TempDir(), ".env")})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no env files loaded, got %d", n)
	}
}

func TestDatabaseOptions_ConnectionString(t *testing.T) {
	opts := DatabaseOptions{
		Name:     "dashboard_sac",
		Host:     "db.internal",
		Port:     "5433",
		User:     "sac",
		Password: "secret",
	}
	want := "host=db.internal port=5433 user=sac dbname=dashboard_sac password=secret sslmode=disable"
	if got := opts.ConnectionString(); got != want {
		t.Fatalf("unexpected connection string:\n got %q\nwant %q", got, want)
	}
}
