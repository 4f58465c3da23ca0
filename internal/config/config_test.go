package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chain.MinterAddress == "" {
		t.Error("expected default minter address")
	}
	if cfg.Chain.TokenAddress != cfg.Chain.MinterAddress {
		t.Error("token address should default to minter address")
	}
	if cfg.Run.OutputPath != "data/stats.json" {
		t.Errorf("output path = %q", cfg.Run.OutputPath)
	}
	if cfg.Run.RetryLimit != 3 {
		t.Errorf("retry limit = %d, want 3", cfg.Run.RetryLimit)
	}
	if cfg.TimeoutBudget() != 120*time.Second {
		t.Errorf("timeout budget = %s, want 2m", cfg.TimeoutBudget())
	}
	if cfg.CallTimeout() != 10*time.Second {
		t.Errorf("call timeout = %s, want 10s", cfg.CallTimeout())
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
chain:
  rpc_url: https://file.example/rpc
run:
  output_path: file/stats.json
  retry_limit: 5
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RPC_URL", "https://env.example/rpc")
	t.Setenv("OUTPUT_PATH", "env/stats.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chain.RPCURL != "https://env.example/rpc" {
		t.Errorf("env override lost: rpc_url = %q", cfg.Chain.RPCURL)
	}
	if cfg.Run.OutputPath != "env/stats.json" {
		t.Errorf("env override lost: output_path = %q", cfg.Run.OutputPath)
	}
	if cfg.Run.RetryLimit != 5 {
		t.Errorf("file value lost: retry_limit = %d", cfg.Run.RetryLimit)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure without rpc_url")
	}
	cfg.Chain.RPCURL = "https://rpc.example"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation failure: %v", err)
	}
}
