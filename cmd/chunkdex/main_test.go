package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/chunkdex/internal/config"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
	"github.com/kailas-cloud/chunkdex/internal/provider"
)

// writeConfig puts config/<env>.yaml in a fresh working directory.
func writeConfig(t *testing.T, env, body string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", env+".yaml"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const testConfig = `
database:
  uri: mongodb://localhost:27017
llm:
  provider: ollama
  model: qwen2.5:14b
  base_url: http://localhost:11434/v1
  api_key: ollama
  embedding_model: bge-m3
`

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "chunkdex dev") {
		t.Errorf("expected version line, got %q", out)
	}

	out, err = run(t, "version", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["version"] != "dev" {
		t.Errorf("expected version dev, got %q", info["version"])
	}
}

func TestModelsCmd(t *testing.T) {
	writeConfig(t, "dev", testConfig)

	out, err := run(t, "models", "--env", "dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var info provider.ModelInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := provider.ModelInfo{
		LLMProvider:    "ollama",
		LLMModel:       "qwen2.5:14b",
		LLMBaseURL:     "http://localhost:11434/v1",
		EmbeddingModel: "bge-m3",
	}
	if info != want {
		t.Errorf("expected %+v, got %+v", want, info)
	}
}

func TestValidateCmd(t *testing.T) {
	writeConfig(t, "dev", testConfig)

	out, err := run(t, "validate", "--env", "dev", "--log-level", "error")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "LLM configuration is valid") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestValidateCmd_Invalid(t *testing.T) {
	writeConfig(t, "dev", `
database:
  uri: mongodb://localhost:27017
llm:
  model: qwen2.5:14b
  base_url: not-a-url
`)

	_, err := run(t, "validate", "--env", "dev", "--log-level", "fatal")
	if err == nil || !strings.Contains(err.Error(), "llm configuration is invalid") {
		t.Fatalf("expected invalid configuration error, got %v", err)
	}
}

func TestMissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := run(t, "models", "--env", "dev"); err == nil {
		t.Error("expected error without a config file")
	}
}

func TestNewStore_UnknownDriver(t *testing.T) {
	_, err := newStore(context.Background(), config.DatabaseConfig{Driver: "postgres"})
	if err == nil || !strings.Contains(err.Error(), `unknown database driver "postgres"`) {
		t.Errorf("expected unknown driver error, got %v", err)
	}
}

func TestNewStore_Redis(t *testing.T) {
	// rueidis dials on construction, so an unreachable address fails fast.
	_, err := newStore(context.Background(), config.DatabaseConfig{
		Driver: config.DriverRedis,
		Addrs:  []string{"127.0.0.1:1"},
	})
	if err == nil {
		t.Error("expected dial error")
	}
}

func TestPrintCreationResults(t *testing.T) {
	var buf bytes.Buffer
	printCreationResults(&buf, []index.CreationResult{
		{Name: "vector_index", Kind: index.KindVector, Ack: "vector_index"},
		{Name: "text_index", Kind: index.KindText, AlreadyExisted: true},
	})
	want := "Created vector index: vector_index\ntext index text_index already exists\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestPrintStatuses(t *testing.T) {
	var buf bytes.Buffer
	printStatuses(&buf, nil)
	if got := buf.String(); got != "No search indexes found\n" {
		t.Errorf("unexpected output %q", got)
	}

	buf.Reset()
	printStatuses(&buf, []index.Status{{Name: "vector_index", Status: index.StatusPending}})
	if got := buf.String(); got != "vector_index: PENDING\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestStatusOutput(t *testing.T) {
	out := newStatusOutput("chunks", true, []index.Status{{Name: "text_index", Status: "READY", Queryable: true}})
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"collection":"chunks","converged":true,"indexes":[{"name":"text_index","status":"READY","queryable":true}]}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}
