package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Vector: VectorConfig{
			Driver: "redis",
			Addrs:  []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
			APIKey:   "test-key",
		},
		Chunking: ChunkingConfig{Size: 400, Overlap: 100},
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget = BudgetConfig{
		DailyTokenLimit: 1000000,
		Action:          "invalid_action",
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	validActions := []string{"", "warn", "reject"}

	for _, action := range validActions {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingVectorAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Vector.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing vector addrs")
	}
}

func TestValidate_UnknownVectorDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Vector.Driver = "pinecone"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown vector driver")
	}
}

func TestValidate_UnknownEmbeddingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Provider = "cohere"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown embedding provider")
	}
}

func TestValidate_OverlapNotSmallerThanSize(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking = ChunkingConfig{Size: 100, Overlap: 100}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Vector.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Vector.Driver)
	}
	if cfg.Vector.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Vector.ReadinessTimeout)
	}
	if cfg.Vector.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Vector.HNSWM)
	}
	if cfg.Vector.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Vector.HNSWEFConstruct)
	}
	if cfg.SQLite.Path != "data/askdocs.db" {
		t.Errorf("expected default sqlite path, got %q", cfg.SQLite.Path)
	}
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected provider=openai, got %q", cfg.Embedding.Provider)
	}
	if cfg.Chunking.Size != 400 {
		t.Errorf("expected chunk size=400, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap != 100 {
		t.Errorf("expected chunk overlap=100, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Routing.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Routing.TopK)
	}
	if cfg.Model.MaxTokens != 1024 {
		t.Errorf("expected MaxTokens=1024, got %d", cfg.Model.MaxTokens)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Vector:   VectorConfig{Driver: "qdrant", ReadinessTimeout: 15, HNSWM: 16, HNSWEFConstruct: 200},
		SQLite:   SQLiteConfig{Path: "/tmp/other.db"},
		Chunking: ChunkingConfig{Size: 800, Overlap: 200},
		Routing:  RoutingConfig{TopK: 3},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Vector.Driver != "qdrant" {
		t.Errorf("expected driver=qdrant, got %q", cfg.Vector.Driver)
	}
	if cfg.Vector.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Vector.HNSWM)
	}
	if cfg.SQLite.Path != "/tmp/other.db" {
		t.Errorf("expected sqlite path preserved, got %q", cfg.SQLite.Path)
	}
	if cfg.Routing.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Routing.TopK)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ASKDOCS_TEST_KEY", "secret")

	in := []byte("api_key: ${ASKDOCS_TEST_KEY}\nmodel: ${ASKDOCS_TEST_MODEL:-gpt-4o-mini}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: gpt-4o-mini\n"
	if out != want {
		t.Errorf("expanded config:\ngot:  %q\nwant: %q", out, want)
	}
}
