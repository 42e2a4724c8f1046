package treecache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skillforge/treecache/pkg/treecache"
)

type skillNode struct {
	ID       string   `json:"id" msgpack:"id"`
	Name     string   `json:"name" msgpack:"name"`
	Tier     int      `json:"tier" msgpack:"tier"`
	Parents  []string `json:"parents" msgpack:"parents"`
	Unlocked bool     `json:"unlocked" msgpack:"unlocked"`
}

func TestMemoryOnlyRoundTrip(t *testing.T) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		t.Fatalf("NewMemoryOnly failed: %v", err)
	}
	defer manager.Close()

	ctx := context.Background()
	node := skillNode{ID: "fireball", Name: "Fireball", Tier: 2, Parents: []string{"spark"}}

	if err := manager.Set(ctx, "skill:fireball", node); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got skillNode
	if err := manager.Get(ctx, "skill:fireball", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != node.ID || got.Tier != node.Tier || len(got.Parents) != 1 {
		t.Errorf("got %+v, want %+v", got, node)
	}
}

func TestCacheMissIsDetectable(t *testing.T) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		t.Fatalf("NewMemoryOnly failed: %v", err)
	}
	defer manager.Close()

	var got skillNode
	err = manager.Get(context.Background(), "skill:unknown", &got)

	if !treecache.IsCacheMiss(err) {
		t.Errorf("IsCacheMiss(%v) = false, want true", err)
	}
	if !errors.Is(err, treecache.ErrCacheMiss) {
		t.Errorf("errors.Is(%v, ErrCacheMiss) = false, want true", err)
	}
}

func TestPerOperationTTL(t *testing.T) {
	manager, err := treecache.NewFromConfig(treecache.TestConfig())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer manager.Close()

	ctx := context.Background()
	if err := manager.Set(ctx, "ephemeral", "v", treecache.WithTTL(10*time.Millisecond)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got string
	if err := manager.Get(ctx, "ephemeral", &got); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if err := manager.Get(ctx, "ephemeral", &got); !treecache.IsCacheMiss(err) {
		t.Errorf("Get after expiry = %v, want cache miss", err)
	}
}

func TestWithoutDistributedOption(t *testing.T) {
	cfg := treecache.TestConfig()
	cfg.Redis.Enabled = true

	manager, err := treecache.NewFromConfig(cfg, treecache.WithoutDistributed())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer manager.Close()

	if manager.IsDistributedAvailable() {
		t.Error("distributed tier should be disabled")
	}
	if !manager.IsMemoryAvailable() {
		t.Error("memory tier should be available")
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treecache.json")
	content := `{"namespace": "file:", "serialization": {"mode": "structured"}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	manager, err := treecache.NewFromFile(path)
	if err != nil {
		t.Fatalf("NewFromFile failed: %v", err)
	}
	defer manager.Close()

	stats := manager.Monitor().Stats(context.Background())
	if stats.Config.KeyNamespace != "file:" {
		t.Errorf("namespace = %q, want file:", stats.Config.KeyNamespace)
	}
	if stats.Config.SerializationMode != "structured" {
		t.Errorf("mode = %q, want structured", stats.Config.SerializationMode)
	}
}

func TestMonitorThroughFacade(t *testing.T) {
	manager, err := treecache.NewFromConfig(treecache.TestConfig())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	defer manager.Close()

	ctx := context.Background()
	_ = manager.Set(ctx, "a", 1)

	stats := manager.Monitor().Stats(ctx)
	if stats == nil {
		t.Fatal("Stats returned nil")
	}
	if stats.Memory.EntryCount != 1 {
		t.Errorf("entry count = %d, want 1", stats.Memory.EntryCount)
	}
	if stats.Distributed.Enabled {
		t.Error("distributed should be disabled in test config")
	}
}

func TestCloseWithTimeout(t *testing.T) {
	manager, err := treecache.NewFromConfig(treecache.TestConfig())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}

	if err := manager.CloseWithTimeout(time.Second); err != nil {
		t.Errorf("CloseWithTimeout failed: %v", err)
	}

	if err := manager.Set(context.Background(), "k", "v"); !errors.Is(err, treecache.ErrClosed) {
		t.Errorf("Set after close = %v, want ErrClosed", err)
	}
}

func TestParseMode(t *testing.T) {
	mode, err := treecache.ParseMode("full")
	if err != nil || mode != treecache.ModeFull {
		t.Errorf("ParseMode(full) = %v, %v", mode, err)
	}
	if _, err := treecache.ParseMode("yaml"); err == nil {
		t.Error("ParseMode(yaml) should fail")
	}
}
