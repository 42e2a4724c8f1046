package treecache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/skillforge/treecache/pkg/treecache"
)

type BenchNode struct {
	ID       string
	Name     string
	Tier     int
	Unlocked bool
}

func BenchmarkMemoryOnly_Set(b *testing.B) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		b.Fatal(err)
	}
	defer manager.Close()

	ctx := context.Background()
	node := BenchNode{ID: "fireball", Name: "Fireball", Tier: 2, Unlocked: true}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("node:%d", i)
		_ = manager.Set(ctx, key, node)
	}
}

func BenchmarkMemoryOnly_Get(b *testing.B) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		b.Fatal(err)
	}
	defer manager.Close()

	ctx := context.Background()
	node := BenchNode{ID: "fireball", Name: "Fireball", Tier: 2, Unlocked: true}

	// Pre-populate cache
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("node:%d", i)
		_ = manager.Set(ctx, key, node)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("node:%d", i%1000)
		var result BenchNode
		_ = manager.Get(ctx, key, &result)
	}
}

func BenchmarkMemoryOnly_GetOrCompute(b *testing.B) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		b.Fatal(err)
	}
	defer manager.Close()

	ctx := context.Background()
	compute := func(ctx context.Context) (any, error) {
		return BenchNode{ID: "frostbolt", Name: "Frostbolt", Tier: 3}, nil
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("node:%d", i%100) // Reuse keys to test cache hits
		var result BenchNode
		_ = manager.GetOrCompute(ctx, key, &result, compute)
	}
}

func BenchmarkMemoryOnly_SetParallel(b *testing.B) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		b.Fatal(err)
	}
	defer manager.Close()

	ctx := context.Background()
	node := BenchNode{ID: "fireball", Name: "Fireball", Tier: 2, Unlocked: true}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("node:%d", i)
			_ = manager.Set(ctx, key, node)
			i++
		}
	})
}

func BenchmarkMemoryOnly_GetParallel(b *testing.B) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		b.Fatal(err)
	}
	defer manager.Close()

	ctx := context.Background()
	node := BenchNode{ID: "fireball", Name: "Fireball", Tier: 2, Unlocked: true}

	// Pre-populate cache
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("node:%d", i)
		_ = manager.Set(ctx, key, node)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("node:%d", i%1000)
			var result BenchNode
			_ = manager.Get(ctx, key, &result)
			i++
		}
	})
}

func BenchmarkMemoize(b *testing.B) {
	manager, err := treecache.NewMemoryOnly()
	if err != nil {
		b.Fatal(err)
	}
	defer manager.Close()

	ctx := context.Background()
	load := treecache.Memoize(manager, "bench", func(ctx context.Context, id int) (BenchNode, error) {
		return BenchNode{ID: fmt.Sprintf("node-%d", id), Tier: id % 5}, nil
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = load(ctx, i%100)
	}
}
