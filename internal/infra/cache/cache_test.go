package cache_test

import (
	"testing"
	"time"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
	"github.com/zaikaapp/session-bfa-go/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[[]domain.Area](5 * time.Minute)

	c.Set("areas", []domain.Area{{ID: "area-1", AreaName: "Satellite"}})
	val, ok := c.Get("areas")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if len(val) != 1 || val[0].AreaName != "Satellite" {
		t.Errorf("unexpected cached value %+v", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_SetRefreshesTTL(t *testing.T) {
	c := cache.New[string](80 * time.Millisecond)

	c.Set("key1", "old")
	time.Sleep(50 * time.Millisecond)
	c.Set("key1", "new")
	time.Sleep(50 * time.Millisecond)

	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected re-set entry to still be live")
	}
	if val != "new" {
		t.Errorf("expected refreshed value, got %q", val)
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}
