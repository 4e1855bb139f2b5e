package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testClock is a settable clock for driving entry staleness.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		defaultTTL time.Duration
		setup      func(c *MemoryCache, clock *testClock)
		key        string
		wantValue  any
		wantHit    bool
	}{
		{
			name:       "fresh entry is returned",
			defaultTTL: 5 * time.Minute,
			setup: func(c *MemoryCache, clock *testClock) {
				c.Set(ctx, "courses", "payload")
			},
			key:       "courses",
			wantValue: "payload",
			wantHit:   true,
		},
		{
			name:       "missing key is a miss",
			defaultTTL: 5 * time.Minute,
			setup:      func(c *MemoryCache, clock *testClock) {},
			key:        "nothing",
			wantHit:    false,
		},
		{
			name:       "entry at exactly its TTL is still fresh",
			defaultTTL: 5 * time.Minute,
			setup: func(c *MemoryCache, clock *testClock) {
				c.Set(ctx, "courses", "payload")
				clock.Advance(5 * time.Minute)
			},
			key:       "courses",
			wantValue: "payload",
			wantHit:   true,
		},
		{
			name:       "stale entry is a miss",
			defaultTTL: 5 * time.Minute,
			setup: func(c *MemoryCache, clock *testClock) {
				c.Set(ctx, "courses", "payload")
				clock.Advance(5*time.Minute + time.Second)
			},
			key:     "courses",
			wantHit: false,
		},
		{
			name:       "per-entry TTL override outlives the default",
			defaultTTL: 5 * time.Minute,
			setup: func(c *MemoryCache, clock *testClock) {
				c.Set(ctx, "tree", "payload", 10*time.Minute)
				clock.Advance(7 * time.Minute)
			},
			key:       "tree",
			wantValue: "payload",
			wantHit:   true,
		},
		{
			name:       "overwrite replaces value and resets age",
			defaultTTL: 5 * time.Minute,
			setup: func(c *MemoryCache, clock *testClock) {
				c.Set(ctx, "courses", "old")
				clock.Advance(4 * time.Minute)
				c.Set(ctx, "courses", "new")
				clock.Advance(4 * time.Minute)
			},
			key:       "courses",
			wantValue: "new",
			wantHit:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newTestClock()
			c := NewMemoryCacheWithClock(tt.defaultTTL, clock.Now)
			tt.setup(c, clock)

			got, ok := c.Get(ctx, tt.key)
			if ok != tt.wantHit {
				t.Fatalf("Get(%q) hit = %v, want %v", tt.key, ok, tt.wantHit)
			}
			if tt.wantHit && got != tt.wantValue {
				t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.wantValue)
			}
		})
	}
}

func TestMemoryCache_StaleReadEvicts(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	c := NewMemoryCacheWithClock(time.Minute, clock.Now)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	clock.Advance(2 * time.Minute)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("expected stale entry to miss")
	}
	// The read path drops the stale entry; the untouched one stays until read.
	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d after stale read, want 1", got)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Clear(ctx)

	if got := c.Len(); got != 0 {
		t.Errorf("Len() = %d after Clear, want 0", got)
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expected miss after Clear")
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set(ctx, "shared", j)
				c.Get(ctx, "shared")
			}
		}()
	}
	wg.Wait()

	if _, ok := c.Get(ctx, "shared"); !ok {
		t.Error("expected entry to survive concurrent writes")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		params map[string]any
		want   string
	}{
		{
			name: "no params is the bare operation",
			op:   "core_course_get_courses",
			want: "core_course_get_courses",
		},
		{
			name:   "params are appended sorted",
			op:     "enrollment",
			params: map[string]any{"courseid": 42},
			want:   "enrollment:courseid=42",
		},
		{
			name:   "multiple params sort by key",
			op:     "roles",
			params: map[string]any{"userid": 7, "courseid": 42},
			want:   "roles:courseid=42:userid=7",
		},
		{
			name:   "string values pass through unquoted",
			op:     "user",
			params: map[string]any{"email": "student@ueab.ac.ke"},
			want:   "user:email=student@ueab.ac.ke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.op, tt.params); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_DeterministicAcrossInsertionOrder(t *testing.T) {
	a := Key("op", map[string]any{"x": 1, "y": 2, "z": 3})
	b := Key("op", map[string]any{"z": 3, "y": 2, "x": 1})
	if a != b {
		t.Errorf("keys differ for identical params: %q vs %q", a, b)
	}
}
