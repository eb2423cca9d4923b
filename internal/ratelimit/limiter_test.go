package ratelimit

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiterSixtyRPM(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)}
	l := New(Policy{FreeTier: {DefaultKey: 60}}, WithClock(clock.Now))

	if d := l.Check("m", FreeTier); d.Limited {
		t.Fatal("first call must not be limited")
	}
	l.Record("m")
	clock.Advance(500 * time.Millisecond)

	d := l.Check("m", FreeTier)
	if !d.Limited || d.Wait != 500*time.Millisecond {
		t.Fatalf("expected limited with 0.5s wait, got %+v", d)
	}

	clock.Advance(500 * time.Millisecond)
	if d := l.Check("m", FreeTier); d.Limited {
		t.Fatalf("expected not limited after a full second, got %+v", d)
	}
}

func TestLimiterZeroRPMIsUnlimited(t *testing.T) {
	l := New(Policy{FreeTier: {DefaultKey: 0}})
	l.Record("m")
	if d := l.Check("m", FreeTier); d.Limited {
		t.Fatal("rpm 0 must not limit")
	}
}

func TestLimiterKeysByModel(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := New(nil, WithClock(clock.Now))
	l.Record("Gemini 1.5 Pro")
	if d := l.Check("Gemini 1.5 Flash", FreeTier); d.Limited {
		t.Fatal("other models must not be affected")
	}
	d := l.Check("Gemini 1.5 Pro", FreeTier)
	if !d.Limited || d.Wait != 30*time.Second {
		t.Fatalf("expected 30s wait at 2 rpm, got %+v", d)
	}
}

func TestReleaseRestoresPreviousStamp(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := New(Policy{FreeTier: {DefaultKey: 60}}, WithClock(clock.Now))

	_, first := l.Claim("m", FreeTier)
	first.Release()
	if d := l.Check("m", FreeTier); d.Limited {
		t.Fatalf("released first claim should leave no stamp, got %+v", d)
	}

	l.Record("m")
	clock.Advance(2 * time.Second)
	d, slot := l.Claim("m", FreeTier)
	if d.Limited || slot == nil {
		t.Fatalf("claim after the interval should pass, got %+v", d)
	}
	slot.Release()
	slot.Release()
	if d := l.Check("m", FreeTier); d.Limited {
		t.Fatalf("release should restore the older stamp, got %+v", d)
	}

	if d, slot := l.Claim("m", FreeTier); d.Limited || slot == nil {
		t.Fatal("claim should pass again")
	}
	if d, slot := l.Claim("m", FreeTier); !d.Limited || slot != nil {
		t.Fatalf("second claim within the interval must be refused, got %+v", d)
	}
	var none *Reservation
	none.Release()
}

func TestReleaseKeepsLaterRecord(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := New(Policy{FreeTier: {DefaultKey: 60}}, WithClock(clock.Now))

	_, slot := l.Claim("m", FreeTier)
	clock.Advance(time.Second)
	l.Record("m")
	slot.Release()
	if d := l.Check("m", FreeTier); !d.Limited {
		t.Fatal("a newer record must survive releasing an older claim")
	}
}

func TestReserveAdmitsOneOfManyRacers(t *testing.T) {
	l := New(Policy{FreeTier: {DefaultKey: 1}})
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if d := l.Reserve("m", FreeTier); !d.Limited {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if admitted != 1 {
		t.Fatalf("expected exactly one admission, got %d", admitted)
	}
}

func TestPolicyRPM(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		tier, label string
		want        int
	}{
		{FreeTier, "Gemini 1.5 Pro", 2},
		{FreeTier, "Some New Model", 15},
		{Tier1, "Gemini 1.5 Flash", 1000},
		{Tier1, "Some New Model", 100},
		{"Enterprise", "Gemini 1.5 Pro", 2},
	}
	for _, tt := range tests {
		if got := p.RPM(tt.tier, tt.label); got != tt.want {
			t.Errorf("RPM(%q, %q) = %d, want %d", tt.tier, tt.label, got, tt.want)
		}
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	body := "Free Tier:\n  default: 5\n  Gemini 2.0 Flash: 30\nTier 1:\n  default: 200\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if p.RPM(FreeTier, "Gemini 2.0 Flash") != 30 || p.RPM(FreeTier, "x") != 5 || p.RPM(Tier1, "x") != 200 {
		t.Fatalf("unexpected policy %+v", p)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("Tier 1:\n  default: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPolicy(bad); err == nil {
		t.Fatal("expected error when the free tier is missing")
	}
}
