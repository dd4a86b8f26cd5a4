package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestNewClamps(t *testing.T) {
	s := New(2024, 1997, 1900)
	if s.Min != 1997 || s.Max != 2024 || s.Year != 1997 || s.Playing {
		t.Errorf("New = %+v", s)
	}
}

func TestTickAdvancesAndHalts(t *testing.T) {
	s := New(2020, 2022, 2020).Start()
	gen := s.Generation

	s, ok := s.Tick(gen)
	if !ok || s.Year != 2021 || !s.Playing {
		t.Fatalf("first tick = %+v ok=%v", s, ok)
	}
	s, ok = s.Tick(gen)
	if !ok || s.Year != 2022 || s.Playing {
		t.Fatalf("reaching max should halt: %+v", s)
	}
	if _, ok := s.Tick(gen); ok {
		t.Error("tick after halt must be ignored")
	}
	if _, ok := s.Tick(s.Generation); ok {
		t.Error("tick while paused must be ignored")
	}
}

func TestStaleTickIgnored(t *testing.T) {
	s := New(2000, 2010, 2000).Start()
	old := s.Generation
	s = s.Start() // re-arm
	if next, ok := s.Tick(old); ok || next != s {
		t.Error("tick from superseded arming advanced the year")
	}
	if next, ok := s.Tick(s.Generation); !ok || next.Year != 2001 {
		t.Errorf("current tick = %+v ok=%v", next, ok)
	}
}

func TestStopIdempotent(t *testing.T) {
	s := New(2000, 2010, 2005)
	if s.Stop() != s {
		t.Error("stopping a paused state changed it")
	}
	p := s.Start().Stop()
	if p.Playing || p.Stop() != p {
		t.Errorf("stop = %+v", p)
	}
}

func TestScrubToClampsAndKeepsPlayState(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		min := rapid.IntRange(1900, 2100).Draw(t, "min")
		max := rapid.IntRange(min, 2100).Draw(t, "max")
		year := rapid.IntRange(1800, 2200).Draw(t, "year")
		s := New(min, max, min)
		if rapid.Bool().Draw(t, "playing") {
			s = s.Start()
		}
		got := s.ScrubTo(year)
		if got.Year < min || got.Year > max {
			t.Fatalf("year %d outside %d..%d", got.Year, min, max)
		}
		if got.Playing != s.Playing || got.Generation != s.Generation {
			t.Fatal("scrub changed play state")
		}
		lo, hi := got.Range()
		if lo != min || hi != got.Year {
			t.Fatalf("range = %d..%d", lo, hi)
		}
	})
}

func TestPlayerRunsToEnd(t *testing.T) {
	var mu sync.Mutex
	var years []int
	p := NewPlayer(New(2000, 2003, 2000),
		WithInterval(time.Millisecond),
		WithOnTick(func(s State) {
			mu.Lock()
			years = append(years, s.Year)
			mu.Unlock()
		}))

	p.Start(context.Background())
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(years) != 3 || years[0] != 2001 || years[2] != 2003 {
		t.Errorf("ticks = %v", years)
	}
	if st := p.State(); st.Playing || st.Year != 2003 {
		t.Errorf("final state = %+v", st)
	}
}

func TestPlayerRestartDoesNotDuplicate(t *testing.T) {
	var mu sync.Mutex
	ticks := 0
	p := NewPlayer(New(0, 1000, 0),
		WithInterval(time.Millisecond),
		WithOnTick(func(State) {
			mu.Lock()
			ticks++
			mu.Unlock()
		}))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p.Start(ctx)
	}
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	p.Stop()
	p.Wait()

	mu.Lock()
	n := ticks
	mu.Unlock()
	if got := p.State().Year; got != n {
		t.Errorf("year advanced %d times but %d ticks delivered", got, n)
	}
	if p.State().Playing {
		t.Error("player still playing after Stop")
	}
}

func TestPlayerStopWhenIdle(t *testing.T) {
	p := NewPlayer(New(2000, 2010, 2000))
	p.Stop()
	p.Wait()
	if s := p.ScrubTo(2050); s.Year != 2010 {
		t.Errorf("scrub = %+v", s)
	}
}

func TestPlayerContextCancel(t *testing.T) {
	p := NewPlayer(New(0, 1_000_000, 0), WithInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("player did not exit on context cancel")
	}
}
