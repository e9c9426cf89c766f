package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/coloriage/pkg/errors"
)

func TestSchedulerDeliversOnlyNewest(t *testing.T) {
	var (
		mu        sync.Mutex
		delivered []string
	)
	s := NewScheduler(quietRunner(nil), 20*time.Millisecond, func(tk *Ticket) {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, tk.ID)
	})
	defer s.Close()

	ctx := context.Background()
	img := twoTone(8, 4)
	first := s.Submit(ctx, img, Options{Columns: 8, Colors: 2})
	second := s.Submit(ctx, img, Options{Columns: 8, Colors: 3})
	last := s.Submit(ctx, img, Options{Columns: 8, Annotate: AnnotateValue})

	for i, tk := range []*Ticket{first, second} {
		_, err := tk.Result()
		if !errors.Is(err, errors.ErrCodeSuperseded) {
			t.Errorf("ticket %d: err = %v, want SUPERSEDED", i, err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := last.Wait(waitCtx)
	if err != nil {
		t.Fatalf("newest ticket failed: %v", err)
	}
	if res.Regions[0].Text != "2" {
		t.Errorf("newest options should apply, got text %q", res.Regions[0].Text)
	}

	s.Close() // waits for the delivery callback
	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 || delivered[0] != last.ID {
		t.Errorf("delivered = %v, want only %s", delivered, last.ID)
	}
}

func TestSchedulerDebounces(t *testing.T) {
	s := NewScheduler(quietRunner(nil), 50*time.Millisecond, nil)
	defer s.Close()

	start := time.Now()
	tk := s.Submit(context.Background(), twoTone(8, 4), Options{Columns: 8})
	if _, err := tk.Result(); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("run started after %v, want at least the debounce delay", elapsed)
	}
}

func TestSchedulerClose(t *testing.T) {
	s := NewScheduler(quietRunner(nil), time.Hour, nil)
	tk := s.Submit(context.Background(), twoTone(8, 4), Options{Columns: 8})
	s.Close()

	if _, err := tk.Result(); !errors.Is(err, errors.ErrCodeSuperseded) {
		t.Errorf("pending ticket after Close: err = %v, want SUPERSEDED", err)
	}
	after := s.Submit(context.Background(), twoTone(8, 4), Options{Columns: 8})
	if _, err := after.Result(); !errors.Is(err, errors.ErrCodeSuperseded) {
		t.Errorf("submit after Close: err = %v, want SUPERSEDED", err)
	}
}

func TestNewSchedulerDefaultDelay(t *testing.T) {
	s := NewScheduler(quietRunner(nil), 0, nil)
	if s.delay != DefaultDebounce {
		t.Errorf("delay = %v, want %v", s.delay, DefaultDebounce)
	}
}
