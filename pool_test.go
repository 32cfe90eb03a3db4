package pdfcomply

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

// Compile-time interface check.
var _ interface {
	Acquire() (*Converter, error)
	Release(*Converter)
	Size() int
	Close() error
} = (*ConverterPool)(nil)

func poolOpts() []Option {
	return []Option{withNoTools(), withCollaborators(func(c *Converter) { c.renderer = &fakeRenderer{} })}
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	auto := min(max(runtime.GOMAXPROCS(0)/cpuDivisor, MinPoolSize), MaxPoolSize)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"explicit wins", 4, 4},
		{"sequential", 1, 1},
		{"explicit can exceed max", 16, 16},
		{"zero is automatic", 0, auto},
		{"negative is automatic", -5, auto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ResolvePoolSize(tt.workers); got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestConverterPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(2, poolOpts()...)
	defer pool.Close()

	c1, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	c2, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if c1 == c2 {
		t.Error("expected distinct converters")
	}

	pool.Release(c1)
	c3, err := pool.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if c3 != c1 {
		t.Error("expected the released converter back")
	}
	pool.Release(c2)
	pool.Release(c3)
}

func TestConverterPool_Size(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ in, want int }{{1, 1}, {4, 4}, {0, 1}, {-3, 1}} {
		pool := NewConverterPool(tt.in)
		if got := pool.Size(); got != tt.want {
			t.Errorf("NewConverterPool(%d).Size() = %d, want %d", tt.in, got, tt.want)
		}
		_ = pool.Close()
	}
}

func TestConverterPool_AcquireError(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, append(poolOpts(), WithQualityLevels(10, 20))...)
	defer pool.Close()

	for i := 0; i < 2; i++ {
		if _, err := pool.Acquire(); err == nil {
			t.Fatalf("attempt %d: expected error for invalid options", i)
		}
	}
}

func TestConverterPool_HighContention(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(2, poolOpts()...)
	defer pool.Close()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				conv, err := pool.Acquire()
				if err != nil {
					t.Error(err)
					return
				}
				time.Sleep(time.Duration(j%3) * time.Millisecond)
				pool.Release(conv)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(30 * time.Second)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		t.Fatal("high contention test timed out - possible deadlock")
	}
}

func TestConverterPool_CloseTwice(t *testing.T) {
	t.Parallel()

	pool := NewConverterPool(1, poolOpts()...)
	conv, err := pool.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	pool.Release(conv) // no-op after close
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
