package application

import (
	"context"
	"sync"
	"testing"
)

func TestMutatorSerializesWrites(t *testing.T) {
	m := NewMutator(16)
	m.Start()
	defer m.Stop()

	// 无锁计数器：若并发执行必然竞态丢失计数
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Do(context.Background(), func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	var got int
	if err := m.Do(context.Background(), func() error {
		got = counter
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}

func TestMutatorReturnsFnError(t *testing.T) {
	m := NewMutator(1)
	m.Start()
	defer m.Stop()

	want := context.DeadlineExceeded
	if err := m.Do(context.Background(), func() error { return want }); err != want {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestMutatorStopDrainsQueue(t *testing.T) {
	m := NewMutator(16)
	m.Start()

	ran := false
	done := make(chan struct{})
	go func() {
		_ = m.Do(context.Background(), func() error {
			ran = true
			return nil
		})
		close(done)
	}()
	<-done

	m.Stop()
	if !ran {
		t.Error("queued op should run before stop completes")
	}
	if err := m.Do(context.Background(), func() error { return nil }); err != ErrMutatorStopped {
		t.Errorf("post-stop submit should fail, got %v", err)
	}
}
