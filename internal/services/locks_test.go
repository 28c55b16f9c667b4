package services

import (
	"sync"
	"testing"
)

func TestUserLocks_SerializeAndDrain(t *testing.T) {
	var (
		l       userLocks
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("u1")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
	if n := l.size(); n != 0 {
		t.Fatalf("lock table size = %d, want 0", n)
	}
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	var l userLocks
	unlockA := l.lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := l.lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}
