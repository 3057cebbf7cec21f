package service

import (
	"sync"
	"testing"
	"time"
)

func TestSenderClock_MinInterval(t *testing.T) {
	sc := NewSenderClock(50*time.Millisecond, time.Minute)
	defer sc.Stop()

	if !sc.Allow("alice") {
		t.Fatal("first send should be allowed")
	}
	if sc.Allow("alice") {
		t.Error("second send within the interval should be rejected")
	}

	time.Sleep(60 * time.Millisecond)
	if !sc.Allow("alice") {
		t.Error("send after the interval should be allowed")
	}
}

func TestSenderClock_RejectionDoesNotAdvanceClock(t *testing.T) {
	sc := NewSenderClock(80*time.Millisecond, time.Minute)
	defer sc.Stop()

	if !sc.Allow("alice") {
		t.Fatal("first send should be allowed")
	}
	// 连续的被拒发送不应该把窗口往后推
	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		sc.Allow("alice")
	}
	time.Sleep(30 * time.Millisecond)
	if !sc.Allow("alice") {
		t.Error("send should be allowed once the interval since the last accepted send passed")
	}
}

func TestSenderClock_SendersAreIndependent(t *testing.T) {
	sc := NewSenderClock(time.Second, time.Minute)
	defer sc.Stop()

	if !sc.Allow("alice") {
		t.Fatal("alice first send should be allowed")
	}
	if !sc.Allow("bob") {
		t.Error("bob should not be affected by alice's clock")
	}
}

func TestSenderClock_ConcurrentSameSender(t *testing.T) {
	sc := NewSenderClock(time.Second, time.Minute)
	defer sc.Stop()

	const n = 16
	var wg sync.WaitGroup
	allowed := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sc.Allow("alice") {
				allowed <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for range allowed {
		count++
	}
	if count != 1 {
		t.Errorf("exactly one concurrent send should pass, got %d", count)
	}
}
