package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MinSendInterval 是同一发送方两条被接受消息之间的最小间隔。
const MinSendInterval = 500 * time.Millisecond

type senderLimiter struct {
	lim *rate.Limiter
	ts  time.Time
}

// SenderClock 按规范化发送方维护令牌桶，在准入时同步判定并消耗令牌。
// 判定在持锁状态下完成，同一发送方的并发发送不会同时通过；
// 被拒绝的发送不消耗令牌，等价于"只在接受时推进时钟"。
type SenderClock struct {
	mu       sync.Mutex
	m        map[string]*senderLimiter
	interval time.Duration
	ttl      time.Duration
	stop     chan struct{}
}

func NewSenderClock(interval, ttl time.Duration) *SenderClock {
	sc := &SenderClock{
		m:        make(map[string]*senderLimiter),
		interval: interval,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go sc.gc()
	return sc
}

// Allow 报告发送方此刻是否允许再发一条消息。
func (sc *SenderClock) Allow(sender string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sl, ok := sc.m[sender]
	if !ok {
		sl = &senderLimiter{lim: rate.NewLimiter(rate.Every(sc.interval), 1)}
		sc.m[sender] = sl
	}
	sl.ts = time.Now()
	return sl.lim.Allow()
}

func (sc *SenderClock) gc() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sc.stop:
			return
		case <-ticker.C:
			now := time.Now()
			sc.mu.Lock()
			for k, v := range sc.m {
				if now.Sub(v.ts) > sc.ttl {
					delete(sc.m, k)
				}
			}
			sc.mu.Unlock()
		}
	}
}

// Stop 停止 GC goroutine，用于优雅停服。
func (sc *SenderClock) Stop() {
	select {
	case <-sc.stop:
	default:
		close(sc.stop)
	}
}
