package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	pushConnected atomic.Bool
	lastMergeUnix atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetPushConnected(v bool) { s.pushConnected.Store(v) }
func (s *State) PushConnected() bool     { return s.pushConnected.Load() }

func (s *State) MarkMerge() { s.lastMergeUnix.Store(time.Now().Unix()) }
func (s *State) LastMerge() time.Time {
	u := s.lastMergeUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
