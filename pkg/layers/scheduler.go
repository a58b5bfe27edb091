package layers

import (
	"math/rand"
	"time"
)

type action int

const (
	actionStop action = iota
	actionSkip
	actionReset
)

// Scheduler runs a function every interval (plus jitter) on its own
// goroutine until stopped.
type Scheduler interface {
	Start(bool)
	Stop()
	Skip()
	Reset()
}

type scheduler struct {
	function   func()
	interval   time.Duration
	randomness float32
	actions    chan action
	timer      *time.Timer
	done       chan struct{}
}

func NewScheduler(function func(), interval time.Duration, randomness float32) Scheduler {
	return &scheduler{
		function:   function,
		interval:   interval,
		randomness: randomness,
		actions:    make(chan action, 3),
	}
}

func (s *scheduler) Start(execute bool) {
	s.done = make(chan struct{})
	go s.target(execute)
}

// Stop waits for any pending Skip to finish running the function.
func (s *scheduler) Stop() {
	s.actions <- actionStop
	<-s.done
}

func (s *scheduler) Skip()  { s.actions <- actionSkip }
func (s *scheduler) Reset() { s.actions <- actionReset }

func (s *scheduler) target(execute bool) {
	defer close(s.done)
	if execute {
		s.function()
	}
	s.timer = time.NewTimer(AddRandomness(s.interval, s.randomness))
	for {
		select {
		case <-s.timer.C:
			s.function()
			s.timer.Reset(AddRandomness(s.interval, s.randomness))
		case a := <-s.actions:
			switch a {
			case actionStop:
				s.stopTimer()
				return
			case actionSkip:
				s.function()
				fallthrough
			case actionReset:
				s.stopTimer()
				s.timer.Reset(AddRandomness(s.interval, s.randomness))
			}
		}
	}
}

func (s *scheduler) stopTimer() {
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
}

func AddRandomness(value time.Duration, randomness float32) time.Duration {
	span := int(float32(value) * randomness)
	if span <= 0 {
		return value
	}
	return value + time.Duration(rand.Intn(span))
}

// AutoSave saves l under name on every tick of a started scheduler. Call
// Skip before Stop to flush the latest state.
func (s *Store[T]) AutoSave(name string, l *List[T], interval time.Duration) Scheduler {
	sch := NewScheduler(func() {
		if _, err := s.Save(name, l); err != nil {
			s.logger.WithError(err).WithField("list", name).Error("Autosave failed.")
		}
	}, interval, 0.10)
	sch.Start(false)
	return sch
}
