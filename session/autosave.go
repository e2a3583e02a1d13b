package session

import (
	"time"

	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/model"
)

// Saver funnels draft snapshots into a single persistence goroutine.
// Event-driven saves and the interval timer both publish into one
// latest-snapshot slot, so concurrent triggers collapse to
// last-write-wins instead of racing the store.
type Saver struct {
	persist  func(model.Draft) error
	interval time.Duration

	slot chan model.Draft
	stop chan struct{}
	done chan struct{}
}

func NewSaver(interval time.Duration, persist func(model.Draft) error) *Saver {
	s := &Saver{
		persist:  persist,
		interval: interval,
		slot:     make(chan model.Draft, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Put replaces whatever snapshot is pending. Never blocks.
func (s *Saver) Put(d model.Draft) {
	for {
		select {
		case s.slot <- d:
			return
		default:
		}
		select {
		case <-s.slot:
		default:
		}
	}
}

// Stop flushes any pending snapshot and shuts the consumer down.
// Finalization stops the saver before clearing the draft, so a flushed
// snapshot cannot resurrect a completed attempt.
func (s *Saver) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Saver) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var last *model.Draft
	save := func(d model.Draft) {
		if err := s.persist(d); err != nil {
			// a lost draft only costs resumability
			log.Warnf("session.autosave: %s", err)
		}
	}

	for {
		select {
		case d := <-s.slot:
			last = &d
			save(d)
		case <-ticker.C:
			if last != nil {
				save(*last)
			}
		case <-s.stop:
			select {
			case d := <-s.slot:
				save(d)
			default:
			}
			return
		}
	}
}
