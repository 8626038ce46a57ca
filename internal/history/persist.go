package history

import (
	"context"
	"time"
)

const writeTimeout = 5 * time.Second

// scheduleSaveLocked arranges for a snapshot to be written after delay.
// A pending write that is already due sooner is left alone; otherwise it is
// pulled forward. Caller must hold s.mu.
func (s *Store) scheduleSaveLocked(delay time.Duration) {
	if s.closed {
		return
	}
	due := time.Now().Add(delay)
	if s.timer != nil {
		if !s.saveDue.After(due) {
			return
		}
		s.timer.Stop()
	}
	s.saveDue = due
	s.timer = time.AfterFunc(delay, s.saveScheduled)
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// saveScheduled runs from timers and the periodic job.
func (s *Store) saveScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = s.Flush(ctx)
}

// Flush writes the current snapshot synchronously, cancelling any pending
// scheduled write. Errors are logged and returned.
func (s *Store) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.stopTimerLocked()
	snapshot := s.history.Clone()
	s.mu.Unlock()

	data, err := Encode(snapshot)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode chat history")
		return err
	}
	if err := s.record.Save(ctx, s.key, data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist chat history")
		return err
	}
	s.logger.Debug().Int("bytes", len(data)).Int("chats", len(snapshot.Chats)).Msg("chat history persisted")
	return nil
}

// Close stops background writes and performs a final flush. Mutations after
// Close still update memory but are no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	err := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	return err
}
