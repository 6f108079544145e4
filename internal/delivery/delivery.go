// Package delivery decides, per recipient and per trigger path, whether the
// composed digest is pushed. The delivery record in the store is the sole
// throttling mechanism: at most one digest per chat per calendar day.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sancwatch/sancwatch/internal/store"
)

// Replies sent on the interactive path.
const (
	AlreadyDeliveredNotice = "Today's digest has already been delivered to this chat. Try again tomorrow."
	FailureNotice          = "Could not fetch the news right now. Try again later."
)

// Composer produces today's digest text.
type Composer interface {
	ComposeToday(ctx context.Context) (string, error)
}

// Sender pushes a message to one chat.
type Sender interface {
	Send(chatID int64, text string) error
}

// Scheduler serves the interactive and scheduled trigger paths against one
// shared store.
type Scheduler struct {
	store    *store.Store
	composer Composer
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

// New creates a Scheduler.
func New(st *store.Store, composer Composer, loc *time.Location, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:    st,
		composer: composer,
		loc:      loc,
		log:      log.With().Str("component", "delivery").Logger(),
		now:      time.Now,
	}
}

func (s *Scheduler) today() string {
	return store.Day(s.now().In(s.loc))
}

// HandleRequest serves one interactive digest request and returns the reply
// text for the chat. A composition failure yields the failure notice and
// leaves both the cache and the delivery record untouched, so the chat may
// retry later the same day.
func (s *Scheduler) HandleRequest(ctx context.Context, chatID int64) string {
	if err := s.store.RegisterRecipient(chatID); err != nil {
		s.log.Error().Err(err).Int64("chat", chatID).Msg("registering recipient")
		return FailureNotice
	}

	today := s.today()
	last, ok, err := s.store.LastDelivered(chatID)
	if err != nil {
		s.log.Error().Err(err).Int64("chat", chatID).Msg("reading delivery record")
		return FailureNotice
	}
	if ok && last == today {
		return AlreadyDeliveredNotice
	}

	digest, err := s.composer.ComposeToday(ctx)
	if err != nil {
		s.log.Error().Err(err).Int64("chat", chatID).Msg("composing digest")
		return FailureNotice
	}

	if err := s.store.MarkDelivered(chatID, today); err != nil {
		s.log.Error().Err(err).Int64("chat", chatID).Msg("marking delivered")
		return FailureNotice
	}

	return digest
}

// Broadcast runs the scheduled daily push. The digest is composed exactly
// once and shared across recipients; chats already served today are
// skipped. A composition failure aborts the whole run, while a failure to
// push to one chat is logged and does not stop delivery to the rest.
func (s *Scheduler) Broadcast(ctx context.Context, sender Sender) error {
	digest, err := s.composer.ComposeToday(ctx)
	if err != nil {
		return fmt.Errorf("composing broadcast digest: %w", err)
	}

	recipients, err := s.store.ListRecipients()
	if err != nil {
		return fmt.Errorf("listing recipients: %w", err)
	}

	today := s.today()
	delivered := 0
	for _, chatID := range recipients {
		last, ok, err := s.store.LastDelivered(chatID)
		if err != nil {
			s.log.Error().Err(err).Int64("chat", chatID).Msg("reading delivery record")
			continue
		}
		if ok && last == today {
			continue
		}

		// Marked before the push: a chat is charged its daily slot even
		// when the push fails, so a flapping chat cannot be pushed twice
		// in one day by overlapping runs.
		if err := s.store.MarkDelivered(chatID, today); err != nil {
			s.log.Error().Err(err).Int64("chat", chatID).Msg("marking delivered")
			continue
		}
		if err := sender.Send(chatID, digest); err != nil {
			s.log.Error().Err(err).Int64("chat", chatID).Msg("push failed")
			continue
		}
		delivered++
	}

	s.log.Info().Int("recipients", len(recipients)).Int("delivered", delivered).Msg("broadcast complete")
	return nil
}
