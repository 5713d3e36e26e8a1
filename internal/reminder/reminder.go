// internal/reminder/reminder.go
//
// Daily reminder job: users who registered an email address and still have
// unfinished games get one reminder listing their open game keys.
//
// Delivery is a collaborator concern behind the Notifier interface; the
// default notifier only writes a structured log line. The job runs on a
// gocron scheduler, once a day.

package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/iainbx/hangman/internal/store"
)

// Reminder is one user's pending-game notification.
type Reminder struct {
	UserName string
	Email    string
	GameKeys []string // open games, most recent first
}

// Notifier delivers a reminder. Implementations may send mail, push, etc.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier is the default delivery: a structured log line per reminder.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, r Reminder) error {
	log.Info().
		Str("user", r.UserName).
		Str("email", r.Email).
		Strs("games", r.GameKeys).
		Msg("unfinished-games reminder")
	return nil
}

// Pending computes the reminders due right now: every user with an email
// address and at least one game that is not over.
func Pending(ctx context.Context, st store.Store) ([]Reminder, error) {
	users, err := st.UsersWithEmail(ctx)
	if err != nil {
		return nil, fmt.Errorf("users with email: %w", err)
	}
	var out []Reminder
	for _, u := range users {
		keys, err := st.OpenGameKeys(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("open games of %s: %w", u.Name, err)
		}
		if len(keys) == 0 {
			continue
		}
		out = append(out, Reminder{UserName: u.Name, Email: u.Email, GameKeys: keys})
	}
	return out, nil
}

// Run computes and delivers all pending reminders. Delivery failures are
// logged and do not stop the remaining reminders.
func Run(ctx context.Context, st store.Store, n Notifier) {
	pending, err := Pending(ctx, st)
	if err != nil {
		log.Error().Err(err).Msg("compute reminders")
		return
	}
	sent := 0
	for _, r := range pending {
		if err := n.Notify(ctx, r); err != nil {
			log.Warn().Err(err).Str("user", r.UserName).Msg("deliver reminder")
			continue
		}
		sent++
	}
	log.Info().Int("pending", len(pending)).Int("sent", sent).Msg("reminder run finished")
}

// Scheduler owns the recurring reminder job.
type Scheduler struct {
	s *gocron.Scheduler
}

// Start schedules Run once a day at the given time ("15:04", UTC) and starts
// the scheduler asynchronously.
func Start(st store.Store, n Notifier, at string) (*Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(1).Day().At(at).Do(func() {
		Run(context.Background(), st, n)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminder job: %w", err)
	}
	s.StartAsync()
	return &Scheduler{s: s}, nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (sch *Scheduler) Stop() { sch.s.Stop() }
