package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ignite/library-api/internal/domain"
	"github.com/ignite/library-api/internal/mail"
	"github.com/ignite/library-api/internal/pkg/distlock"
)

// DefaultNotifyHour is the hour of day (UTC) the overdue sweep runs when
// no other hour is configured. Midnight matches the original daily schedule.
const DefaultNotifyHour = 0

// OverdueLister is the slice of the loan service the notifier needs.
type OverdueLister interface {
	Overdue(ctx context.Context, graceDays int) ([]domain.Loan, error)
}

// OverdueNotifier emails customers whose loans are overdue. It runs once a
// day at a fixed hour. A failed run is not retried until the next day's
// tick. When a distributed lock is configured, only one replica runs the
// sweep per day.
type OverdueNotifier struct {
	loans     OverdueLister
	sender    mail.Sender
	lock      distlock.DistLock // optional
	graceDays int
	hour      int
	message   string

	// Control
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewOverdueNotifier creates the notifier. message is the fixed text sent to
// every affected customer; graceDays <= 0 uses the loan service default.
func NewOverdueNotifier(loans OverdueLister, sender mail.Sender, graceDays, hour int, message string) *OverdueNotifier {
	if hour < 0 || hour > 23 {
		hour = DefaultNotifyHour
	}
	return &OverdueNotifier{
		loans:     loans,
		sender:    sender,
		graceDays: graceDays,
		hour:      hour,
		message:   message,
	}
}

// SetLock sets the distributed lock guarding the daily sweep. Without a
// lock every replica sends its own batch.
func (n *OverdueNotifier) SetLock(lock distlock.DistLock) { n.lock = lock }

// Start launches the daily loop. Returns an error if already running.
func (n *OverdueNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return fmt.Errorf("overdue notifier already running")
	}
	n.running = true

	ctx, n.cancel = context.WithCancel(ctx)
	n.wg.Add(1)
	go n.loop(ctx)

	log.Printf("[notifier] started (daily at %02d:00 UTC, grace %d days)", n.hour, n.graceDays)
	return nil
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (n *OverdueNotifier) Stop() {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return
	}
	n.running = false
	n.mu.Unlock()

	n.cancel()
	n.wg.Wait()
	log.Printf("[notifier] stopped")
}

func (n *OverdueNotifier) loop(ctx context.Context) {
	defer n.wg.Done()

	for {
		timer := time.NewTimer(time.Until(n.nextRun(time.Now().UTC())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := n.RunOnce(ctx); err != nil {
				log.Printf("[notifier] sweep failed, retrying next tick: %v", err)
			}
		}
	}
}

// nextRun returns the next occurrence of the configured hour after now.
func (n *OverdueNotifier) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), n.hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce performs a single overdue sweep: fetch overdue loans, collect one
// email per loan (duplicates kept on purpose, one notice per loan), send
// the batch. Zero recipients skips the send entirely.
func (n *OverdueNotifier) RunOnce(ctx context.Context) error {
	if n.lock != nil {
		acquired, err := n.lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire notifier lock: %w", err)
		}
		if !acquired {
			log.Printf("[notifier] another replica holds the lock, skipping sweep")
			return nil
		}
		defer func() {
			// A stuck lock suppresses the next sweep, so a failed release
			// must at least show up in the logs.
			if err := n.lock.Release(ctx); err != nil {
				log.Printf("[notifier] release lock: %v", err)
			}
		}()
	}

	overdue, err := n.loans.Overdue(ctx, n.graceDays)
	if err != nil {
		return fmt.Errorf("list overdue loans: %w", err)
	}

	recipients := make([]string, 0, len(overdue))
	for _, l := range overdue {
		recipients = append(recipients, l.CustomerEmail)
	}

	if len(recipients) == 0 {
		log.Printf("[notifier] no overdue loans today")
		return nil
	}

	if err := n.sender.Send(ctx, n.message, recipients); err != nil {
		return fmt.Errorf("send overdue notice: %w", err)
	}

	log.Printf("[notifier] notified %d overdue loans", len(recipients))
	return nil
}
