package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
)

// Advisory lock keys, one per job.
const (
	tokenCleanupLock int64 = 7_100_001
	overdueLock      int64 = 7_100_002
)

type locker interface {
	WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error)
}

type tokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

type overdueMarker interface {
	MarkOverdue(ctx context.Context, today time.Time) ([]services.OverdueInvoice, error)
}

type notifier interface {
	Notify(ctx context.Context, recipients []uuid.UUID, kind, subjectType string, subjectID uuid.UUID, data any)
}

type Cron struct {
	cfg      config.CronConfig
	log      zerolog.Logger
	lock     locker
	tokens   tokenCleaner
	invoices overdueMarker
	notify   notifier
	loc      *time.Location
	now      func() time.Time
	c        *cron.Cron
}

func NewCron(cfg config.CronConfig, log zerolog.Logger, lock locker, tokens tokenCleaner, invoices overdueMarker, notify notifier) (*Cron, error) {
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_TZ %q: %w", cfg.TZ, err)
	}

	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{
		cfg:      cfg,
		log:      log,
		lock:     lock,
		tokens:   tokens,
		invoices: invoices,
		notify:   notify,
		loc:      loc,
		now:      time.Now,
		c:        c,
	}

	if _, err := c.AddFunc(cfg.TokenCleanup, cr.cleanupTokens); err != nil {
		return nil, fmt.Errorf("invalid CRON_TOKEN_CLEANUP %q: %w", cfg.TokenCleanup, err)
	}
	if _, err := c.AddFunc(cfg.OverdueInvoices, cr.markOverdue); err != nil {
		return nil, fmt.Errorf("invalid CRON_OVERDUE_INVOICES %q: %w", cfg.OverdueInvoices, err)
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop waits for running jobs to finish or ctx to expire.
func (cr *Cron) Stop(ctx context.Context) {
	select {
	case <-cr.c.Stop().Done():
	case <-ctx.Done():
	}
}

// run executes job under its advisory lock so only one replica does the work.
func (cr *Cron) run(name string, key int64, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), cr.cfg.JobTimeout)
	defer cancel()

	log := cr.log.With().Str("job", name).Logger()
	ran, err := cr.lock.WithAdvisoryLock(ctx, key, job)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("cron: job failed")
	case !ran:
		log.Info().Msg("cron: already running elsewhere")
	}
}

func (cr *Cron) cleanupTokens() {
	cr.run("token_cleanup", tokenCleanupLock, func(ctx context.Context) error {
		n, err := cr.tokens.CleanupExpired(ctx)
		if err != nil {
			return err
		}
		cr.log.Info().Int64("deleted", n).Msg("cron: expired refresh tokens removed")
		return nil
	})
}

func (cr *Cron) markOverdue() {
	cr.run("overdue_invoices", overdueLock, func(ctx context.Context) error {
		n, err := MarkOverdue(ctx, cr.invoices, cr.notify, cr.now().In(cr.loc))
		if err != nil {
			return err
		}
		cr.log.Info().Int("marked", n).Msg("cron: overdue invoices marked")
		return nil
	})
}

// MarkOverdue flags invoices past due on today and notifies each owner. It returns how
// many invoices changed.
func MarkOverdue(ctx context.Context, invoices overdueMarker, notify notifier, today time.Time) (int, error) {
	overdue, err := invoices.MarkOverdue(ctx, today)
	if err != nil {
		return 0, err
	}
	for _, inv := range overdue {
		notify.Notify(ctx, []uuid.UUID{inv.UserID}, models.NotificationInvoiceOverdue, models.SubjectInvoice, inv.ID,
			map[string]string{"invoice_number": inv.InvoiceNumber})
	}
	return len(overdue), nil
}
