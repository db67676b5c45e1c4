package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const DefaultDigestCron = "0 9 * * 1-5"

// DigestSender is the job body; ProjectManager satisfies it.
type DigestSender interface {
	SendPendingDigest(ctx context.Context) (int, error)
}

// StartPendingDigest schedules the moderation digest on cronExpr and starts the scheduler.
// The caller owns the returned scheduler and must Shutdown it.
func StartPendingDigest(sender DigestSender, cronExpr string, timeout time.Duration, opts ...gocron.SchedulerOption) (gocron.Scheduler, error) {
	if cronExpr == "" {
		cronExpr = DefaultDigestCron
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			runDigest(sender, timeout)
		}),
		gocron.WithName("pending-digest"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to schedule pending digest %q: %w", cronExpr, err)
	}

	s.Start()
	log.Info().Str("cron", cronExpr).Msg("pending digest scheduled")
	return s, nil
}

func runDigest(sender DigestSender, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sent, err := sender.SendPendingDigest(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pending digest failed")
		return
	}
	log.Info().Int("sent", sent).Msg("pending digest finished")
}
