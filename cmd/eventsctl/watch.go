package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"events-client/internal/common/errors"
	"events-client/internal/common/logging"
	"events-client/internal/common/validation"
	"events-client/internal/listing"
)

func (c *cli) watch(ctx context.Context, args []string) error {
	fs := c.flags("watch")
	var lf listFlags
	c.bindListFlags(fs, &lf)
	schedule := fs.String("schedule", c.app.Config.WatchSchedule, "cron spec or descriptor such as '@every 1m'")
	if err := c.parse(fs, args); err != nil {
		return err
	}
	if err := validation.Default().Var(*schedule, "required,cron_schedule"); err != nil {
		return errors.ValidationError(fmt.Sprintf("schedule %q is not a valid cron spec", *schedule))
	}
	f, err := lf.filters()
	if err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}

	ctl := c.app.NewLister(listing.WithFilters(f), listing.WithLimit(lf.Limit))
	defer ctl.Close()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	unsubscribe := ctl.Subscribe(func(s listing.State) {
		switch s.Status {
		case listing.StatusReady:
			fmt.Fprintf(c.out, "\n%s\n", c.app.Clock.Now().In(c.app.Location).Format("2006-01-02 15:04:05"))
			renderEvents(c.out, s.Events)
			renderPager(c.out, s.Pagination)
		case listing.StatusError:
			fmt.Fprintf(c.err, "refresh failed: %s\n", s.Message)
		case listing.StatusSessionExpired:
			cancel(s.Err)
		}
	})
	defer unsubscribe()

	sched := cron.New(cron.WithLocation(c.app.Location))
	if _, err := sched.AddFunc(*schedule, ctl.Refresh); err != nil {
		return errors.ValidationError(fmt.Sprintf("schedule %q is not a valid cron spec", *schedule))
	}

	c.app.Logger.Info("Watching events", logging.String("schedule", *schedule))
	ctl.GoToPage(lf.Page)
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	<-ctx.Done()
	if cause := context.Cause(ctx); errors.IsType(cause, errors.ErrTypeSessionExpired) {
		return cause
	}
	return nil
}
