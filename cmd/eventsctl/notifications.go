package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/samber/lo"

	"events-client/internal/models"
)

func (c *cli) notifications(ctx context.Context, args []string) error {
	fs := c.flags("notifications")
	limit := fs.Int("limit", 20, "maximum number of notifications")
	unread := fs.Bool("unread", false, "only show unread notifications")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	list, err := c.app.Fixtures.Notifications(ctx, *limit)
	if err != nil {
		return err
	}
	if *unread {
		list = lo.Filter(list, func(n models.Notification, _ int) bool { return !n.Read })
	}
	if *asJSON {
		return writeJSON(c.out, list)
	}

	count, err := c.app.Fixtures.UnreadCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d unread\n\n", count)
	if len(list) == 0 {
		fmt.Fprintln(c.out, "No notifications.")
		return nil
	}

	now := c.app.Clock.Now()
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, n := range list {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", mark, ago(n.CreatedAt, now), n.Title, n.Message)
	}
	return tw.Flush()
}
