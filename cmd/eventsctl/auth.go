package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"events-client/internal/models"
)

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", os.Getenv("EVENTS_EMAIL"), "account email (default $EVENTS_EMAIL)")
	password := fs.String("password", os.Getenv("EVENTS_PASSWORD"), "password, prompted for when empty (default $EVENTS_PASSWORD)")
	if err := c.parse(fs, args); err != nil {
		return err
	}

	if *email == "" {
		line, err := c.readLine("Email: ")
		if err != nil {
			return err
		}
		*email = line
	}
	if *password == "" {
		line, err := c.readLine("Password: ")
		if err != nil {
			return err
		}
		*password = line
	}

	if err := c.app.Session.SignIn(ctx, *email, *password); err != nil {
		return err
	}

	user, _ := c.app.Session.User()
	fmt.Fprintf(c.out, "Signed in as %s <%s>\n", user.DisplayName(), user.Email)
	return nil
}

func (c *cli) logout(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("logout"), args); err != nil {
		return err
	}
	c.app.Session.SignOut(ctx)
	fmt.Fprintln(c.out, "Signed out")
	return nil
}

// dashboard is what whoami shows besides the profile
type dashboard struct {
	mine         []models.Event
	reservations []models.Reservation
	unread       int
}

func (c *cli) whoami(ctx context.Context, args []string) error {
	if err := c.parse(c.flags("whoami"), args); err != nil {
		return err
	}
	if err := c.requireSession(ctx); err != nil {
		return err
	}
	user, _ := c.app.Session.User()

	var d dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mine, err := c.app.Events.Mine(gctx)
		d.mine = mine
		return err
	})
	g.Go(func() error {
		res, err := c.app.Events.MyReservations(gctx)
		d.reservations = res
		return err
	})
	g.Go(func() error {
		n, err := c.app.Fixtures.UnreadCount(gctx)
		d.unread = n
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	active := lo.CountBy(d.reservations, func(r models.Reservation) bool { return r.Active() })

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", user.DisplayName())
	fmt.Fprintf(tw, "Email:\t%s\n", user.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", user.Role)
	fmt.Fprintf(tw, "My events:\t%d\n", len(d.mine))
	fmt.Fprintf(tw, "Reservations:\t%d active of %d\n", active, len(d.reservations))
	fmt.Fprintf(tw, "Notifications:\t%d unread\n", d.unread)
	return tw.Flush()
}
