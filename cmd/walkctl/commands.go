package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"furamora/internal/app"
	"furamora/internal/booking"
	"furamora/internal/identity"
	"furamora/internal/livelocation"
	"furamora/internal/session"
	"furamora/models"
)

const usage = `usage: walkctl <command> [flags]

commands:
  register        -name -email -password -role owner|walker
  login           -email -password -role owner|walker|admin
  logout
  whoami
  owner-profile   -name -phone
  walker-profile  -name [-availability] [-bio]
  add-pet         -name -type [-notes]
  book            -date -time [-service]
  accept|decline|complete -id BOOKING_ID
  report          -text
  live            start [-lat -lng] | stop | status
  dashboard       owner [-max-km] | walker | admin [-role] [-status]`

// errUsage is returned for unknown commands and bad flags.
var errUsage = errors.New(usage)

// CLI runs one command against the core with a store-backed session.
type CLI struct {
	Core    *app.Core
	Session session.Holder
	Out     io.Writer
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return c.register(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "logout":
		if err := c.Core.Identity.Logout(ctx, c.Session); err != nil {
			return err
		}
		return c.print(map[string]string{"destination": string(identity.DestinationLogin)})
	case "whoami":
		me, err := c.Core.Identity.RequireRole(ctx, c.Session, "")
		if err != nil {
			return err
		}
		return c.print(me.Public())
	case "owner-profile":
		return c.ownerProfile(ctx, rest)
	case "walker-profile":
		return c.walkerProfile(ctx, rest)
	case "add-pet":
		return c.addPet(ctx, rest)
	case "book":
		return c.book(ctx, rest)
	case "accept", "decline", "complete":
		return c.transition(ctx, cmd, rest)
	case "report":
		return c.report(ctx, rest)
	case "live":
		return c.live(ctx, rest)
	case "dashboard":
		return c.dashboard(ctx, rest)
	case "help", "-h", "--help":
		_, err := fmt.Fprintln(c.Out, usage)
		return err
	}
	return errUsage
}

func (c *CLI) print(v any) error {
	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %v\n%w", fs.Name(), err, errUsage)
	}
	return nil
}

func (c *CLI) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	var in identity.RegisterInput
	fs.StringVar(&in.Name, "name", "", "display name")
	fs.StringVar(&in.Email, "email", "", "email")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.Role, "role", "", "owner or walker")
	if err := parse(fs, args); err != nil {
		return err
	}
	u, err := c.Core.Identity.Register(ctx, c.Session, in)
	if err != nil {
		return err
	}
	return c.print(map[string]any{"user": u.Public(), "destination": identity.DestinationFor(u.Role)})
}

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	role := fs.String("role", "", "owner, walker or admin")
	if err := parse(fs, args); err != nil {
		return err
	}
	u, dest, err := c.Core.Identity.Login(ctx, c.Session, *email, *password, *role)
	if err != nil {
		return err
	}
	return c.print(map[string]any{"user": u.Public(), "destination": dest})
}

func (c *CLI) ownerProfile(ctx context.Context, args []string) error {
	fs := newFlags("owner-profile")
	name := fs.String("name", "", "display name")
	phone := fs.String("phone", "", "phone number")
	if err := parse(fs, args); err != nil {
		return err
	}
	u, err := c.Core.Identity.SaveOwnerProfile(ctx, c.Session, *name, *phone)
	if err != nil {
		return err
	}
	return c.print(u.Public())
}

func (c *CLI) walkerProfile(ctx context.Context, args []string) error {
	fs := newFlags("walker-profile")
	name := fs.String("name", "", "display name")
	availability := fs.String("availability", "", "free text availability")
	bio := fs.String("bio", "", "short bio")
	if err := parse(fs, args); err != nil {
		return err
	}
	u, err := c.Core.Identity.SaveWalkerProfile(ctx, c.Session, *name, *availability, *bio)
	if err != nil {
		return err
	}
	return c.print(u.Public())
}

func (c *CLI) addPet(ctx context.Context, args []string) error {
	fs := newFlags("add-pet")
	var in identity.PetInput
	fs.StringVar(&in.Name, "name", "", "pet name")
	fs.StringVar(&in.Type, "type", "", "pet type")
	fs.StringVar(&in.Notes, "notes", "", "notes for the walker")
	if err := parse(fs, args); err != nil {
		return err
	}
	pet, err := c.Core.Identity.AddPet(ctx, c.Session, in)
	if err != nil {
		return err
	}
	return c.print(pet)
}

func (c *CLI) book(ctx context.Context, args []string) error {
	fs := newFlags("book")
	var in booking.CreateInput
	fs.StringVar(&in.Service, "service", "", "service, default "+models.DefaultService)
	fs.StringVar(&in.Date, "date", "", "YYYY-MM-DD")
	fs.StringVar(&in.Time, "time", "", "HH:MM")
	if err := parse(fs, args); err != nil {
		return err
	}
	me, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleOwner)
	if err != nil {
		return err
	}
	b, err := c.Core.Bookings.Create(ctx, *me, in)
	if err != nil {
		return err
	}
	return c.print(b)
}

func (c *CLI) transition(ctx context.Context, cmd string, args []string) error {
	fs := newFlags(cmd)
	id := fs.String("id", "", "booking id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%s: -id is required\n%w", cmd, errUsage)
	}
	me, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleWalker)
	if err != nil {
		return err
	}
	var b *models.Booking
	switch cmd {
	case "accept":
		b, err = c.Core.Bookings.Respond(ctx, *id, models.BookingAccepted, *me)
	case "decline":
		b, err = c.Core.Bookings.Respond(ctx, *id, models.BookingDeclined, *me)
	default:
		b, err = c.Core.Bookings.Complete(ctx, *id, *me)
	}
	if err != nil {
		return err
	}
	if b == nil {
		// booking vanished or changed under us; nothing to do
		return c.print(map[string]any{"booking": nil})
	}
	return c.print(b)
}

func (c *CLI) report(ctx context.Context, args []string) error {
	fs := newFlags("report")
	text := fs.String("text", "", "how the walk went")
	if err := parse(fs, args); err != nil {
		return err
	}
	me, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleWalker)
	if err != nil {
		return err
	}
	r, err := c.Core.Reports.Submit(ctx, *me, *text)
	if err != nil {
		return err
	}
	return c.print(r)
}

func (c *CLI) live(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "start":
		fs := newFlags("live start")
		lat := fs.Float64("lat", livelocation.DemoLat, "latitude")
		lng := fs.Float64("lng", livelocation.DemoLng, "longitude")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		me, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleWalker)
		if err != nil {
			return err
		}
		loc, err := c.Core.Live.Start(ctx, *me, &livelocation.Coords{Lat: *lat, Lng: *lng})
		if err != nil {
			return err
		}
		return c.print(loc)
	case "stop":
		me, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleWalker)
		if err != nil {
			return err
		}
		if err := c.Core.Live.Stop(ctx, *me); err != nil {
			return err
		}
		return c.print(livelocation.Status{State: livelocation.StateStopped})
	case "status":
		if _, err := c.Core.Identity.RequireRole(ctx, c.Session, ""); err != nil {
			return err
		}
		st, err := c.Core.Live.Status(ctx)
		if err != nil {
			return err
		}
		return c.print(st)
	}
	return errUsage
}

func (c *CLI) dashboard(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "owner":
		fs := newFlags("dashboard owner")
		maxKm := fs.Float64("max-km", 0, "only walkers within this distance; 0 shows all")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		me, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleOwner)
		if err != nil {
			return err
		}
		var limit *float64
		if *maxKm > 0 {
			limit = maxKm
		}
		d, err := c.Core.Dashboards.Owner(ctx, *me, limit)
		if err != nil {
			return err
		}
		return c.print(d)
	case "walker":
		me, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleWalker)
		if err != nil {
			return err
		}
		d, err := c.Core.Dashboards.Walker(ctx, *me)
		if err != nil {
			return err
		}
		return c.print(d)
	case "admin":
		fs := newFlags("dashboard admin")
		role := fs.String("role", "all", "owner, walker, admin or all")
		status := fs.String("status", "all", "Pending, Accepted, Declined, Completed or all")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		if _, err := c.Core.Identity.RequireRole(ctx, c.Session, models.RoleAdmin); err != nil {
			return err
		}
		d, err := c.Core.Dashboards.Admin(ctx, strings.TrimSpace(*role), strings.TrimSpace(*status))
		if err != nil {
			return err
		}
		return c.print(d)
	}
	return errUsage
}
