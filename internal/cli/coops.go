package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dalemusser/coophub/internal/app/features/cooperatives"
	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/inputval"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func (a *App) coopsCommand() *Command {
	return &Command{
		Name:    "coops",
		Summary: "List, register and approve cooperatives",
		Subcommands: []*Command{
			a.coopsListCommand(),
			a.coopsCreateCommand(),
			a.coopsApproveCommand(),
		},
	}
}

// fail prints err the way the web UI would toast it and returns ErrReported.
func (a *App) fail(err error, fallback string) error {
	a.Log.Debug("api call failed", zap.Error(err))
	a.notifier().Notify(notify.Notification{Kind: notify.Error, Message: apiclient.UserMessage(err, fallback)})
	return ErrReported
}

func (a *App) notifier() notify.Notifier {
	return notify.Writer{W: a.Err}
}

func (a *App) loadBoard(ctx context.Context) (*cooperatives.Board, error) {
	b := cooperatives.NewBoard(a.Session.API())
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), a.Log, "list cooperatives")
	defer cancel()
	if err := b.Load(ctx); err != nil {
		return nil, a.fail(err, "Failed to fetch cooperatives")
	}
	return b, nil
}

func (a *App) coopsListCommand() *Command {
	var q, status string
	return &Command{
		Name:    "list",
		Summary: "List cooperatives, optionally filtered",
		Usage:   "coopctl coops list [--q text] [--status pending|approved|rejected]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
			fs.StringVar(&q, "q", "", "match name or district")
			fs.StringVar(&status, "status", "", "only this status")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if err := a.gate("cooperatives", ""); err != nil {
				return err
			}
			var st models.CooperativeStatus
			if status != "" {
				var ok bool
				if st, ok = models.ParseStatus(status); !ok {
					return fmt.Errorf("unknown status %q", status)
				}
			}

			b, err := a.loadBoard(ctx)
			if err != nil {
				return err
			}
			matches := b.Filter(q, st)
			if len(matches) == 0 {
				if b.Len() == 0 {
					fmt.Fprintln(a.Out, "No cooperatives found. Start by creating your first cooperative.")
				} else {
					fmt.Fprintln(a.Out, "No cooperatives found. Try adjusting your search filters.")
				}
				return nil
			}

			tw := tabwriter.NewWriter(a.Out, 2, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDISTRICT\tSECTOR\tSTATUS\tREG\tMEMBERS")
			for _, c := range matches {
				reg := c.RegNumber()
				if reg == "" {
					reg = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
					c.ID, c.Name, c.District, c.Sector, c.Status, reg, c.MembersCount)
			}
			return tw.Flush()
		},
	}
}

func (a *App) coopsCreateCommand() *Command {
	var in models.NewCooperative
	return &Command{
		Name:    "create",
		Summary: "Register a new cooperative led by you",
		Usage:   "coopctl coops create --name n --description d --sector s --cell c --village v [--district d]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			fs.StringVar(&in.Name, "name", "", "cooperative name")
			fs.StringVar(&in.Description, "description", "", "what the cooperative does")
			fs.StringVar(&in.District, "district", "", "district (defaults to yours)")
			fs.StringVar(&in.Sector, "sector", "", "sector")
			fs.StringVar(&in.Cell, "cell", "", "cell")
			fs.StringVar(&in.Village, "village", "", "village")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if err := a.gate("cooperatives", "create"); err != nil {
				return err
			}
			u := a.Session.User()
			c := models.NewCooperative{
				Name:        inputval.Clean(in.Name),
				Description: inputval.CleanMultiline(in.Description),
				District:    inputval.Clean(in.District),
				Sector:      inputval.Clean(in.Sector),
				Cell:        inputval.Clean(in.Cell),
				Village:     inputval.Clean(in.Village),
				LeaderID:    u.ID,
			}
			if c.District == "" {
				c.District = u.DistrictName()
			}
			var v inputval.Result
			v.Required("Name", c.Name)
			v.Required("Description", c.Description)
			v.Required("District", c.District)
			v.Required("Sector", c.Sector)
			v.Required("Cell", c.Cell)
			v.Required("Village", c.Village)
			if !v.OK() {
				return errors.New(v.Message())
			}

			b := cooperatives.NewBoard(a.Session.API())
			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), a.Log, "create cooperative")
			defer cancel()
			created, err := b.Create(ctx, c)
			if err != nil {
				return a.fail(err, "Failed to create cooperative")
			}
			a.notifier().Notify(notify.Notification{Kind: notify.Success, Message: "Cooperative created successfully!"})
			fmt.Fprintln(a.Out, created.ID)
			return nil
		},
	}
}

func (a *App) coopsApproveCommand() *Command {
	return &Command{
		Name:    "approve",
		Summary: "Approve a pending cooperative",
		Usage:   "coopctl coops approve <id>",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: coopctl coops approve <id>")
			}
			if err := a.gate("cooperatives", "approve"); err != nil {
				return err
			}

			b := cooperatives.NewBoard(a.Session.API())
			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), a.Log, "approve cooperative")
			defer cancel()
			res, err := b.Approve(ctx, args[0])
			if err != nil {
				return a.fail(err, "Failed to approve cooperative")
			}
			a.notifier().Notify(notify.Notification{Kind: notify.Success, Message: "Cooperative approved successfully!"})
			fmt.Fprintln(a.Out, res.RegistrationNumber)
			return nil
		},
	}
}
