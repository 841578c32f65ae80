package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/coophub/internal/app/system/inputval"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/spf13/pflag"
)

// ErrReported marks failures already printed as a notification; callers
// should exit non-zero without printing it again.
var ErrReported = errors.New("request failed")

func (a *App) loginCommand() *Command {
	var passwordFile string
	return &Command{
		Name:    "login",
		Summary: "Sign in and keep the token for later commands",
		Usage:   "coopctl login <email> [--password-file path]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVar(&passwordFile, "password-file", "", "read the password from a file instead of prompting")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: coopctl login <email>")
			}
			if err := a.gate("login", ""); err != nil {
				return err
			}
			email := strings.TrimSpace(args[0])
			if !inputval.IsValidEmail(email) {
				return fmt.Errorf("%q is not a valid email address", email)
			}
			password, err := a.readSecret("Password: ", passwordFile)
			if err != nil {
				return err
			}

			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), a.Log, "login")
			defer cancel()
			if err := a.Session.Login(ctx, email, password); err != nil {
				return ErrReported
			}
			u := a.Session.User()
			fmt.Fprintf(a.Out, "Signed in as %s (%s)\n", u.FullName, u.Role.Label())
			return nil
		},
	}
}

func (a *App) registerCommand() *Command {
	var (
		email, name, role, district, phone, passwordFile string
	)
	return &Command{
		Name:    "register",
		Summary: "Create an account and sign in",
		Usage:   "coopctl register --email e --name n [--role member] [--district d] [--phone p]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
			fs.StringVar(&email, "email", "", "email address")
			fs.StringVar(&name, "name", "", "full name")
			fs.StringVar(&role, "role", string(models.RoleMember), "member, cooperative_leader or district_official")
			fs.StringVar(&district, "district", "", "district (required for district officials)")
			fs.StringVar(&phone, "phone", "", "phone number")
			fs.StringVar(&passwordFile, "password-file", "", "read the password from a file instead of prompting")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if err := a.gate("register", ""); err != nil {
				return err
			}

			reg := models.Registration{
				Email:    strings.TrimSpace(email),
				FullName: inputval.Clean(name),
			}
			var v inputval.Result
			v.Required("Full name", reg.FullName)
			v.Email(reg.Email)
			r, ok := models.ParseRole(role)
			if !ok {
				v.Add("Choose a valid role.")
			}
			reg.Role = r
			if d := inputval.Clean(district); d != "" {
				reg.District = &d
			} else if r == models.RoleDistrictOfficial {
				v.Add("District is required for district officials.")
			}
			if p := inputval.Clean(phone); p != "" {
				reg.Phone = &p
			}
			if !v.OK() {
				return errors.New(v.Message())
			}

			pw, err := a.readSecret("Password: ", passwordFile)
			if err != nil {
				return err
			}
			if passwordFile == "" {
				confirm, err := a.readSecret("Confirm password: ", "")
				if err != nil {
					return err
				}
				if confirm != pw {
					return errors.New("passwords do not match")
				}
			}
			v = inputval.Result{}
			v.MinLen("Password", pw, 6)
			if !v.OK() {
				return errors.New(v.Message())
			}
			reg.Password = pw

			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), a.Log, "register")
			defer cancel()
			if err := a.Session.Register(ctx, reg); err != nil {
				return ErrReported
			}
			fmt.Fprintf(a.Out, "Registered and signed in as %s (%s)\n", reg.FullName, reg.Role.Label())
			return nil
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the stored token",
		Run: func(ctx context.Context, args []string) error {
			if err := a.gate("logout", ""); err != nil {
				return err
			}
			a.Session.Logout()
			return nil
		},
	}
}

func (a *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the signed-in user",
		Run: func(ctx context.Context, args []string) error {
			if err := a.gate("dashboard", ""); err != nil {
				return err
			}
			u := a.Session.User()
			fmt.Fprintf(a.Out, "Name:     %s\n", u.FullName)
			fmt.Fprintf(a.Out, "Email:    %s\n", u.Email)
			fmt.Fprintf(a.Out, "Role:     %s\n", u.Role.Label())
			if d := u.DistrictName(); d != "" {
				fmt.Fprintf(a.Out, "District: %s\n", d)
			}
			return nil
		},
	}
}
