package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/services"
)

var errPasswordMismatch = errors.New("passwords do not match")

// Admin is the account service surface used by the console.
type Admin interface {
	FindUser(ctx context.Context, email string) (*models.User, error)
	ActivateAccount(ctx context.Context, email string, active bool) (*models.User, error)
	RepairRegistration(ctx context.Context, email string) (*services.RepairReport, error)
	ResendVerification(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type App struct {
	admin  Admin
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(admin Admin, in io.Reader, out io.Writer) *App {
	return &App{admin: admin, reader: bufio.NewReader(in), out: out}
}

// Run executes args as a single command, or starts the REPL when args is
// empty. It returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Welcome to accountctl (type 'help' for commands)")
		runREPL(ctx, a, a.reader)
		return 0
	}

	if _, err := dispatch(ctx, a, args[0], args[1:]); err != nil {
		fmt.Fprintln(a.out, "Error:", describe(err))
		return 1
	}
	return 0
}

// describe renders the user-facing part of err.
func describe(err error) string {
	if ce, ok := common.AsError(err); ok {
		if len(ce.Details) > 0 {
			return fmt.Sprintf("%s (%s)", ce.Message, strings.Join(ce.Details, ", "))
		}
		return ce.Message
	}
	return err.Error()
}

func (a *App) email(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return GetSimpleText(a.reader, "Email", a.out)
}

func (a *App) printUser(u *models.User) {
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", u.ID)
	fmt.Fprintf(tw, "name\t%s\n", u.FullName())
	fmt.Fprintf(tw, "email\t%s\n", u.Email)
	fmt.Fprintf(tw, "username\t%s\n", u.UserName)
	fmt.Fprintf(tw, "referral code\t%s\n", u.ReferralCode)
	fmt.Fprintf(tw, "email verified\t%t\n", u.IsEmailVerified)
	fmt.Fprintf(tw, "activated\t%t\n", u.IsActivated)
	fmt.Fprintf(tw, "created\t%s\n", u.CreatedAt.Format("2006-01-02 15:04:05"))
	tw.Flush()
}

func (a *App) Show(ctx context.Context, args []string) error {
	email, err := a.email(args)
	if err != nil {
		return err
	}
	u, err := a.admin.FindUser(ctx, email)
	if err != nil {
		return err
	}
	a.printUser(u)
	return nil
}

func (a *App) setActivated(ctx context.Context, args []string, active bool) error {
	email, err := a.email(args)
	if err != nil {
		return err
	}
	u, err := a.admin.ActivateAccount(ctx, email, active)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s activated: %t\n", u.Email, u.IsActivated)
	return nil
}

func (a *App) Activate(ctx context.Context, args []string) error {
	return a.setActivated(ctx, args, true)
}

func (a *App) Deactivate(ctx context.Context, args []string) error {
	return a.setActivated(ctx, args, false)
}

func (a *App) Repair(ctx context.Context, args []string) error {
	email, err := a.email(args)
	if err != nil {
		return err
	}
	report, err := a.admin.RepairRegistration(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %s: wallet created: %t, verification sent: %t\n",
		report.UserID, report.WalletCreated, report.VerificationSent)
	return nil
}

func (a *App) Resend(ctx context.Context, args []string) error {
	email, err := a.email(args)
	if err != nil {
		return err
	}
	if err := a.admin.ResendVerification(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Verification email sent (skipped for verified users)")
	return nil
}

// ResetPassword prompts twice for the new password and wipes both copies.
func (a *App) ResetPassword(ctx context.Context, args []string) error {
	email, err := a.email(args)
	if err != nil {
		return err
	}

	pw, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	again, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		return errPasswordMismatch
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Reset password for %s?", email), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.admin.ResetPassword(ctx, email, string(pw)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password reset")
	return nil
}
