package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/client"
	"github.com/sakif/found/internal/gate"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the app: onboarding, sign-in, then your profile",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			return runApp(cmd.Context(), a)
		}),
	}
}

// runApp drives the launch gate and renders whichever screen it selects
// until the main screen has been shown.
func runApp(ctx context.Context, a *app) error {
	g := gate.New(a.store, a.logger)
	unsubscribe := g.OnTransition(func(from, to gate.State) {
		if to.Screen() != from.Screen() {
			a.con.screen(to.Screen())
		}
	})
	defer unsubscribe()

	// Nothing to load in a terminal.
	g.AssetsLoaded()

	var eg errgroup.Group
	eg.Go(func() error {
		g.CheckFirstLaunch(ctx)
		return nil
	})
	eg.Go(func() error {
		sess, err := a.client.CurrentSession(ctx)
		if err != nil {
			a.logger.Warn("resolving stored session", slog.String("error", err.Error()))
		}
		g.SessionResolved(sess)
		return nil
	})
	eg.Wait()

	for {
		switch state := g.CurrentState(); state {
		case gate.FirstLaunch:
			if err := runOnboarding(a, gate.NewOnboarding(g)); err != nil {
				return err
			}
		case gate.Unauthenticated:
			sess, err := runAuthScreen(ctx, a)
			if err != nil {
				return err
			}
			g.SessionResolved(sess)
		case gate.Ready:
			return runMainScreen(ctx, a, g.Session())
		default:
			return fmt.Errorf("gate stuck in %s", state)
		}
	}
}

func runOnboarding(a *app, o *gate.Onboarding) error {
	for !o.Done() {
		slide, idx := o.Current()
		a.con.slide(slide, idx, o.ButtonLabel())
		if _, err := a.con.prompt(">"); err != nil {
			return inputClosed(err)
		}
		o.Next()
	}
	return nil
}

// runAuthScreen loops until a sign-in or sign-up succeeds. Form and server
// errors are shown and the form is offered again.
func runAuthScreen(ctx context.Context, a *app) (*auth.Session, error) {
	register := false
	for {
		if register {
			a.con.printf("Create Account (type \"s\" to sign in instead)\n")
		} else {
			a.con.printf("Sign In (type \"r\" to create an account)\n")
		}

		email, err := a.con.prompt("Email")
		if err != nil {
			return nil, inputClosed(err)
		}
		switch strings.TrimSpace(email) {
		case "r":
			register = true
			continue
		case "s":
			register = false
			continue
		}

		password, err := a.con.prompt("Password")
		if err != nil {
			return nil, inputClosed(err)
		}
		var confirm string
		if register {
			if confirm, err = a.con.prompt("Confirm password"); err != nil {
				return nil, inputClosed(err)
			}
		}

		if err := client.ValidateAuthForm(email, password, confirm, register); err != nil {
			a.con.fail("%s", err)
			continue
		}

		var sess *auth.Session
		if register {
			sess, err = a.client.Register(ctx, strings.TrimSpace(email), password)
		} else {
			sess, err = a.client.Login(ctx, strings.TrimSpace(email), password)
		}
		if err != nil {
			a.con.fail("%s", userMessage(err))
			continue
		}
		return sess, nil
	}
}

func runMainScreen(ctx context.Context, a *app, sess *auth.Session) error {
	a.con.printf("Welcome, %s\n\n", sess.Email)
	a.con.profile(sess.Email, a.client.FetchProfile(ctx))
	return nil
}

// userMessage shows server messages as-is and anything else (transport
// failures) generically.
func userMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Could not reach the server. Please try again."
}

func inputClosed(err error) error {
	if errors.Is(err, io.EOF) {
		return errors.New("input closed")
	}
	return err
}
