package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/found/internal/client"
	"github.com/sakif/found/internal/localstore"
	"github.com/sakif/found/internal/model"
)

const defaultServer = "http://localhost:8080"

// app holds what every command needs once flags are parsed.
type app struct {
	store  *localstore.Store
	client *client.Client
	con    *console
	logger *slog.Logger
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}

// withApp adapts fn to a RunE that releases device storage however fn
// returns.
func withApp(fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		defer a.close()
		return fn(cmd, a)
	}
}

func newRootCmd() *cobra.Command {
	var (
		serverURL string
		dataDir   string
		verbose   bool
	)

	root := &cobra.Command{
		Use:           "found",
		Short:         "Found. connects builders with teams and opportunities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			if dataDir == "" {
				dir, err := defaultDataDir()
				if err != nil {
					return err
				}
				dataDir = dir
			}
			store, err := localstore.OpenDir(dataDir)
			if err != nil {
				return err
			}

			a := &app{
				store:  store,
				client: client.New(serverURL, store, logger),
				con:    newConsole(cmd.InOrStdin(), cmd.OutOrStdout()),
				logger: logger,
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey{}, a))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("FOUND_SERVER", defaultServer), "Found. server URL")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", os.Getenv("FOUND_DATA_DIR"), "directory for on-device storage")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newStartCmd(),
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newProfileCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory (set --data-dir): %w", err)
	}
	return filepath.Join(dir, "found"), nil
}

// --- register / login / logout ---

type credentialFlags struct {
	email    string
	password string
	confirm  string
}

func (f *credentialFlags) bind(cmd *cobra.Command, register bool) {
	cmd.Flags().StringVar(&f.email, "email", "", "account email (prompted when empty)")
	cmd.Flags().StringVar(&f.password, "password", "", "account password (prompted when empty)")
	if register {
		cmd.Flags().StringVar(&f.confirm, "confirm", "", "password confirmation (prompted when empty)")
	}
}

// fill prompts for whatever was not given on the command line.
func (f *credentialFlags) fill(con *console, register bool) error {
	var err error
	if f.email == "" {
		if f.email, err = con.prompt("Email"); err != nil {
			return err
		}
	}
	if f.password == "" {
		if f.password, err = con.prompt("Password"); err != nil {
			return err
		}
	}
	if register && f.confirm == "" {
		if f.confirm, err = con.prompt("Confirm password"); err != nil {
			return err
		}
	}
	return nil
}

func newRegisterCmd() *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			if err := f.fill(a.con, true); err != nil {
				return err
			}
			if err := client.ValidateAuthForm(f.email, f.password, f.confirm, true); err != nil {
				return err
			}
			sess, err := a.client.Register(cmd.Context(), strings.TrimSpace(f.email), f.password)
			if err != nil {
				return err
			}
			a.con.success("Account created for %s", sess.Email)
			return nil
		}),
	}
	f.bind(cmd, true)
	return cmd
}

func newLoginCmd() *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			if err := f.fill(a.con, false); err != nil {
				return err
			}
			if err := client.ValidateAuthForm(f.email, f.password, "", false); err != nil {
				return err
			}
			sess, err := a.client.Login(cmd.Context(), strings.TrimSpace(f.email), f.password)
			if err != nil {
				return err
			}
			a.con.success("Signed in as %s", sess.Email)
			return nil
		}),
	}
	f.bind(cmd, false)
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			a.con.success("Signed out")
			return nil
		}),
	}
}

// --- profile ---

var errSignedOut = errors.New("not signed in (run `found login`)")

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit your profile",
	}
	cmd.AddCommand(newProfileShowCmd(), newProfileEditCmd())
	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			sess, err := a.client.CurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				return errSignedOut
			}
			a.con.profile(sess.Email, a.client.FetchProfile(cmd.Context()))
			return nil
		}),
	}
}

func newProfileEditCmd() *cobra.Command {
	var (
		name, role, location, domain, avatarURL string
		skills, interests                       string
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change profile fields",
		Long: `Change profile fields. Only the flags you pass are changed.

Skills and interests are comma-separated and replace the whole list;
pass an empty string to clear one.

Examples:
  found profile edit --name "Ada Lovelace" --role Engineer
  found profile edit --skills "Go, SQL, Distributed systems"
  found profile edit --interests ""`,
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			flags := cmd.Flags()

			var patch model.ProfilePatch
			setString := func(flag string, v string, dst **string) {
				if flags.Changed(flag) {
					*dst = &v
				}
			}
			setString("name", name, &patch.Name)
			setString("role", role, &patch.Role)
			setString("location", location, &patch.Location)
			setString("domain", domain, &patch.Domain)
			setString("avatar-url", avatarURL, &patch.AvatarURL)
			if flags.Changed("skills") {
				patch.Skills = splitTags(skills)
			}
			if flags.Changed("interests") {
				patch.Interests = splitTags(interests)
			}

			profile, err := a.client.UpdateProfile(cmd.Context(), patch)
			if err != nil {
				return err
			}
			a.con.success("Profile saved")
			a.con.profile("", profile)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", "", "role, e.g. Engineer")
	cmd.Flags().StringVar(&location, "location", "", "city or region")
	cmd.Flags().StringVar(&domain, "domain", "", "field you work in")
	cmd.Flags().StringVar(&avatarURL, "avatar-url", "", "avatar image URL")
	cmd.Flags().StringVar(&skills, "skills", "", "comma-separated skills")
	cmd.Flags().StringVar(&interests, "interests", "", "comma-separated interests")
	return cmd
}

// splitTags turns "Go, SQL" into a tag list. "" is an empty, non-nil list.
func splitTags(s string) *[]string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &tags
}
