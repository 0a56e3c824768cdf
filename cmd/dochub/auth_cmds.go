package main

import (
	"fmt"

	"github.com/jrsteele09/go-dochub-client/auth"
	"github.com/jrsteele09/go-dochub-client/users"
	"github.com/spf13/cobra"
)

func loginCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			p := newPrompter(cmd.OutOrStdout(), cmd.InOrStdin())

			credentials := auth.Credentials{}
			if len(args) == 1 {
				credentials.Username = args[0]
			} else if credentials.Username, err = p.line("Username: "); err != nil {
				return err
			}
			if credentials.Password, err = p.password("Password: "); err != nil {
				return err
			}

			if err := a.sessions.Login(cmd.Context(), credentials); err != nil {
				return err
			}
			loc, err := a.nav.ResumeAfterLogin(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Welcome, %s (%s). Now at %s\n", a.sessions.DisplayName(), roleOf(a), loc.FullPath())
			return nil
		},
	}
}

func logoutCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			a.sessions.Logout(cmd.Context())
			return nil
		},
	}
}

func registerCmd(s *session) *cobra.Command {
	request := auth.RegisterRequest{}
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			request.Username = args[0]

			p := newPrompter(cmd.OutOrStdout(), cmd.InOrStdin())
			if request.Password, err = p.password("Password: "); err != nil {
				return err
			}
			confirm, err := p.password("Confirm password: ")
			if err != nil {
				return err
			}
			if confirm != request.Password {
				return fmt.Errorf("passwords do not match")
			}
			return a.sessions.Register(cmd.Context(), request)
		},
	}
	cmd.Flags().StringVar(&request.Email, "email", "", "email address")
	cmd.Flags().StringVar(&request.RealName, "real-name", "", "real name")
	cmd.Flags().StringVar(&request.Major, "major", "", "major")
	cmd.Flags().StringVar(&request.Class, "class", "", "class")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func whoamiCmd(s *session) *cobra.Command {
	var fetch bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if !a.sessions.IsLoggedIn() {
				cmd.Println("Not logged in")
				return nil
			}

			user := a.sessions.User()
			if fetch {
				if user, err = a.sessions.FetchUserInfo(cmd.Context()); err != nil {
					return err
				}
			}
			printUser(cmd, user)
			if exp := a.sessions.Snapshot().ExpireAt; !exp.IsZero() {
				cmd.Printf("Token expires: %s\n", exp.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "reload the user record from the server")
	return cmd
}

func refreshCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.sessions.Refresh(cmd.Context()); err != nil {
				return err
			}
			cmd.Printf("Token renewed, expires %s\n", a.sessions.Snapshot().ExpireAt.Local().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func passwdCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password; you will be logged out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if !a.sessions.IsLoggedIn() {
				return fmt.Errorf("not logged in, run: dochub login")
			}

			p := newPrompter(cmd.OutOrStdout(), cmd.InOrStdin())
			request := auth.ChangePasswordRequest{}
			if request.OldPassword, err = p.password("Current password: "); err != nil {
				return err
			}
			if request.NewPassword, err = p.password("New password: "); err != nil {
				return err
			}
			return a.sessions.ChangePassword(cmd.Context(), request)
		},
	}
}

func openCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Navigate to a page and show where the guard lets you land",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			loc, err := a.nav.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s\n  route: %s\n  path:  %s\n", a.nav.Title(), loc.Route.Name, loc.FullPath())
			for k, v := range loc.Params {
				cmd.Printf("  %s: %s\n", k, v)
			}
			return nil
		},
	}
}

func roleOf(a *app) users.RoleType {
	role, _ := a.sessions.Role()
	return role
}

func printUser(cmd *cobra.Command, u *users.User) {
	cmd.Printf("%s (%s)\n", u.DisplayName(), u.Username)
	cmd.Printf("Role:   %s\n", u.Role)
	cmd.Printf("Status: %s\n", u.Status)
	if u.Email != "" {
		cmd.Printf("Email:  %s\n", u.Email)
	}
	if u.Major != "" || u.Class != "" {
		cmd.Printf("Class:  %s %s\n", u.Major, u.Class)
	}
}
