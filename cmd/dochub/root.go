package main

import (
	"io"

	"github.com/jrsteele09/go-dochub-client/internal/config"
	"github.com/spf13/cobra"
)

// session hands the wired app to subcommands. It is built lazily so that
// commands such as version never touch the data folder.
type session struct {
	cfg     config.Config
	out     io.Writer
	in      io.Reader
	baseURL string
	app     *app
}

func (s *session) get(cmd *cobra.Command) (*app, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, err := newApp(s.cfg, s.baseURL, s.out, s.in)
	if err != nil {
		return nil, err
	}
	a.settle(cmd.Context())
	s.app = a
	return a, nil
}

func (s *session) close() {
	if s.app != nil {
		s.app.close()
		s.app = nil
	}
}

// rootCmd builds the command tree. The caller must close the returned
// session once the command has run.
func rootCmd(cfg config.Config, out io.Writer, in io.Reader) (*cobra.Command, *session) {
	s := &session{cfg: cfg, out: out, in: in}

	cmd := &cobra.Command{
		Use:           "dochub",
		Short:         "Command-line client for the DocHub material-sharing service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetIn(in)
	cmd.PersistentFlags().StringVar(&s.baseURL, "api-url", "", "DocHub API base URL (overrides API_BASE_URL)")

	cmd.AddCommand(
		versionCmd(cfg),
		loginCmd(s),
		logoutCmd(s),
		registerCmd(s),
		whoamiCmd(s),
		refreshCmd(s),
		passwdCmd(s),
		openCmd(s),
		materialsCmd(s),
		categoriesCmd(s),
		adminCmd(s),
	)
	return cmd, s
}

func versionCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, _ []string) {
			displayAppname(cmd.OutOrStdout(), cfg.GetAppName())
			cmd.Printf("dochub %s\n", Version)
		},
	}
}
