package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/go-dochub-client/admin"
	"github.com/jrsteele09/go-dochub-client/materials"
	"github.com/jrsteele09/go-dochub-client/users"
	"github.com/spf13/cobra"
)

func adminCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer accounts, reports and settings",
	}
	accounts := &cobra.Command{Use: "users", Short: "Manage user accounts"}
	accounts.AddCommand(adminUsersListCmd(s), adminUserStatusCmd(s, true), adminUserStatusCmd(s, false), adminUserDeleteCmd(s))
	reports := &cobra.Command{Use: "reports", Short: "Review reported materials"}
	reports.AddCommand(adminReportsListCmd(s), adminReportHandleCmd(s))
	configs := &cobra.Command{Use: "configs", Short: "Inspect and change system settings"}
	configs.AddCommand(adminConfigsListCmd(s), adminConfigSetCmd(s))
	cmd.AddCommand(accounts, reports, configs)
	return cmd
}

func adminUsersListCmd(s *session) *cobra.Command {
	params := admin.UserListParams{}
	var role, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/admin/users"); err != nil {
				return err
			}
			params.Role = users.RoleType(role)
			params.Status = users.StatusType(status)
			page, err := a.admin.FetchUsers(cmd.Context(), params)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tSTATUS\tLAST LOGIN")
			for _, u := range a.admin.Users() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), u.Role, u.Status, u.LastLoginAt)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			cmd.Printf("page %d of %d, %d total\n", page.Page, page.TotalPages, page.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&params.Size, "size", admin.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&params.Keyword, "keyword", "", "match username, name or email")
	cmd.Flags().StringVar(&role, "role", "", "student, committee or admin")
	cmd.Flags().StringVar(&status, "status", "", "active or banned")
	return cmd
}

func adminUserStatusCmd(s *session, ban bool) *cobra.Command {
	use, short := "unban <id>", "Re-enable an account"
	if ban {
		use, short = "ban <id>", "Disable an account"
	}
	var reason string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/admin/users"); err != nil {
				return err
			}
			if self := a.sessions.User(); ban && self != nil && self.ID == id {
				return fmt.Errorf("refusing to ban your own account")
			}

			if !ban {
				if err := a.admin.Unban(cmd.Context(), id); err != nil {
					return err
				}
				a.notifier.Success(fmt.Sprintf("user %d re-enabled", id))
				return nil
			}
			if err := a.admin.Ban(cmd.Context(), id, reason); err != nil {
				return err
			}
			a.notifier.Success(fmt.Sprintf("user %d banned", id))
			return nil
		},
	}
	if ban {
		cmd.Flags().StringVar(&reason, "reason", "", "reason shown to the user")
	}
	return cmd
}

func adminUserDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/admin/users"); err != nil {
				return err
			}
			if err := a.admin.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			a.notifier.Success(fmt.Sprintf("user %d deleted", id))
			return nil
		},
	}
}

func adminReportsListCmd(s *session) *cobra.Command {
	params := materials.ReportListParams{}
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List material reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/admin/reports"); err != nil {
				return err
			}
			params.Status = materials.ReportStatus(status)
			if _, err := a.materials.FetchReports(cmd.Context(), params); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMATERIAL\tREASON\tSTATUS\tDESCRIPTION")
			for _, r := range a.materials.Reports() {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", r.ID, r.MaterialID, r.Reason, r.Status, r.Description)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			cmd.Printf("%d total\n", a.materials.ReportTotal())
			return nil
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&params.Size, "size", materials.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&status, "status", string(materials.ReportPending), "pending, approved or rejected; empty for all")
	return cmd
}

func adminReportHandleCmd(s *session) *cobra.Command {
	var reject bool
	request := materials.HandleReportRequest{}
	cmd := &cobra.Command{
		Use:   "handle <id>",
		Short: "Approve a report, or reject it with --reject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/admin/reports"); err != nil {
				return err
			}
			request.Status = materials.ReportApproved
			if reject {
				request.Status = materials.ReportRejected
			}
			if _, err := a.materials.HandleReport(cmd.Context(), id, request); err != nil {
				return err
			}
			a.notifier.Success(fmt.Sprintf("report %d %s", id, request.Status))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reject, "reject", false, "reject the report instead of approving it")
	cmd.Flags().StringVar(&request.Note, "note", "", "note kept with the decision")
	return cmd
}

func adminConfigsListCmd(s *session) *cobra.Command {
	params := admin.ConfigListParams{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List system settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/admin/settings"); err != nil {
				return err
			}
			if _, err := a.admin.FetchConfigs(cmd.Context(), params); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE\tCATEGORY\tDESCRIPTION")
			for _, c := range a.admin.Configs() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Key, c.Value, c.Category, c.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&params.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&params.Keyword, "keyword", "", "match key or description")
	return cmd
}

func adminConfigSetCmd(s *session) *cobra.Command {
	var create bool
	c := admin.SystemConfig{}
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting, or add it with --create",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/admin/settings"); err != nil {
				return err
			}
			if create {
				c.Key, c.Value = args[0], args[1]
				err = a.admin.CreateConfig(cmd.Context(), c)
			} else {
				err = a.admin.SetConfig(cmd.Context(), args[0], args[1])
			}
			if err != nil {
				return err
			}
			a.notifier.Success(fmt.Sprintf("%s = %s", args[0], args[1]))
			return nil
		},
	}
	cmd.Flags().BoolVar(&create, "create", false, "add a new setting")
	cmd.Flags().StringVar(&c.Category, "category", "", "category of a new setting")
	cmd.Flags().StringVar(&c.Description, "description", "", "description of a new setting")
	return cmd
}
