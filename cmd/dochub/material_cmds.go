package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/jrsteele09/go-dochub-client/categories"
	"github.com/jrsteele09/go-dochub-client/materials"
	"github.com/spf13/cobra"
)

func materialsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "materials",
		Aliases: []string{"m"},
		Short:   "Browse and manage study materials",
	}
	cmd.AddCommand(
		materialsListCmd(s),
		materialsSearchCmd(s),
		materialsFavoritesCmd(s),
		materialsDownloadsCmd(s),
		materialsShowCmd(s),
		materialsFavoriteCmd(s, true),
		materialsFavoriteCmd(s, false),
		materialsReportCmd(s),
		materialsDownloadCmd(s),
	)
	return cmd
}

func bindListFlags(cmd *cobra.Command, p *materials.ListParams) {
	cmd.Flags().IntVar(&p.Page, "page", materials.DefaultPage, "page number")
	cmd.Flags().IntVar(&p.Size, "size", materials.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&p.Category, "category", "", "category code")
	cmd.Flags().StringVar(&p.CourseName, "course", "", "course name")
	cmd.Flags().StringVar(&p.SortBy, "sort", "", "created_at, updated_at, download_count, view_count or favorite_count")
	cmd.Flags().StringVar(&p.Order, "order", "", "asc or desc")
}

func materialsListCmd(s *session) *cobra.Command {
	params := materials.ListParams{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/materials"); err != nil {
				return err
			}
			if _, err := a.categories.FetchActive(cmd.Context()); err != nil {
				return err
			}
			if _, err := a.materials.FetchList(cmd.Context(), params); err != nil {
				return err
			}
			printMaterials(cmd, a.materials, a.categories)
			return nil
		},
	}
	bindListFlags(cmd, &params)
	return cmd
}

func materialsSearchCmd(s *session) *cobra.Command {
	params := materials.ListParams{}
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Full-text search over materials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/search"); err != nil {
				return err
			}
			params.Keyword = args[0]
			if _, err := a.materials.Search(cmd.Context(), params); err != nil {
				return err
			}
			printMaterials(cmd, a.materials, a.categories)
			return nil
		},
	}
	bindListFlags(cmd, &params)
	return cmd
}

func materialsFavoritesCmd(s *session) *cobra.Command {
	params := materials.ListParams{}
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List your favorite materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/favorites"); err != nil {
				return err
			}
			if _, err := a.materials.FetchFavorites(cmd.Context(), params); err != nil {
				return err
			}
			printMaterials(cmd, a.materials, a.categories)
			return nil
		},
	}
	bindListFlags(cmd, &params)
	return cmd
}

func materialsDownloadsCmd(s *session) *cobra.Command {
	params := materials.ListParams{}
	cmd := &cobra.Command{
		Use:   "downloads",
		Short: "List materials you have downloaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			if err := a.enter(cmd.Context(), "/downloads"); err != nil {
				return err
			}
			if _, err := a.materials.FetchDownloads(cmd.Context(), params); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCOURSE\tDOWNLOADED")
			for _, m := range a.materials.Materials() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.Title, m.CourseName, m.DownloadedAt)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", materials.DefaultPage, "page number")
	cmd.Flags().IntVar(&params.Size, "size", materials.DefaultPageSize, "page size")
	return cmd
}

func materialsShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one material",
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
			if err := a.enter(cmd.Context(), "/materials/"+args[0]); err != nil {
				return err
			}
			if _, err := a.categories.FetchActive(cmd.Context()); err != nil {
				return err
			}
			m, err := a.materials.FetchMaterial(cmd.Context(), id)
			if err != nil {
				return err
			}

			cmd.Printf("#%d %s\n", m.ID, m.Title)
			cmd.Printf("Category:  %s\n", a.categories.Name(m.Category))
			cmd.Printf("Course:    %s\n", m.CourseName)
			cmd.Printf("Status:    %s\n", m.Status)
			cmd.Printf("File:      %s (%d bytes, %s)\n", m.FileName, m.FileSize, m.MimeType)
			cmd.Printf("Downloads: %d  Favorites: %d  Views: %d\n", m.DownloadCount, m.FavoriteCount, m.ViewCount)
			if m.Uploader != nil {
				cmd.Printf("Uploader:  %s\n", m.Uploader.DisplayName())
			}
			if m.Description != "" {
				cmd.Printf("\n%s\n", m.Description)
			}
			return nil
		},
	}
}

func materialsFavoriteCmd(s *session, add bool) *cobra.Command {
	use, short := "favorite <id>", "Add a material to your favorites"
	if !add {
		use, short = "unfavorite <id>", "Remove a material from your favorites"
	}
	return &cobra.Command{
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
			if err := a.enter(cmd.Context(), "/materials/"+args[0]); err != nil {
				return err
			}
			if _, err := a.materials.FetchMaterial(cmd.Context(), id); err != nil {
				return err
			}

			if !add {
				if err := a.materials.RemoveFavorite(cmd.Context(), id); err != nil {
					return err
				}
				a.notifier.Success("removed from favorites")
				return nil
			}

			result, err := a.materials.AddFavorite(cmd.Context(), id)
			if err != nil {
				return err
			}
			if result.AlreadyFavorited {
				a.notifier.Success("already in favorites")
				return nil
			}
			a.notifier.Success("added to favorites")
			return nil
		},
	}
}

func materialsReportCmd(s *session) *cobra.Command {
	request := materials.ReportRequest{}
	var reason string
	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Report a problem with a material",
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
			if err := a.enter(cmd.Context(), "/materials/"+args[0]); err != nil {
				return err
			}
			request.Reason = materials.ReportReason(reason)
			if _, err := a.materials.Report(cmd.Context(), id, request); err != nil {
				return err
			}
			a.notifier.Success("report submitted")
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", string(materials.ReasonOther), "inappropriate, copyright, wrong_category, low_quality or other")
	cmd.Flags().StringVar(&request.Description, "description", "", "what is wrong")
	return cmd
}

func materialsDownloadCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "download <id>",
		Short: "Print a signed download link",
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
			if err := a.enter(cmd.Context(), "/materials/"+args[0]); err != nil {
				return err
			}
			sig, err := a.materials.DownloadURL(cmd.Context(), id)
			if err != nil {
				return err
			}
			cmd.Println(sig.DownloadURL)
			if sig.ExpiresAt != "" {
				cmd.Printf("expires %s\n", sig.ExpiresAt)
			}
			return nil
		},
	}
}

func categoriesCmd(s *session) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List material categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.get(cmd)
			if err != nil {
				return err
			}
			path := "/materials"
			if all {
				path = "/admin/material-categories"
			}
			if err := a.enter(cmd.Context(), path); err != nil {
				return err
			}

			var list []categories.Category
			if all {
				list, err = a.categories.FetchAll(cmd.Context())
			} else {
				list, err = a.categories.FetchActive(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tACTIVE")
			for _, c := range list {
				fmt.Fprintf(w, "%s\t%s\t%t\n", c.Code, c.DisplayName(), c.IsActive)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive categories (admin only)")
	return cmd
}

func printMaterials(cmd *cobra.Command, store *materials.Store, cats *categories.Store) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tCOURSE\tFAVORITES\t")
	for _, m := range store.Materials() {
		star := ""
		if m.IsFavorited {
			star = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d%s\t\n", m.ID, m.Title, cats.Name(m.Category), m.CourseName, m.FavoriteCount, star)
	}
	_ = w.Flush()

	params := store.Params()
	more := ""
	if store.HasMore() {
		more = fmt.Sprintf(", next: --page %d", params.Page+1)
	}
	cmd.Printf("page %d of %d, %d total%s\n", params.Page, store.TotalPages(), store.Total(), more)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
