package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edutrack/adminportal/internal/app/services"
	"github.com/edutrack/adminportal/internal/bootstrap"
	"github.com/spf13/cobra"
)

// tenantIDs returns the --tenant value, or every tenant when it is empty
func tenantIDs(cmd *cobra.Command, deps *bootstrap.Dependencies, tenantID string) ([]string, error) {
	if tenantID != "" {
		return []string{tenantID}, nil
	}

	tenants, err := deps.TenantService.ListTenants(cmd.Context())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func newFindDuplicatesCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find-duplicates",
		Short: "List students sharing name, class, section and date of birth",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := opts.loadDependencies(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			ids, err := tenantIDs(cmd, deps, opts.tenantID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			total := 0
			for _, id := range ids {
				groups, err := deps.DuplicateService.FindDuplicateGroups(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("tenant %s: %w", id, err)
				}
				for _, g := range groups {
					fmt.Fprintf(out, "tenant %s: %s\n", id, g.Key)
					for i, st := range g.Students {
						marker := "remove"
						if i == 0 {
							marker = "keep"
						}
						fmt.Fprintf(out, "  %-7s %s (%s, joined %s)\n", marker, st.IndexNumber, st.ID, st.JoinedAt.Format("2006-01-02 15:04"))
					}
				}
				total += services.ExtraRecords(groups)
			}

			fmt.Fprintf(out, "%d extra record(s) found\n", total)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.tenantID, "tenant", "", "limit to one tenant ID")
	return cmd
}

func newRemoveDuplicatesCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-duplicates",
		Short: "Delete every duplicate student except the oldest of each group",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.assumeYes && !opts.dryRun {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "This permanently deletes duplicate students. Continue? [y/N] ")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			deps, err := opts.loadDependencies(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			ids, err := tenantIDs(cmd, deps, opts.tenantID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			removed, failed := 0, 0
			for _, id := range ids {
				cleanup, err := deps.DuplicateService.RemoveDuplicates(cmd.Context(), id, opts.dryRun)
				if err != nil {
					return fmt.Errorf("tenant %s: %w", id, err)
				}
				removed += cleanup.Removed
				failed += cleanup.Failed
			}

			verb := "Removed"
			if opts.dryRun {
				verb = "Would remove"
			}
			fmt.Fprintf(out, "%s %d duplicate(s), %d failed\n", verb, removed, failed)
			if failed > 0 {
				return fmt.Errorf("%d duplicate(s) could not be removed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.tenantID, "tenant", "", "limit to one tenant ID")
	cmd.Flags().BoolVar(&opts.assumeYes, "yes", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report what would be removed without deleting")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func newExportStudentsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-students",
		Short: "Write a tenant's students as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := opts.loadDependencies(cmd.Context())
			if err != nil {
				return err
			}
			defer deps.Close()

			var w io.Writer = cmd.OutOrStdout()
			toFile := opts.outPath != "" && opts.outPath != "-"
			if toFile {
				f, err := os.Create(opts.outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", opts.outPath, err)
				}
				defer f.Close()
				w = f
			}

			n, err := deps.StudentService.ExportStudentsCSV(cmd.Context(), opts.tenantID, w)
			if err != nil {
				return err
			}
			if toFile {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d student(s) to %s\n", n, opts.outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.tenantID, "tenant", "", "tenant ID")
	cmd.Flags().StringVar(&opts.outPath, "out", "-", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
