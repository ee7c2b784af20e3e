package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Apply the schema for the configured DATABASE_URL. Every statement is idempotent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			// app.New applies the schema as well; this reports the result.
			if err := db.Migrate(cmd.Context(), a.DB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.DB.Driver())
			return nil
		},
	}
}

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List today's appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			list, err := a.Appointments.GetToday(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d appointment(s)\n", a.Clock.Today().Format("2006-01-02"), len(list))
			for _, d := range list {
				printAppointment(out, d)
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show monthly appointment statistics",
		Example: `  schedctl stats                    # current month
  schedctl stats --year 2025 --month 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			now := a.Clock.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}

			st, err := a.Appointments.GetMonthlyStatistics(cmd.Context(), year, month)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%04d-%02d\n", st.Year, st.Month)
			fmt.Fprintln(out, strings.Repeat("=", 40))
			fmt.Fprintf(out, "total:     %d\n", st.Total)
			fmt.Fprintf(out, "completed: %d\n", st.Completed)

			fmt.Fprintln(out, "\nbilling")
			for _, status := range appointment.BillingStatuses {
				fmt.Fprintf(out, "  %-10s %d\n", status, st.BillingBreakdown[status])
			}

			fmt.Fprintln(out, "\ncategories")
			categories := make([]string, 0, len(st.CategoryBreakdown))
			for c := range st.CategoryBreakdown {
				categories = append(categories, c)
			}
			sort.Strings(categories)
			for _, c := range categories {
				fmt.Fprintf(out, "  %-20s %d\n", c, st.CategoryBreakdown[c])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default: current)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		staffID   int64
		start     string
		end       string
		excludeID int64
	)

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Check a staff member's time range for conflicts",
		Example: `  schedctl check --staff 1 --start 2025-06-10T09:00 --end 2025-06-10T10:00`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			res, err := a.Appointments.CheckTimeConflict(cmd.Context(), staffID, start, end, excludeID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.HasConflict {
				fmt.Fprintln(out, "no conflicts")
				return nil
			}
			fmt.Fprintf(out, "%d conflict(s)\n", len(res.Conflicts))
			for _, d := range res.Conflicts {
				printAppointment(out, d)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&staffID, "staff", 0, "staff member id")
	cmd.Flags().StringVar(&start, "start", "", "start time")
	cmd.Flags().StringVar(&end, "end", "", "end time")
	cmd.Flags().Int64Var(&excludeID, "exclude", 0, "appointment id to ignore")
	_ = cmd.MarkFlagRequired("staff")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newStaffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "staff",
		Short: "List staff members with their appointment counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			members, err := a.Staff.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range members {
				n, err := a.Appointments.CountByStaff(cmd.Context(), s.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%4d  %-24s %-8s %s  %d appointment(s)\n", s.ID, s.Name, s.Color, s.AuthStatus, n)
			}
			return nil
		},
	}
}

func printAppointment(w io.Writer, d appointment.Detail) {
	end := "--:--"
	if d.EndTime != nil {
		end = d.EndTime.Format("15:04")
	}
	done := ""
	if d.Completed() {
		done = " (completed)"
	}
	fmt.Fprintf(w, "  #%d %s %s-%s %s [%s] %s%s\n",
		d.ID, d.StartTime.Format("2006-01-02"), d.StartTime.Format("15:04"), end,
		d.StaffName, d.BusinessCategory, d.CustomerName, done)
}
