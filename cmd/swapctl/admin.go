package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminStatsCmd, adminPendingCmd, adminApproveCmd, adminDedupCmd,
		adminFlagCmd("ban", "Ban a user", ptr(true), nil),
		adminFlagCmd("unban", "Lift a user's ban", ptr(false), nil),
		adminFlagCmd("promote", "Grant admin rights", nil, ptr(true)),
		adminFlagCmd("demote", "Revoke admin rights", nil, ptr(false)),
		adminReportCmd, adminMessageCmd, adminLedgerCmd)

	adminApproveCmd.Flags().BoolVar(&approveReject, "reject", false, "Reject instead of approve")
	adminReportCmd.Flags().Int64Var(&reportUser, "user", 0, "Restrict the report to one user")
	adminReportCmd.Flags().StringVarP(&reportOut, "output", "o", "", "Write the CSV to this file instead of stdout")
}

var (
	approveReject bool
	reportUser    int64
	reportOut     string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderation and reporting (admin accounts only)",
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		st, err := c.Stats(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(st)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Users\t%d\n", st.TotalUsers)
		fmt.Fprintf(w, "Active users\t%d\n", st.ActiveUsers)
		fmt.Fprintf(w, "Approved skills\t%d\n", st.TotalSkills)
		fmt.Fprintf(w, "Pending skills\t%d\n", st.PendingSkills)
		fmt.Fprintf(w, "Swaps\t%d\n", st.TotalSwaps)
		fmt.Fprintf(w, "Accepted swaps\t%d\n", st.AcceptedSwaps)
		fmt.Fprintf(w, "Completed swaps\t%d\n", st.CompletedSwaps)
		return w.Flush()
	},
}

var adminPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List skills awaiting approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		skills, err := c.PendingSkills(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(skills)
		}
		if len(skills) == 0 {
			fmt.Println("No skills awaiting approval.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDESCRIPTION")
		for _, s := range skills {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.Name, s.Category, s.Description)
		}
		return w.Flush()
	},
}

var adminApproveCmd = &cobra.Command{
	Use:   "approve <skill-id>",
	Short: "Approve (or --reject) a proposed skill",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		n, err := c.ApproveSkill(context.Background(), id, !approveReject)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("skill #%d not found", id)
		}
		if approveReject {
			fmt.Printf("✓ Skill #%d rejected\n", id)
		} else {
			fmt.Printf("✓ Skill #%d approved\n", id)
		}
		return nil
	},
}

var adminDedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Merge skills whose names differ only by case or spacing",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		n, err := c.DeduplicateSkills(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("✓ Merged %d duplicate skill(s)\n", n)
		return nil
	},
}

func adminFlagCmd(use, short string, banned, admin *bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, _, err := authedClient()
			if err != nil {
				return err
			}
			n, err := c.SetUserFlags(context.Background(), id, banned, admin)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("user #%d not found", id)
			}
			fmt.Printf("✓ User #%d updated\n", id)
			return nil
		},
	}
}

var adminReportCmd = &cobra.Command{
	Use:   "report <users|feedback|swaps>",
	Short: "Download a CSV report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		out := os.Stdout
		if reportOut != "" {
			f, err := os.Create(reportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := c.DownloadReport(context.Background(), args[0], reportUser, out); err != nil {
			return err
		}
		if reportOut != "" {
			fmt.Fprintf(os.Stderr, "✓ Report written to %s\n", reportOut)
		}
		return nil
	},
}

var adminMessageCmd = &cobra.Command{
	Use:   "message <title> <body>",
	Short: "Post a platform-wide message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		id, err := c.PostMessage(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Message #%d posted\n", id)
		return nil
	},
}

var adminLedgerCmd = &cobra.Command{
	Use:   "verify-ledger",
	Short: "Check the integrity of the moderation audit ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		st, err := c.VerifyLedger(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(st)
		}
		if !st.Valid {
			return fmt.Errorf("ledger verification failed: %s", st.Error)
		}
		fmt.Println("✓ Ledger chain is intact")
		return nil
	},
}

func ptr[T any](v T) *T { return &v }
