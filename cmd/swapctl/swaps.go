package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jmerrifield20/SkillSwap/pkg/client"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(swapsCmd, rateCmd, subscribeCmd)
	swapsCmd.AddCommand(swapsListCmd, swapsShowCmd, swapsCreateCmd, swapsProgressCmd,
		swapStatusCmd("accept", "accepted", "Accept a swap request sent to you"),
		swapStatusCmd("reject", "rejected", "Reject a swap request sent to you"),
		swapStatusCmd("cancel", "cancelled", "Withdraw a pending swap request you sent"),
		swapsDeleteCmd,
	)

	swapsCreateCmd.Flags().Int64Var(&createRecipient, "to", 0, "Recipient user id")
	swapsCreateCmd.Flags().Int64Var(&createGive, "give", 0, "Skill id you will teach")
	swapsCreateCmd.Flags().Int64Var(&createGet, "get", 0, "Skill id you want to learn")
	swapsCreateCmd.Flags().StringVar(&createMessage, "message", "", "Message to the recipient")
	_ = swapsCreateCmd.MarkFlagRequired("to")
	_ = swapsCreateCmd.MarkFlagRequired("give")
	_ = swapsCreateCmd.MarkFlagRequired("get")

	swapsProgressCmd.Flags().StringVar(&progressStatus, "status", "", "Tracking status: pending, in_progress, half_completed, not_completed, completed")
	swapsProgressCmd.Flags().StringVar(&progressNotes, "notes", "", "Your notes on the swap")
	swapsProgressCmd.Flags().BoolVar(&progressDone, "done", false, "Mark your side of the swap as completed")

	rateCmd.Flags().StringVar(&rateFeedback, "feedback", "", "Written feedback")
	subscribeCmd.Flags().StringSliceVar(&subscribeEvents, "events", nil, "Events to receive, swap.requested, swap.status_changed, swap.completed, rating.received")
	_ = subscribeCmd.MarkFlagRequired("events")
}

var (
	createRecipient int64
	createGive      int64
	createGet       int64
	createMessage   string
	progressStatus  string
	progressNotes   string
	progressDone    bool
	rateFeedback    string
	subscribeEvents []string
)

var swapsCmd = &cobra.Command{
	Use:   "swaps",
	Short: "Send, answer and track swap requests",
}

var swapsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List swaps you sent or received",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, s, err := authedClient()
		if err != nil {
			return err
		}
		swaps, err := c.ListSwaps(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(swaps)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWITH\tYOU GIVE\tYOU GET\tSTATUS\tTRACKING")
		for _, sw := range swaps {
			with, give, get := sw.RecipientUsername, sw.RequesterSkillName, sw.RecipientSkillName
			if sw.RecipientID == s.UserID {
				with, give, get = sw.RequesterUsername, sw.RecipientSkillName, sw.RequesterSkillName
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", sw.ID, with, give, get, sw.Status, sw.TrackingStatus)
		}
		return w.Flush()
	},
}

var swapsShowCmd = &cobra.Command{
	Use:   "show <swap-id>",
	Short: "Show one swap",
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
		sw, err := c.GetSwap(context.Background(), id)
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(sw)
		}
		fmt.Printf("ID:          %d\n", sw.ID)
		fmt.Printf("Requester:   user %d (skill %d)\n", sw.RequesterID, sw.RequesterSkillID)
		fmt.Printf("Recipient:   user %d (skill %d)\n", sw.RecipientID, sw.RecipientSkillID)
		fmt.Printf("Status:      %s\n", sw.Status)
		fmt.Printf("Tracking:    %s\n", sw.TrackingStatus)
		fmt.Printf("Done:        requester=%v recipient=%v\n", sw.RequesterCompleted, sw.RecipientCompleted)
		if sw.CompletedAt != nil {
			fmt.Printf("Completed:   %s\n", sw.CompletedAt.Format("2006-01-02 15:04"))
		}
		if sw.Message != "" {
			fmt.Printf("Message:     %s\n", sw.Message)
		}
		return nil
	},
}

var swapsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Propose a skill swap to another user",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		id, err := c.CreateSwap(context.Background(), client.CreateSwapRequest{
			RecipientID:      createRecipient,
			RequesterSkillID: createGive,
			RecipientSkillID: createGet,
			Message:          createMessage,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Swap request #%d sent\n", id)
		return nil
	},
}

func swapStatusCmd(use, status, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <swap-id>",
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
			n, err := c.SetSwapStatus(context.Background(), id, status)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("swap #%d was not changed", id)
			}
			fmt.Printf("✓ Swap #%d %s\n", id, status)
			return nil
		},
	}
}

var swapsDeleteCmd = &cobra.Command{
	Use:   "delete <swap-id>",
	Short: "Delete a pending swap request you sent",
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
		n, err := c.DeleteSwap(context.Background(), id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("swap #%d was not deleted; only pending requests you sent can be", id)
		}
		fmt.Printf("✓ Swap #%d deleted\n", id)
		return nil
	},
}

var swapsProgressCmd = &cobra.Command{
	Use:   "progress <swap-id>",
	Short: "Update tracking status, notes or completion of an accepted swap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var u client.ProgressUpdate
		if cmd.Flags().Changed("status") {
			u.TrackingStatus = &progressStatus
		}
		if cmd.Flags().Changed("notes") {
			u.Notes = &progressNotes
		}
		if cmd.Flags().Changed("done") {
			u.Completed = &progressDone
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		n, err := c.UpdateProgress(context.Background(), id, u)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("swap #%d was not updated", id)
		}
		fmt.Printf("✓ Swap #%d updated\n", id)
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <swap-id> <user-id> <1-5>",
	Short: "Rate your partner on a completed swap",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		swapID, err := parseID(args[0])
		if err != nil {
			return err
		}
		userID, err := parseID(args[1])
		if err != nil {
			return err
		}
		var score int
		if _, err := fmt.Sscanf(args[2], "%d", &score); err != nil || score < 1 || score > 5 {
			return fmt.Errorf("rating must be a number from 1 to 5")
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		id, err := c.Rate(context.Background(), swapID, userID, score, rateFeedback)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Rating #%d recorded\n", id)
		return nil
	},
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <url>",
	Short: "Receive signed webhook calls when your swaps change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		id, secret, err := c.Subscribe(context.Background(), args[0], subscribeEvents)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Subscription %s created\n", id)
		fmt.Printf("Signing secret (shown once): %s\n", secret)
		return nil
	},
}
