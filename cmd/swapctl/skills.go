package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(skillsCmd, usersCmd)
	skillsCmd.AddCommand(skillsListCmd, skillsProposeCmd, skillsOfferCmd, skillsWantCmd, skillsRemoveCmd)

	skillsProposeCmd.Flags().StringVar(&proposeCategory, "category", "", "Skill category")
	skillsProposeCmd.Flags().StringVar(&proposeDescription, "description", "", "Skill description")
	skillsOfferCmd.Flags().StringVar(&offerLevel, "level", "", "Proficiency level, e.g. beginner")
	skillsOfferCmd.Flags().StringVar(&offerDescription, "description", "", "What you can teach")
	skillsWantCmd.Flags().StringVar(&offerDescription, "description", "", "What you want to learn")
	skillsRemoveCmd.Flags().BoolVar(&removeWanted, "wanted", false, "Remove from the wanted list instead of offered")

	usersCmd.Flags().StringVar(&searchSkill, "skill", "", "Only users offering a skill matching this text")
	usersCmd.Flags().StringVar(&searchAvailability, "availability", "", "Only users with this availability")
}

var (
	proposeCategory    string
	proposeDescription string
	offerLevel         string
	offerDescription   string
	removeWanted       bool
	searchSkill        string
	searchAvailability string
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Browse the skill catalogue and manage your skill lists",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approved skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := anonClient()
		if err != nil {
			return err
		}
		skills, err := c.ListSkills(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(skills)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
		for _, s := range skills {
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, s.Category)
		}
		return w.Flush()
	},
}

var skillsProposeCmd = &cobra.Command{
	Use:   "propose <name>",
	Short: "Suggest a new skill for admin approval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		id, err := c.ProposeSkill(context.Background(), args[0], proposeCategory, proposeDescription)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Skill proposed (id %d); it appears once an admin approves it\n", id)
		return nil
	},
}

var skillsOfferCmd = &cobra.Command{
	Use:   "offer <skill-id>",
	Short: "Add a skill you can teach",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skillID, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		id, err := c.OfferSkill(context.Background(), skillID, offerDescription, offerLevel)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Offered (entry #%d)\n", id)
		return nil
	},
}

var skillsWantCmd = &cobra.Command{
	Use:   "want <skill-id>",
	Short: "Add a skill you want to learn",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		skillID, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		id, err := c.WantSkill(context.Background(), skillID, offerDescription)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wanted (entry #%d)\n", id)
		return nil
	},
}

var skillsRemoveCmd = &cobra.Command{
	Use:   "remove <entry-id>",
	Short: "Remove an entry from your offered (or --wanted) list",
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
		remove := c.RemoveOffer
		if removeWanted {
			remove = c.RemoveWant
		}
		n, err := remove(context.Background(), id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("entry #%d not found in your list", id)
		}
		fmt.Printf("✓ Removed entry #%d\n", id)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Search public profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := anonClient()
		if err != nil {
			return err
		}
		rows, err := c.SearchUsers(context.Background(), searchSkill, searchAvailability)
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(rows)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tLOCATION\tAVAILABILITY\tRATING\tOFFERS\tWANTS")
		for _, u := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				u.ID, u.Username, u.Location, u.Availability, deref(u.Rating),
				strings.Join(u.SkillsOffered, ", "), strings.Join(u.SkillsWanted, ", "))
		}
		return w.Flush()
	},
}
