package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmerrifield20/SkillSwap/pkg/client"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)

	registerCmd.Flags().StringVar(&regEmail, "email", "", "Email address")
	registerCmd.Flags().StringVar(&regName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&regLocation, "location", "", "Location")
	registerCmd.Flags().StringVar(&regAvailability, "availability", "", "Availability, e.g. weekends")
	_ = registerCmd.MarkFlagRequired("email")
}

var (
	regEmail        string
	regName         string
	regLocation     string
	regAvailability string
)

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword()
		if err != nil {
			return err
		}
		c, err := anonClient()
		if err != nil {
			return err
		}
		id, err := c.Register(context.Background(), client.RegisterRequest{
			Username:     args[0],
			Email:        regEmail,
			Password:     password,
			Name:         regName,
			Location:     regLocation,
			Availability: regAvailability,
		})
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		fmt.Printf("✓ Account created (id %d)\n", id)
		fmt.Printf("Next: swapctl login %s\n", args[0])
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in and save the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword()
		if err != nil {
			return err
		}
		c, err := anonClient()
		if err != nil {
			return err
		}
		user, err := c.Login(context.Background(), args[0], password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if err := client.SaveSession(sessionDir, client.Session{
			BaseURL:  resolveServer(nil),
			Token:    c.Token(),
			Username: user.Username,
			UserID:   user.ID,
			IsAdmin:  user.IsAdmin,
		}); err != nil {
			return err
		}
		fmt.Printf("✓ Signed in as %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.ClearSession(sessionDir); err != nil {
			return err
		}
		fmt.Println("✓ Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		p, err := c.Profile(context.Background())
		if err != nil {
			return err
		}
		if outputJSON {
			return printJSON(p)
		}
		fmt.Printf("ID:           %d\n", p.ID)
		fmt.Printf("Username:     %s\n", p.Username)
		fmt.Printf("Email:        %s\n", p.Email)
		fmt.Printf("Name:         %s\n", p.Name)
		fmt.Printf("Location:     %s\n", p.Location)
		fmt.Printf("Availability: %s\n", p.Availability)
		fmt.Printf("Public:       %v\n", p.IsPublic)
		printSkillRefs("Offers", p.SkillsOffered)
		printSkillRefs("Wants", p.SkillsWanted)
		return nil
	},
}

func printSkillRefs(label string, refs []client.SkillRef) {
	if len(refs) == 0 {
		fmt.Printf("%-13s -\n", label+":")
		return
	}
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = fmt.Sprintf("%s [#%d]", r.Name, r.UserSkillID)
	}
	fmt.Printf("%-13s %s\n", label+":", strings.Join(names, ", "))
}

// promptPassword reads a password from SKILLSWAP_PASSWORD or stdin.
func promptPassword() (string, error) {
	if p := os.Getenv("SKILLSWAP_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
