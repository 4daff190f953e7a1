package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmerrifield20/SkillSwap/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL  string
	cfgFile    string
	sessionDir string
	outputJSON bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "SkillSwap command-line client",
	Long: `swapctl talks to a SkillSwap server: browse skills and people, send and
answer swap requests, track progress, rate partners, and run admin tasks.

Sign in once with 'swapctl login'; the session is kept in ~/.skillswap/.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		if sessionDir == "" {
			sessionDir = filepath.Join(home, ".skillswap")
		}
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath(sessionDir)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.SetEnvPrefix("SKILLSWAP")
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.skillswap/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "SkillSwap server URL (default from session or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&sessionDir, "session-dir", "", "directory holding the saved session (default ~/.skillswap)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "print raw JSON instead of tables")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the swapctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("swapctl", version)
	},
}

// anonClient returns a client without credentials.
func anonClient() (*client.Client, error) {
	return client.New(resolveServer(nil))
}

// authedClient returns a client carrying the saved session token.
func authedClient() (*client.Client, *client.Session, error) {
	s, err := client.LoadSession(sessionDir)
	if err != nil {
		if errors.Is(err, client.ErrNoSession) {
			return nil, nil, fmt.Errorf("not signed in; run 'swapctl login' first")
		}
		return nil, nil, err
	}
	c, err := client.New(resolveServer(s), client.WithBearerToken(s.Token))
	if err != nil {
		return nil, nil, err
	}
	return c, s, nil
}

func resolveServer(s *client.Session) string {
	switch {
	case serverURL != "":
		return serverURL
	case s != nil && s.BaseURL != "":
		return s.BaseURL
	default:
		return "http://localhost:8080"
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
