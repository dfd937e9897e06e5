// Package cli implements the babyplate command line.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	envFile    string

	groupTitleColor = color.New(color.FgCyan, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:     "babyplate",
	Version: "dev",
	Short:   "Baby meal planning with offline-first sync",
	Long: `babyplate recommends age-appropriate meal plans for babies and keeps the
saved plans in sync between devices and a remote authority.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version printed by --version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional env file read before the environment")

	rootCmd.AddGroup(
		&cobra.Group{ID: "planning", Title: groupTitleColor.Sprint("Planning:")},
		&cobra.Group{ID: "sync", Title: groupTitleColor.Sprint("Sync:")},
		&cobra.Group{ID: "server", Title: groupTitleColor.Sprint("Servers:")},
	)

	for _, c := range []*cobra.Command{generateCmd, exportCmd, seedCmd} {
		c.GroupID = "planning"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{syncCmd, auditCmd} {
		c.GroupID = "sync"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{serveCmd, authorityCmd} {
		c.GroupID = "server"
		rootCmd.AddCommand(c)
	}
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
