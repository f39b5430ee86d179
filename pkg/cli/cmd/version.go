package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repovault/repovault/pkg/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the repovault version information",
	Long:  `Display detailed version information about the repovault binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
