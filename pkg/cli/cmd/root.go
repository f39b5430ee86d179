package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/repovault/repovault/pkg/cli/format"
	"github.com/repovault/repovault/pkg/log"
	"github.com/repovault/repovault/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "repovault",
	Short: "repovault - GitHub repository backups in S3",
	Long: `repovault archives every repository visible to a GitHub App
installation into an S3 bucket, one zip snapshot of the default branch
per repository per run, and restores selected archives on demand.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is specified, display the help
		if len(args) == 0 {
			cmd.Help()
			return
		}
	},
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Fatal errors surface here: the failing operation is printed and the process
// exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, format.Error("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.repovault/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	// Add global environment variables
	viper.SetEnvPrefix("REPOVAULT")
	viper.AutomaticEnv() // read in environment variables that match
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name "config" (without extension).
		viper.AddConfigPath(home + "/.repovault")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}

	configureLogging()
}

// configureLogging builds the default logger from config and the --verbose
// flag.
func configureLogging() {
	level := log.ParseLevel(viper.GetString("log.level"))
	if verbose {
		level = log.DebugLevel
	}

	var formatter log.Formatter
	if viper.GetString("log.format") == "json" {
		formatter = &log.JSONFormatter{}
	} else {
		formatter = log.NewTextFormatter()
	}

	log.SetDefaultLogger(log.NewLogger(
		log.WithLevel(level),
		log.WithFormatter(formatter),
	))
}
