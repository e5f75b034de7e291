package cmd

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// VERSION is set during build
	VERSION string
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "starvis",
	Short: "CLI tool to list, search, and extract entries from game data archives",
	Long: `starvis indexes a game data archive (a zip64-style container with
raw-deflate entries) and lets you explore or extract its entries without
unpacking the whole file.

	example:

		starvis ls Data.p4k a/
		starvis find Data.p4k .xml
		starvis extract Data.p4k -f a/one.xml -o one.xml
		starvis extract Data.p4k --all --dir ./out`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		log.SetLevel(lvl)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(version string) {
	VERSION = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.starvis.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (trace, debug, info, warning, error)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".starvis" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".starvis")
	}

	viper.SetEnvPrefix("starvis")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("using config file: %s", viper.ConfigFileUsed())
	}
}
