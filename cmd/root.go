package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/beanboi7/chyp8/chyp"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "chyp8 [command]",
	Short:        "Chip-8 emulator using Go",
	Long:         "A Chip-8 emulator written from scratch that mimics the functionalities of a Chip-8, an interpretted language originally written for the COSMIC-VIP/ Telmac 8 bit systems.",
	Run:          Root,
	SilenceUsage: true,
}

func Root(cmd *cobra.Command, args []string) {
	fmt.Fprintln(cmd.OutOrStdout(), "Enter command as `chyp8 start /path/ROM`")
}

func init() {
	cobra.OnInitialize(initConfig)
	chyp.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chyp8.yaml)")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-file", "", "write logs to this file instead of stderr")
	bindFlags(flags, "config")
}

// bindFlags binds every flag except skip to the viper key of the same name
// with dashes turned into underscores.
func bindFlags(flags *pflag.FlagSet, skip ...string) {
	flags.VisitAll(func(f *pflag.Flag) {
		for _, s := range skip {
			if f.Name == s {
				return
			}
		}
		cobra.CheckErr(viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f))
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".chyp8" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".chyp8")
	}

	viper.SetEnvPrefix("chyp8")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		cobra.CheckErr(fmt.Errorf("reading config %s: %w", cfgFile, err))
	}
}
