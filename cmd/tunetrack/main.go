package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/franz/tunetrack/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "tunetrack",
		Short: "TuneTrack - sample, fingerprint and catalog audio files",
		Long: `tunetrack builds a small fingerprint catalog from a directory of audio files.

For every file it cuts a fixed-length WAV sample, fingerprints the track and the
sample with fpcalc, scores how well they agree, and records the song, sample and
fingerprint in a SQLite database.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/tunetrack.yaml)")
	rootCmd.PersistentFlags().String("db", "tunetrack.db", "catalog database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().String("ffmpeg-path", "ffmpeg", "ffmpeg binary")
	rootCmd.PersistentFlags().String("fpcalc-path", "fpcalc", "fpcalc binary")
	rootCmd.PersistentFlags().String("ffprobe-path", "ffprobe", "ffprobe binary (optional, used for durations)")
	rootCmd.PersistentFlags().Duration("tool-timeout", util.DefaultToolTimeout, "timeout for a single external tool invocation")
	rootCmd.PersistentFlags().String("events-dir", "artifacts", "directory for JSONL event logs")

	// Bind flags to viper
	for _, name := range []string{
		"db", "verbose", "quiet",
		"ffmpeg-path", "fpcalc-path", "ffprobe-path", "tool-timeout",
		"events-dir",
	} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common locations
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("tunetrack")
		viper.SetConfigType("yaml")
	}

	// TUNETRACK_TOOL_TIMEOUT and friends
	viper.SetEnvPrefix("TUNETRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
