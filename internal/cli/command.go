package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"codeberg.org/snonux/cardfill/internal"
	"codeberg.org/snonux/cardfill/internal/profile"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cardfill [n]",
		Short: "Anki Vocabulary Deck Enricher",
		Long: `cardfill fills in the missing pieces of vocabulary notes in an Anki
collection: an example sentence and explanation generated by an LLM, and
pronunciation audio for the word, sentence and explanation.

The positional argument n is the number of notes to complete in this run.
Notes that already have everything are skipped and do not count.

Examples:
  cardfill 10                     # Complete up to 10 notes of the french profile
  cardfill --profile japanese 5   # Use the japanese deck profile
  cardfill --normalize            # Clean up note fields, no enrichment
  cardfill --prune-dupes          # Remove duplicate cards from the deck`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Anki's default profile location on Linux
	home, _ := os.UserHomeDir()
	defaultCollection := filepath.Join(home, ".local", "share", "Anki2", "User 1", "collection.anki2")

	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.cardfill.yaml)")

	// Local flags
	cmd.Flags().StringVarP(&flags.Collection, "collection", "c", defaultCollection, "Path to the Anki collection database")
	cmd.Flags().StringVarP(&flags.Profile, "profile", "p", flags.Profile,
		fmt.Sprintf("Deck profile (%s, or one defined in the config file)", strings.Join(profile.Names(), ", ")))
	cmd.Flags().StringVar(&flags.OnError, "on-error", flags.OnError, "Per-note failure policy: continue or abort")
	cmd.Flags().BoolVar(&flags.SortIDs, "sort", false, "Process notes in ascending note ID order")
	cmd.Flags().BoolVar(&flags.Normalize, "normalize", false, "Normalize note fields (strip markup, lowercase words) and exit")
	cmd.Flags().BoolVar(&flags.PruneDupes, "prune-dupes", false, "Remove duplicate cards from the deck and exit")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")

	// Provider overrides, empty means use the profile's setting
	cmd.Flags().StringVar(&flags.TextProvider, "text-provider", "", "Text generation provider: openai or gemini (default: profile setting)")
	cmd.Flags().StringVar(&flags.TextModel, "text-model", "", "Text generation model (default: profile setting)")
	cmd.Flags().StringVar(&flags.AudioProvider, "audio-provider", "", "Speech provider: elevenlabs or openai (default: profile setting)")
	cmd.Flags().StringVar(&flags.AudioFormat, "format", "", "Audio format, mp3 or wav (default: profile setting)")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0)")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("collection", cmd.Flags().Lookup("collection"))
	viper.BindPFlag("profile", cmd.Flags().Lookup("profile"))
	viper.BindPFlag("on_error", cmd.Flags().Lookup("on-error"))
	viper.BindPFlag("sort", cmd.Flags().Lookup("sort"))
	viper.BindPFlag("text.provider", cmd.Flags().Lookup("text-provider"))
	viper.BindPFlag("text.model", cmd.Flags().Lookup("text-model"))
	viper.BindPFlag("audio.provider", cmd.Flags().Lookup("audio-provider"))
	viper.BindPFlag("audio.format", cmd.Flags().Lookup("format"))
	viper.BindPFlag("audio.openai_speed", cmd.Flags().Lookup("openai-speed"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// API keys may live in a .env file next to the binary
	gotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".cardfill" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cardfill")
	}

	// Environment variables
	viper.SetEnvPrefix("CARDFILL")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("openai_key")
}

// GetElevenLabsKey retrieves the ElevenLabs API key from environment or config
func GetElevenLabsKey() string {
	if key := os.Getenv("ELEVENLABS_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("elevenlabs_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("gemini_key")
}
