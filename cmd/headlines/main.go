package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/cenkalti/headlines"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var logLevel string

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load .env file when present
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("Error loading .env file")
	}

	// Set configuration for the headlines package
	headlines.Config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	headlines.Config.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	headlines.Config.EmbeddingModel = os.Getenv("EMBEDDING_MODEL")
	headlines.Config.AzureOpenAIEndpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	headlines.Config.AzureOpenAIAPIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	headlines.Config.AzureOpenAIDeployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT")

	rootCmd := &cobra.Command{
		Use:           "headlines",
		Short:         "News article clustering CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	// Add all commands from the headlines package
	rootCmd.AddCommand(headlines.EmbedArticlesCmd)
	rootCmd.AddCommand(headlines.ExtractEntitiesCmd)
	rootCmd.AddCommand(headlines.ClusterArticlesCmd)
	rootCmd.AddCommand(headlines.GenerateHTMLCmd)
	runCmd.Flags().AddFlagSet(headlines.ClusterArticlesCmd.Flags())
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: cluster-articles -> generate-html",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Msg("Running full pipeline...")
		headlines.ClusterArticlesCmd.SetContext(cmd.Context())
		if err := headlines.ClusterArticlesCmd.RunE(headlines.ClusterArticlesCmd, nil); err != nil {
			return err
		}
		// The cluster command's flag set was parsed, so --output and --prefix carry over.
		if err := headlines.GenerateHTMLCmd.RunE(headlines.ClusterArticlesCmd, nil); err != nil {
			return err
		}
		log.Info().Msg("Pipeline complete.")
		return nil
	},
}

var (
	cleanConfigPath string
	cleanOutputDir  string
	cleanPrefix     string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove generated reports and the embedding cache",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := headlines.ResolveClusterConfig(cleanConfigPath)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load cluster configuration")
			return
		}
		dir := cfg.ReportDir()
		if cmd.Flags().Changed("output") {
			dir = cleanOutputDir
		}
		prefix := cfg.Prefix
		if cmd.Flags().Changed("prefix") {
			prefix = cleanPrefix
		}

		removed, err := headlines.CleanReports(dir, prefix)
		if err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("Failed to clean reports")
		}

		// Remove the cache database
		if err := os.Remove(headlines.DefaultStorePath); err != nil {
			if !os.IsNotExist(err) {
				log.Error().Err(err).Msg("Failed to remove cache database")
			}
		}

		log.Info().Int("reports", removed).Str("dir", dir).Msg("Cleaned reports and cache database.")
	},
}

func init() {
	cleanCmd.Flags().StringVar(&cleanConfigPath, "config", "", "YAML cluster configuration (default cluster.yaml when present)")
	cleanCmd.Flags().StringVar(&cleanOutputDir, "output", "", "report output directory")
	cleanCmd.Flags().StringVar(&cleanPrefix, "prefix", "", "report file name prefix")
}
