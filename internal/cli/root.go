package cli

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/maialino123/ecomate-extract/internal/app"
	"github.com/maialino123/ecomate-extract/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ecomate",
	Short: "Extract structured product data from 1688.com offer pages",
	Long: `Ecomate captures 1688.com offer pages and turns them into validated product
records: title, price tiers, SKU variants, images and supplier.

Pages are captured over plain HTTP first and in headless Chrome when the
static page carries no product data. Records can be exported as JSON,
markdown or CSV, or served to MCP clients.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

// activeApp is the Application of the running command, closed by closeApp.
var activeApp *app.Application

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		configureLogging(cfg)

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		activeApp = a
		SetApp(cmd, a)
		return nil
	}

	// Finalizers run even when the command fails, so the browser pool never leaks.
	cobra.OnFinalize(closeApp)
}

func init() {
	// Register centralized flags
	config.RegisterFlags(rootCmd)

	// Customize help and version flag descriptions
	rootCmd.Flags().BoolP("help", "h", false, "Help for ecomate")
	rootCmd.Flags().Bool("version", false, "Version for ecomate")
}

func closeApp() {
	if activeApp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), activeApp.Config.HTTPTimeout)
	defer cancel()
	_ = activeApp.Close(ctx)
	activeApp = nil
}

// configureLogging points the global zerolog logger at stderr, as console
// text or JSON lines.
func configureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.JSONLog {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Debug().
		Str("level", level.String()).
		Bool("json", cfg.JSONLog).
		Str("mode", cfg.Mode).
		Msg("Configuration loaded")
}

func init() {
	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.SetHelpFunc(helpFunc)
	rootCmd.SetUsageFunc(usageFunc)
}
