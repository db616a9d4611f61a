package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rraild/vuzbot/internal/config"
	"github.com/rraild/vuzbot/internal/gateway"
	"github.com/rraild/vuzbot/internal/logger"
	"github.com/rraild/vuzbot/internal/profile"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "vuzbot",
	Short: "vuzbot - telegram bot matching EGE scores against a university catalog",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot gateway",
	RunE:  runGateway,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default config file and profile database",
	RunE:  runInit,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vuzbot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

var configFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default is vuzbot.yaml in ~/.vuzbot or the current directory)")
	rootCmd.AddCommand(runCmd, initCmd, versionCmd)
}

func runGateway(cmd *cobra.Command, args []string) error {
	// Token may live in a .env next to the binary, as the early deployments
	// shipped it.
	_ = godotenv.Load()

	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.JSON, cfg.Logging.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting vuzbot", zap.String("version", version))

	gw, err := gateway.New(cfg, log)
	if err != nil {
		return err
	}
	return gw.Run(context.Background())
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	cfgPath := filepath.Join(dir, "vuzbot.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.Default()
		content := fmt.Sprintf(
			"channels:\n"+
				"  telegram:\n"+
				"    enabled: true\n"+
				"    token: \"\"\n"+
				"stores:\n"+
				"  profile-path: %s\n"+
				"  catalog-path: %s\n"+
				"  keepalive: %q\n"+
				"logging:\n"+
				"  json: false\n"+
				"  debug: false\n",
			cfg.Stores.ProfilePath, cfg.Stores.CatalogPath, cfg.Stores.Keepalive)
		if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("created %s\n", cfgPath)
	} else {
		fmt.Printf("config already exists: %s\n", cfgPath)
	}

	// Creating the store up front also creates the schema, so the catalog
	// importer has a database layout to target.
	store, err := profile.OpenStore(config.Default().Stores.ProfilePath)
	if err != nil {
		return fmt.Errorf("init profile store: %w", err)
	}
	defer store.Close()

	fmt.Println("vuzbot initialized. Put the bot token into the config (or VUZBOT_TOKEN) and run 'vuzbot run'.")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
