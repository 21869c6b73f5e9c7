package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jkarlos000/sw1-p1/internal/bootstrap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "sw1-server",
	Short:         "Collaborative UML diagram server",
	Long:          "Serves the HTTP API and the real-time websocket hub for collaborative diagram rooms.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := bootstrap.LoadConfig()
		bootstrap.NewLogger(cfg)
		if err := bootstrap.Migrate(cfg); err != nil {
			return err
		}
		logrus.Info("Database migrated")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.NewApp(bootstrap.LoadConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if err := app.Start(); err != nil {
		app.Shutdown()
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutdown signal received...")

	app.Shutdown()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}
