// Package main provides a terminal client for the fixy assistant API.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	serverURL string
	token     string
	tenantID  string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "fixy",
		Short:   "Chat with the fixy artisan assistant",
		Version: version,
		RunE:    runChat,
	}

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("FIXY_SERVER", "http://localhost:8080"), "API base URL (or FIXY_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", os.Getenv("FIXY_TOKEN"), "Bearer token (or FIXY_TOKEN)")
	rootCmd.Flags().StringVar(&tenantID, "tenant", os.Getenv("FIXY_TENANT"), "Artisan profile id (or FIXY_TENANT)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List the assistant tools",
		RunE:  runTools,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	if tenantID == "" {
		return fmt.Errorf("--tenant is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s as tenant %s\n", serverURL, tenantID)
	chat := NewChat(NewClient(serverURL, token), tenantID, cmd.InOrStdin(), cmd.OutOrStdout())
	return chat.Run(ctx)
}

func runTools(cmd *cobra.Command, _ []string) error {
	catalog, err := NewClient(serverURL, token).Tools(cmd.Context())
	if err != nil {
		return err
	}
	printCatalog(cmd.OutOrStdout(), catalog)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
