/*
Package main is the entry point for the readwise-mcp server.

readwise-mcp exposes a Readwise account (Reader documents and Highlights) to
MCP clients over stdio.

Usage:

	readwise-mcp [command]

Available Commands:

	serve       Run the MCP server on stdio (default)
	verify      Check the configured token against Readwise
	version     Print version information

The token is read from READWISE_TOKEN or the [readwise] section of a TOML
config file passed with --config.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/readwise-mcp/internal/common"
	"github.com/ternarybob/readwise-mcp/internal/readwise"
	"github.com/ternarybob/readwise-mcp/internal/services/cache"
	"github.com/ternarybob/readwise-mcp/internal/services/library"
	"github.com/ternarybob/readwise-mcp/internal/services/transform"
)

const verifyTimeout = 15 * time.Second

func main() {
	var configPaths []string

	rootCmd := &cobra.Command{
		Use:           common.AppName,
		Short:         "MCP server for Readwise Reader and Highlights",
		Version:       common.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPaths)
		},
	}
	rootCmd.PersistentFlags().StringSliceVarP(&configPaths, "config", "c", nil, "Configuration file path(s); later files override earlier ones")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPaths)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Verify the Readwise token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), configPaths)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			common.PrintBanner(common.GetVersion())
			fmt.Println(common.GetFullVersion())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration.
func loadConfig(paths []string) (*common.Config, error) {
	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// newLibraryService wires the HTTP client, cache and service layer from config.
func newLibraryService(config *common.Config, logger arbor.ILogger) (*library.Service, error) {
	timeout, err := config.Readwise.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	ttl, err := config.Cache.TTLDuration()
	if err != nil {
		return nil, err
	}

	client, err := readwise.NewClient(config.Readwise.Token,
		readwise.WithBaseURL(config.Readwise.BaseURL),
		readwise.WithV2BaseURL(config.Readwise.V2BaseURL),
		readwise.WithAuthURL(config.Readwise.AuthURL),
		readwise.WithTimeout(timeout),
		readwise.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Readwise client: %w", err)
	}

	cacheService := cache.NewService(ttl, logger, cache.WithMaxEntries(config.Cache.MaxEntries))

	return library.NewService(client, cacheService, library.Limits{
		DefaultLimit:   config.Content.DefaultLimit,
		MaxFullContent: config.Content.MaxFullContent,
		MaxPages:       config.Content.MaxPages,
	}, logger), nil
}

func runServe(configPaths []string) error {
	config, err := loadConfig(configPaths)
	if err != nil {
		return err
	}

	// stdout carries the protocol
	config.Logging.Output = withoutConsole(config.Logging.Output)
	logger := common.InitLogger(config)

	svc, err := newLibraryService(config, logger)
	if err != nil {
		return err
	}

	mcpServer := newMCPServer(svc, transform.NewService(logger), serverOptions{
		RequestsPerSecond: config.RateLimit.RequestsPerSecond,
		Burst:             config.RateLimit.Burst,
		DefaultMaxLength:  config.Content.DefaultMaxLength,
		FullContentLimit:  config.Content.DefaultLimit,
	}, logger)

	logger.Info().
		Str("version", common.GetVersion()).
		Str("base_url", config.Readwise.BaseURL).
		Str("v2_base_url", config.Readwise.V2BaseURL).
		Msg("Starting MCP server on stdio")

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
		return err
	}
	return nil
}

func runVerify(ctx context.Context, configPaths []string) error {
	config, err := loadConfig(configPaths)
	if err != nil {
		return err
	}
	logger := common.InitLogger(config)

	svc, err := newLibraryService(config, logger)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	if err := svc.ValidateAuth(ctx); err != nil {
		return fmt.Errorf("token verification failed: %s", readwise.UserMessage(err))
	}
	fmt.Println("Readwise token is valid")
	return nil
}

func withoutConsole(outputs []string) []string {
	kept := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o != "stdout" && o != "console" {
			kept = append(kept, o)
		}
	}
	return kept
}
