// ABOUTME: Entry point for the docex-gateway server
// ABOUTME: Subcommands to serve, write a starter config, probe health, and hash access codes

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/docex-gateway/internal/config"
	"github.com/2389/docex-gateway/internal/gateway"
)

// version is overridden with -ldflags "-X main.version=..." in release builds.
var version = "dev"

const banner = `
     _                                         _
  __| | ___   ___ _____  __      __ _  __ _| |_ _____      ____ _ _   _
 / _' |/ _ \ / __/ _ \ \/ /____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
| (_| | (_) | (_|  __/>  <_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
 \__,_|\___/ \___\___/_/\_\     \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                                |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: DOCEX_CONFIG env var > XDG_CONFIG_HOME/docex/gateway.yaml > ~/.config/docex/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("DOCEX_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "docex", "gateway.yaml")
}

// loadConfig loads .env, then the config file if one exists, else the environment.
// The returned source names where the configuration came from.
func loadConfig() (cfg *config.Config, source string, err error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", fmt.Errorf("loading .env: %w", err)
	}

	path := getConfigPath()
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("loading config: %w", err)
		}
		return cfg, path, nil
	}

	cfg, err = config.LoadFromEnv()
	if err != nil {
		return nil, "", fmt.Errorf("loading config from environment: %w", err)
	}
	return cfg, "environment", nil
}

func usage() {
	fmt.Println("Usage: docex-gateway <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                    Start the gateway server")
	fmt.Println("  init                     Create a new config file interactively")
	fmt.Println("  health [--grpc]          Check gateway health")
	fmt.Println("  hash-code [CODE]         Print a bcrypt hash for an access code")
	fmt.Println("  version                  Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx, os.Args[2:])
	case "hash-code":
		err = runHashCode(os.Args[2:])
	case "version":
		fmt.Println(version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, source, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", source)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	if cfg.Server.GRPCAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("gRPC:      %s\n", cfg.Server.GRPCAddr)
	}

	green.Print("    ▶ ")
	fmt.Printf("Mode:      ")
	if cfg.MockEnabled() {
		yellow.Println("mock")
	} else {
		fmt.Printf("upstream (%s, %s)\n", cfg.Upstream.Document.URL, summarizerTarget(cfg))
	}

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	logger.Info("starting docex-gateway",
		"config", source,
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
		"mock", cfg.MockEnabled(),
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func summarizerTarget(cfg *config.Config) string {
	if cfg.AzureOpenAI.Configured() {
		return "azure openai " + cfg.AzureOpenAI.Deployment
	}
	return cfg.Upstream.Summarization.URL
}
