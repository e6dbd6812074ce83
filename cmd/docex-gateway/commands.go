// ABOUTME: init, health, and hash-code subcommands
// ABOUTME: health probes the HTTP endpoint or, with --grpc, the gRPC health service

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/2389/docex-gateway/internal/access"
	"github.com/2389/docex-gateway/internal/api"
	"github.com/2389/docex-gateway/internal/config"
)

// initAnswers holds the values gathered by runInit.
type initAnswers struct {
	HTTPAddr         string
	GRPCAddr         string
	MockMode         string
	DocumentURL      string
	SummarizationURL string
	AccessCodes      string
	TailscaleEnabled bool
	TSHostname       string
	TSFunnel         bool
	LogLevel         string
	LogFormat        string
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("docex-gateway configuration setup")
	fmt.Println("=================================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Println("\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, "HTTP address", config.DefaultHTTPAddr)
	a.GRPCAddr = prompt(reader, "gRPC health address (empty to disable)", "")

	fmt.Println("\n--- Upstream Services ---")
	a.MockMode = prompt(reader, "Mock mode (auto/on/off)", config.MockAuto)
	a.DocumentURL = prompt(reader, "Document server URL", config.DefaultDocumentURL)
	a.SummarizationURL = prompt(reader, "Summarization server URL", config.DefaultSummarizationURL)
	a.AccessCodes = prompt(reader, "Access codes (comma-separated, or ${VALID_ACCESS_KEYS})", "${VALID_ACCESS_KEYS}")

	fmt.Println("\n--- Tailscale Configuration ---")
	a.TailscaleEnabled = isYes(prompt(reader, "Enable Tailscale?", "no"))
	if a.TailscaleEnabled {
		a.TSHostname = prompt(reader, "Tailscale hostname", "docex-gateway")
		a.TSFunnel = isYes(prompt(reader, "Enable Funnel (public HTTPS)?", "no"))
	}

	fmt.Println("\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, "Log format (text/json)", "text")

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("Azure OpenAI settings are read from AZURE_OPENAI_* environment variables.")
	fmt.Println("\nTo start the server:")
	fmt.Printf("  docex-gateway serve\n")
	return nil
}

// renderConfig produces the YAML written by init.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# docex-gateway configuration\n")
	cfg.WriteString("# Generated by docex-gateway init\n\n")

	cfg.WriteString("server:\n")
	fmt.Fprintf(&cfg, "  http_addr: %q\n", a.HTTPAddr)
	if a.GRPCAddr != "" {
		fmt.Fprintf(&cfg, "  grpc_addr: %q\n", a.GRPCAddr)
	}
	cfg.WriteString("\n")

	cfg.WriteString("mock:\n")
	fmt.Fprintf(&cfg, "  mode: %q\n\n", a.MockMode)

	cfg.WriteString("upstream:\n")
	cfg.WriteString("  document:\n")
	fmt.Fprintf(&cfg, "    url: %q\n", a.DocumentURL)
	cfg.WriteString("    timeout: \"30s\"\n")
	cfg.WriteString("  summarization:\n")
	fmt.Fprintf(&cfg, "    url: %q\n", a.SummarizationURL)
	cfg.WriteString("    timeout: \"30s\"\n\n")

	cfg.WriteString("azure_openai:\n")
	cfg.WriteString("  api_key: \"${AZURE_OPENAI_KEY}\"\n")
	cfg.WriteString("  endpoint: \"${AZURE_OPENAI_ENDPOINT}\"\n")
	cfg.WriteString("  deployment: \"${AZURE_OPENAI_DEPLOYMENT_NAME}\"\n\n")

	cfg.WriteString("access:\n")
	cfg.WriteString("  codes:\n")
	fmt.Fprintf(&cfg, "    - %q\n\n", a.AccessCodes)

	cfg.WriteString("tailscale:\n")
	fmt.Fprintf(&cfg, "  enabled: %t\n", a.TailscaleEnabled)
	if a.TailscaleEnabled {
		fmt.Fprintf(&cfg, "  hostname: %q\n", a.TSHostname)
		fmt.Fprintf(&cfg, "  funnel: %t\n", a.TSFunnel)
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	fmt.Fprintf(&cfg, "  level: %q\n", a.LogLevel)
	fmt.Fprintf(&cfg, "  format: %q\n", a.LogFormat)
	return cfg.String()
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func runHealth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	useGRPC := fs.Bool("grpc", false, "query the gRPC health service instead of HTTP")
	service := fs.String("service", "", "gRPC health service name (empty for overall)")
	timeout := fs.Duration("timeout", 5*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if *useGRPC {
		return grpcHealth(ctx, cfg.Server.GRPCAddr, *service, os.Stdout)
	}
	return httpHealth(ctx, dialAddr(cfg.Server.HTTPAddr), os.Stdout)
}

// dialAddr turns a listen address into one a local client can dial.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func httpHealth(ctx context.Context, addr string, out io.Writer) error {
	url := fmt.Sprintf("http://%s%s", addr, api.PathHealth)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	var status api.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding health response: %w", err)
	}

	pretty, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(pretty))

	if resp.StatusCode != http.StatusOK || status.Status != api.StatusHealthy {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func grpcHealth(ctx context.Context, addr, service string, out io.Writer) error {
	if addr == "" {
		return errors.New("server.grpc_addr is not configured")
	}

	conn, err := grpc.NewClient(dialAddr(addr), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	b, err := protojson.MarshalOptions{Multiline: true, EmitUnpopulated: true}.Marshal(resp)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(b))

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("unhealthy: %s", resp.GetStatus())
	}
	return nil
}

func runHashCode(args []string) error {
	var code string
	switch len(args) {
	case 0:
		fmt.Fprint(os.Stderr, "Access code: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading access code: %w", err)
		}
		code = line
	case 1:
		code = args[0]
	default:
		return errors.New("usage: docex-gateway hash-code [CODE]")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("access code cannot be empty")
	}

	hash, err := access.Hash(code)
	if err != nil {
		return fmt.Errorf("hashing access code: %w", err)
	}
	fmt.Println(hash)
	return nil
}
