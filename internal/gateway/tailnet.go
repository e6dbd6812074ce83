// ABOUTME: Optional tailnet exposure of the gateway through an embedded tsnet node
// ABOUTME: Serves the HTTP API as plain HTTP, tailnet TLS, or a public Funnel

package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/docex-gateway/internal/config"
)

// tailscaleGRPCPort is the tailnet port of the gRPC health service.
const tailscaleGRPCPort = ":50051"

var errTailnetAuthKey = errors.New("tailscale auth key required: set tailscale.auth_key or TS_AUTHKEY")

// exposure is how the HTTP API is offered on the tailnet.
type exposure int

const (
	exposePlain exposure = iota
	exposeTLS
	exposeFunnel
)

// exposureFor picks the exposure for ts. Funnel implies TLS.
func exposureFor(ts config.TailscaleConfig) exposure {
	switch {
	case ts.Funnel:
		return exposeFunnel
	case ts.HTTPS:
		return exposeTLS
	default:
		return exposePlain
	}
}

func (e exposure) port() string {
	if e == exposePlain {
		return ":80"
	}
	return ":443"
}

func (e exposure) String() string {
	switch e {
	case exposeFunnel:
		return "funnel"
	case exposeTLS:
		return "https"
	default:
		return "http"
	}
}

// tailnetStateDir returns the node state directory, defaulting under the
// user's data dir.
func tailnetStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("no home directory for tailscale state, set tailscale.state_dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "docex-gateway", "tailscale"), nil
}

// tailnetAuthKey prefers the configured key over TS_AUTHKEY.
func tailnetAuthKey(configured string) (string, error) {
	for _, k := range []string{configured, os.Getenv("TS_AUTHKEY")} {
		if k != "" {
			return k, nil
		}
	}
	return "", errTailnetAuthKey
}

// nodeIdentity returns the node's first tailnet address and its MagicDNS name.
func nodeIdentity(st *ipnstate.Status) (addr, dnsName string) {
	if st == nil {
		return "", ""
	}
	if len(st.TailscaleIPs) > 0 {
		addr = st.TailscaleIPs[0].String()
	}
	if st.Self != nil {
		dnsName = strings.TrimSuffix(st.Self.DNSName, ".")
	}
	return addr, dnsName
}

// startTailnet brings up the tsnet node and opens the HTTP listener plus, when
// the gRPC health service is enabled, its listener. Everything opened is
// closed again on error.
func (g *Gateway) startTailnet(ctx context.Context) (httpLn, grpcLn net.Listener, err error) {
	ts := g.config.Tailscale

	dir, err := tailnetStateDir(ts.StateDir)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}
	key, err := tailnetAuthKey(ts.AuthKey)
	if err != nil {
		return nil, nil, err
	}

	var opened []io.Closer
	defer func() {
		if err == nil {
			return
		}
		for i := len(opened) - 1; i >= 0; i-- {
			_ = opened[i].Close()
		}
	}()

	node := &tsnet.Server{Hostname: ts.Hostname, Dir: dir, Ephemeral: ts.Ephemeral, AuthKey: key}
	opened = append(opened, node)

	g.logger.Info("starting tailscale node", "hostname", ts.Hostname, "state_dir", dir, "ephemeral", ts.Ephemeral)
	status, err := node.Up(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("starting tailscale: %w", err)
	}

	addr, dnsName := nodeIdentity(status)
	if addr == "" {
		g.logger.Warn("tailscale node has no address assigned")
	}
	mode := exposureFor(ts)
	g.logger.Info("tailscale node ready",
		"hostname", ts.Hostname,
		"tailscale_ip", addr,
		"dns_name", dnsName,
		"exposure", mode.String(),
		"port", mode.port(),
	)

	httpLn, err = listenExposure(node, mode)
	if err != nil {
		return nil, nil, err
	}
	opened = append(opened, httpLn)

	if g.grpcServer != nil {
		grpcLn, err = node.Listen("tcp", tailscaleGRPCPort)
		if err != nil {
			return nil, nil, fmt.Errorf("listening on tailnet gRPC port: %w", err)
		}
	}

	g.tsnetServer = node
	return httpLn, grpcLn, nil
}

// listenExposure opens the HTTP API listener on node. TLS uses the
// certificates tailscale provisions for the node's MagicDNS name.
func listenExposure(node *tsnet.Server, mode exposure) (net.Listener, error) {
	if mode == exposeFunnel {
		ln, err := node.ListenFunnel("tcp", mode.port())
		if err != nil {
			return nil, fmt.Errorf("listening on tailscale funnel: %w", err)
		}
		return ln, nil
	}

	ln, err := node.Listen("tcp", mode.port())
	if err != nil {
		return nil, fmt.Errorf("listening on tailnet %s port: %w", mode, err)
	}
	if mode == exposePlain {
		return ln, nil
	}

	lc, err := node.LocalClient()
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("getting tailscale local client: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		GetCertificate: lc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}), nil
}
