// ABOUTME: Tests for the tailnet helpers: exposure choice, state dir, auth key, node identity
// ABOUTME: No tsnet node is started; only the pure parts are exercised

package gateway

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailscale.com/ipn/ipnstate"

	"github.com/2389/docex-gateway/internal/config"
)

func TestExposureFor(t *testing.T) {
	tests := []struct {
		name string
		ts   config.TailscaleConfig
		want exposure
		port string
		str  string
	}{
		{"plain", config.TailscaleConfig{}, exposePlain, ":80", "http"},
		{"https", config.TailscaleConfig{HTTPS: true}, exposeTLS, ":443", "https"},
		{"funnel", config.TailscaleConfig{Funnel: true}, exposeFunnel, ":443", "funnel"},
		{"funnel wins", config.TailscaleConfig{Funnel: true, HTTPS: true}, exposeFunnel, ":443", "funnel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exposureFor(tt.ts)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.port, got.port())
			assert.Equal(t, tt.str, got.String())
		})
	}
}

func TestTailnetAuthKey(t *testing.T) {
	t.Setenv("TS_AUTHKEY", "")
	_, err := tailnetAuthKey("")
	assert.ErrorIs(t, err, errTailnetAuthKey)

	t.Setenv("TS_AUTHKEY", "tskey-env")
	key, err := tailnetAuthKey("tskey-config")
	require.NoError(t, err)
	assert.Equal(t, "tskey-config", key)

	key, err = tailnetAuthKey("")
	require.NoError(t, err)
	assert.Equal(t, "tskey-env", key)
}

func TestTailnetStateDir(t *testing.T) {
	dir, err := tailnetStateDir("/tmp/ts")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ts", dir)

	t.Setenv("HOME", "/home/docex")
	dir, err = tailnetStateDir("")
	require.NoError(t, err)
	assert.Equal(t, "/home/docex/.local/share/docex-gateway/tailscale", dir)
}

func TestNodeIdentity(t *testing.T) {
	addr, dns := nodeIdentity(nil)
	assert.Empty(t, addr)
	assert.Empty(t, dns)

	addr, dns = nodeIdentity(&ipnstate.Status{})
	assert.Empty(t, addr)
	assert.Empty(t, dns)

	addr, dns = nodeIdentity(&ipnstate.Status{
		TailscaleIPs: []netip.Addr{netip.MustParseAddr("100.64.0.7"), netip.MustParseAddr("fd7a:115c:a1e0::7")},
		Self:         &ipnstate.PeerStatus{DNSName: "docex.tailnet.ts.net."},
	})
	assert.Equal(t, "100.64.0.7", addr)
	assert.Equal(t, "docex.tailnet.ts.net", dns)
}
