// ABOUTME: Standard gRPC health service reflecting upstream client availability
// ABOUTME: Service statuses are refreshed from the same probes as GET /api/health

package gateway

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/2389/docex-gateway/internal/api"
)

// gRPC health service names. The empty name is the overall status.
const (
	ServiceOverall    = ""
	ServiceDocument   = "docex.DocumentVerifier"
	ServiceSummarizer = "docex.Summarizer"
)

func registerHealthService(server *grpc.Server, hs *health.Server) {
	healthpb.RegisterHealthServer(server, hs)
	for _, name := range []string{ServiceOverall, ServiceDocument, ServiceSummarizer} {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// updateHealth probes the clients once and publishes the result.
func (g *Gateway) updateHealth(ctx context.Context) api.ClientStatus {
	status := g.clientStatus(ctx)
	if g.health == nil {
		return status
	}
	g.health.SetServingStatus(ServiceDocument, servingStatus(status.DocumentClient))
	g.health.SetServingStatus(ServiceSummarizer, servingStatus(status.SummarizationClient))
	g.health.SetServingStatus(ServiceOverall, servingStatus(status.DocumentClient || status.SummarizationClient))
	return status
}

// runHealthUpdater refreshes the gRPC health status until ctx is done.
func (g *Gateway) runHealthUpdater(ctx context.Context) {
	status := g.updateHealth(ctx)
	g.logger.Debug("health updated", "document", status.DocumentClient, "summarization", status.SummarizationClient)

	ticker := time.NewTicker(g.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := status
			status = g.updateHealth(ctx)
			if status != prev {
				g.logger.Info("client availability changed",
					"document", status.DocumentClient,
					"summarization", status.SummarizationClient,
				)
			}
		}
	}
}

// clientStatus reports which clients are configured and, for probeable
// clients, answering.
func (g *Gateway) clientStatus(ctx context.Context) api.ClientStatus {
	return api.ClientStatus{
		DocumentClient:      g.available(ctx, g.backends.Verifier),
		SummarizationClient: g.available(ctx, g.backends.Summarizer),
	}
}

func (g *Gateway) available(ctx context.Context, client any) bool {
	if client == nil {
		return false
	}
	p, ok := client.(Prober)
	if !ok {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, g.probeTimeout)
	defer cancel()
	if err := p.Probe(ctx); err != nil {
		g.logger.Warn("upstream probe failed", "error", err)
		return false
	}
	return true
}
