package api

import (
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes grpc.health.v1 for the API process.
type HealthServer struct {
	srv    *grpc.Server
	health *health.Server
	log    *logrus.Entry
}

func NewHealthServer() *HealthServer {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthServer{srv: srv, health: hs, log: logrus.WithField("svc", "api-grpc")}
}

// SetServing flips the overall and per-service status.
func (h *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus("farmai.api", st)
}

// Serve blocks until Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.SetServing(true)
	h.log.WithField("addr", lis.Addr().String()).Info("grpc: health listening")
	return h.srv.Serve(lis)
}

func (h *HealthServer) Stop() {
	h.SetServing(false)
	h.srv.GracefulStop()
}
