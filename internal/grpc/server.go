package grpc

import (
	"errors"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "storefront"

// OpsServer is the operational gRPC endpoint of a replica: health checks for
// load balancers and reflection for grpcurl. The storefront API itself is HTTP.
type OpsServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger
}

func NewOpsServer(logger *zap.Logger) *OpsServer {
	server := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(server)

	s := &OpsServer{
		server: server,
		health: healthServer,
		logger: logger,
	}
	s.SetServing(true)
	return s
}

// SetServing flips the reported status of both the overall and the storefront service.
func (s *OpsServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks until the listener fails or Stop is called.
func (s *OpsServer) Serve(lis net.Listener) error {
	s.logger.Info("ops gRPC server listening", zap.String("addr", lis.Addr().String()))
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop reports NOT_SERVING so health checks drain the replica, then stops gracefully.
func (s *OpsServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
	s.logger.Info("ops gRPC server stopped")
}
