package grpc_control

import (
	"fmt"
	"net"
	"sync"

	"trade-streamer/src/logger"
	"trade-streamer/src/models"
	"trade-streamer/src/stream"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// -----------------------------------------------------------------------------
// HealthService
// -----------------------------------------------------------------------------

// streamService is the condition name probes ask for. The empty name
// reports overall process health separately.
const streamService = "trade-streamer.stream"

// HealthService publishes the stream condition over the standard gRPC
// health protocol so orchestrators can probe it without the REST API.
// A degraded stream still serves: data keeps flowing on it.
type HealthService struct {
	Config *models.MConfig
	Logger *logger.Logger
	Stream *stream.ConnectionManager

	mu         sync.Mutex
	server     *grpc.Server
	health     *health.Server
	listenerID string
}

// -----------------------------------------------------------------------------

func NewHealthService(cfg *models.MConfig, log *logger.Logger, mgr *stream.ConnectionManager) *HealthService {
	return &HealthService{
		Config: cfg,
		Logger: log,
		Stream: mgr,
	}
}

// -----------------------------------------------------------------------------

// Start binds the listener and serves until Stop. Blocks, run it on its
// own goroutine.
func (s *HealthService) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.server = grpc.NewServer()
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.server, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.applyState(s.Stream.Status().State)
	server := s.server
	s.mu.Unlock()

	s.listenerID = s.Stream.AddStatusListener(func(status models.MStreamStatus) {
		s.applyState(status.State)
	})

	s.Logger.Info("Starting gRPC health server on %s", addr)
	return server.Serve(lis)
}

// -----------------------------------------------------------------------------

func (s *HealthService) Stop() {
	if s.listenerID != "" {
		s.Stream.RemoveStatusListener(s.listenerID)
		s.listenerID = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.health != nil {
		// Flips every condition to NOT_SERVING for probes still connected
		s.health.Shutdown()
	}
	if s.server != nil {
		s.server.GracefulStop()
		s.server = nil
	}
}

// -----------------------------------------------------------------------------

// applyState maps stream states onto the health protocol.
func (s *HealthService) applyState(state string) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if state == stream.StateConnected.String() || state == stream.StateDegraded.String() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(streamService, st)
}
