package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	encounterorc "github.com/tablewright/encounter-api/internal/orchestrators/encounter"
	exportorc "github.com/tablewright/encounter-api/internal/orchestrators/export"
	"github.com/tablewright/encounter-api/internal/pkg/idgen"
	redisclient "github.com/tablewright/encounter-api/internal/redis"
	"github.com/tablewright/encounter-api/internal/repositories/characters"
	"github.com/tablewright/encounter-api/internal/repositories/encounters"
	"github.com/tablewright/encounter-api/internal/repositories/templates"
)

var (
	grpcPort int
)

// serverConfig is populated from the environment
type serverConfig struct {
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	AppVersion string `env:"APP_VERSION" envDefault:"dev"`
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gRPC server",
	Long:  `Start the encounter API gRPC server with all configured services.`,
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().IntVar(&grpcPort, "port", 50051, "gRPC server port")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, gracefully stopping...")
		cancel()
	}()

	client, err := redisclient.NewClient(cfg.RedisAddr, nil)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			slog.Warn("failed to close redis client", "error", closeErr)
		}
	}()

	encounterRepo, err := encounters.NewRedis(&encounters.RedisConfig{Client: client})
	if err != nil {
		return fmt.Errorf("failed to create encounter repository: %w", err)
	}
	characterRepo, err := characters.NewRedis(&characters.RedisConfig{Client: client})
	if err != nil {
		return fmt.Errorf("failed to create character repository: %w", err)
	}
	templateRepo, err := templates.NewRedis(&templates.RedisConfig{Client: client})
	if err != nil {
		return fmt.Errorf("failed to create template repository: %w", err)
	}

	encounterService, err := encounterorc.NewOrchestrator(&encounterorc.Config{
		EncounterRepo:    encounterRepo,
		IDGenerator:      idgen.NewUUID("enc"),
		ParticipantIDGen: idgen.NewUUID("part"),
	})
	if err != nil {
		return fmt.Errorf("failed to create encounter service: %w", err)
	}

	exportService, err := exportorc.NewOrchestrator(&exportorc.Config{
		EncounterRepo:    encounterRepo,
		CharacterRepo:    characterRepo,
		TemplateRepo:     templateRepo,
		IDGenerator:      idgen.NewUUID("enc"),
		ParticipantIDGen: idgen.NewUUID("part"),
		CharacterIDGen:   idgen.NewUUID("char"),
		TempIDGen:        idgen.NewUUID("tmp"),
		AppVersion:       cfg.AppVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to create export service: %w", err)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
		),
	)

	// Register health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	if encounterService != nil {
		healthServer.SetServingStatus("encounterapi.v1.EncounterService", grpc_health_v1.HealthCheckResponse_SERVING)
	}
	if exportService != nil {
		healthServer.SetServingStatus("encounterapi.v1.ExportService", grpc_health_v1.HealthCheckResponse_SERVING)
	}

	reflection.Register(srv)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("gRPC server starting", "port", grpcPort, "redis", cfg.RedisAddr, "version", cfg.AppVersion)
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down gRPC server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-shutdownCtx.Done():
			slog.Warn("Graceful shutdown timeout exceeded, forcing stop")
			srv.Stop()
		case <-stopped:
			slog.Info("Server stopped gracefully")
		}

		return nil
	case err := <-errChan:
		return err
	}
}

func logFunc(ctx context.Context, level grpc_logging.Level, msg string, fields ...any) {
	switch level {
	case grpc_logging.LevelDebug:
		slog.DebugContext(ctx, msg, fields...)
	case grpc_logging.LevelWarn:
		slog.WarnContext(ctx, msg, fields...)
	case grpc_logging.LevelError:
		slog.ErrorContext(ctx, msg, fields...)
	default:
		slog.InfoContext(ctx, msg, fields...)
	}
}
