// hashstore gRPC Server
// Serves schema-configured records kept as Redis hashes
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nainya/hashstore/internal/config"
	"github.com/nainya/hashstore/internal/logger"
	"github.com/nainya/hashstore/internal/metrics"
	"github.com/nainya/hashstore/internal/server"
	"github.com/nainya/hashstore/pkg/document"
	"github.com/nainya/hashstore/pkg/meta"
	"github.com/nainya/hashstore/pkg/repository"
	"github.com/nainya/hashstore/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hashstore: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.InitGlobalLogger(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	log := logger.GetGlobalLogger()
	log.LogServerStart(cfg.GRPCPort, cfg.RedisAddr, cfg.Schema.Namespace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics on a private registry, plus the usual process collectors
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)
	go m.UpdateUptime(ctx, 10*time.Second)

	// Key-value store
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	rs, err := store.DialRedis(dialCtx, store.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	defer rs.Close()

	// Record type and repository
	registry := meta.NewRegistry()
	if err := document.Register(registry, cfg.Schema); err != nil {
		return err
	}
	repo := repository.New[document.Document](
		store.Instrument(rs, m, log),
		repository.WithRegistry(registry),
		repository.WithLogger(log.Component("repository")),
		repository.WithRecorder(m),
	)

	srv, err := server.NewServer(repo, log)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", cfg.GRPCPort, err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.GrpcMetricsInterceptor(m, log)),
		grpc.MaxRecvMsgSize(4*1024*1024),
	)
	health := server.Register(grpcServer, srv)

	// Register reflection service for grpcurl/grpcui
	reflection.Register(grpcServer)

	obs := server.NewObservabilityServer(cfg.MetricsPort, reg, rs.Ping, log)
	go func() {
		if err := obs.Start(); err != nil {
			log.Error("Observability server stopped").Err(err).Send()
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		log.LogServerShutdown()
		health.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			log.Warn("Observability shutdown failed").Err(err).Send()
		}
		grpcServer.GracefulStop()
	}()

	log.LogServerReady(cfg.GRPCPort)
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
