package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/shoppurs/gateway"
	"github.com/example/shoppurs/pkg/address"
	"github.com/example/shoppurs/pkg/audit"
	"github.com/example/shoppurs/pkg/auth"
	"github.com/example/shoppurs/pkg/cart"
	"github.com/example/shoppurs/pkg/catalog"
	"github.com/example/shoppurs/pkg/config"
	"github.com/example/shoppurs/pkg/database"
	"github.com/example/shoppurs/pkg/discovery"
	"github.com/example/shoppurs/pkg/grpc"
	"github.com/example/shoppurs/pkg/invoice"
	"github.com/example/shoppurs/pkg/logger"
	"github.com/example/shoppurs/pkg/messaging"
	"github.com/example/shoppurs/pkg/order"
	"github.com/example/shoppurs/pkg/repository"
	"github.com/example/shoppurs/pkg/storage"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting shoppurs API",
		zap.String("name", cfg.Server.Name),
		zap.String("http", cfg.Server.Addr()),
		zap.String("grpc", cfg.GRPC.Addr()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to open invoice storage", zap.Error(err))
	}
	if c, ok := files.(io.Closer); ok {
		defer c.Close()
	}

	opts := []order.Option{}

	if cfg.Redis.Addr != "" {
		redisRepo := repository.NewRedisRepository(&cfg.Redis)
		defer redisRepo.Close()
		if err := redisRepo.Ping(ctx); err != nil {
			log.Warn("Redis connection failed, order cache disabled", zap.Error(err))
		} else {
			log.Info("Redis connected successfully")
			opts = append(opts, order.WithCache(redisRepo))
		}
	}

	var trail gateway.AuditTrail
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
		if err != nil {
			log.Warn("Failed to connect to MongoDB, audit log disabled", zap.Error(err))
		} else {
			defer mongoRepo.Close(context.Background())
			recorder, err := audit.NewRecorder(mongoRepo, log)
			if err != nil {
				log.Fatal("Failed to start audit recorder", zap.Error(err))
			}
			defer recorder.Stop()
			opts = append(opts, order.WithAuditor(recorder))
			trail = mongoRepo
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		defer publisher.Close()
		opts = append(opts, order.WithPublisher(publisher))
	}

	reader := catalog.NewReader(db)
	resolver := address.NewResolver(db, log)
	orders := order.NewService(db, invoice.NewGenerator(files, cfg.Invoice, log), log, opts...)
	ready := func(ctx context.Context) error { return database.Ping(ctx, db) }

	gw := gateway.NewGateway(cfg, log, gateway.Services{
		Catalog:   reader,
		Cart:      cart.NewStore(db, reader, resolver, log),
		Addresses: resolver,
		Orders:    orders,
		Tokens:    auth.NewTokenManager(cfg.Auth),
		Trail:     trail,
		Ready:     ready,
	})

	healthSrv := grpc.NewHealthServer(&cfg.GRPC, cfg.Server.Name, ready, log)
	go healthSrv.Watch(ctx)

	errCh := make(chan error, 2)
	go func() {
		if err := gw.Start(); err != nil {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := healthSrv.Start(); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	var sd *discovery.ServiceDiscovery
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, log)
		if err != nil {
			log.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else if err := sd.Register(ctx, instance); err != nil {
			log.Warn("Failed to register service", zap.Error(err))
		} else {
			log.Info("Service registered in etcd", zap.String("address", instance.Addr()))
			if peers, err := sd.Peers(ctx, instance); err != nil {
				log.Warn("Failed to list peers", zap.Error(err))
			} else {
				addrs := make([]string, 0, len(peers))
				for _, p := range peers {
					addrs = append(addrs, p.Addr())
				}
				log.Info("Peer instances", zap.Strings("peers", addrs))
			}
		}
	}

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err := <-errCh:
		log.Error("Server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			log.Error("Failed to deregister service", zap.Error(err))
		}
		sd.Close()
	}
	if err := gw.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	healthSrv.Stop()

	log.Info("Service stopped")
}
