package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/book-catalog/catalog/config"
	"github.com/Astemirdum/book-catalog/catalog/internal/handler"
	"github.com/Astemirdum/book-catalog/catalog/internal/repository"
	"github.com/Astemirdum/book-catalog/catalog/internal/server"
	"github.com/Astemirdum/book-catalog/catalog/internal/service"
	"github.com/Astemirdum/book-catalog/catalog/migrations"
	"github.com/Astemirdum/book-catalog/pkg/circuit_breaker"
	"github.com/Astemirdum/book-catalog/pkg/kafka"
	"github.com/Astemirdum/book-catalog/pkg/logger"
	"github.com/Astemirdum/book-catalog/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log, err := logger.NewLogger(cfg.Log, "catalog")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %w", err)
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %w", err)
	}

	publisher, err := newPublisher(cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("kafka.NewProducer %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("publisher.Close", zap.Error(err))
		}
	}()

	svc := service.NewService(repo, publisher, log)
	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Debug("Graceful shutdown")

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err = g.Wait(); err != nil {
		log.Error("server", zap.Error(err))
		return err
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newPublisher(cfg kafka.Config, log *zap.Logger) (kafka.Publisher, error) {
	if !cfg.Enabled() {
		log.Info("kafka is not configured, book events are dropped")
		return kafka.NewNopPublisher(), nil
	}
	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	const (
		recordLength     = 20
		openTimeout      = 30 * time.Second
		failurePercent   = 0.5
		recoveryRequests = 5
	)
	cb := circuit_breaker.New(recordLength, openTimeout, failurePercent, recoveryRequests)
	return kafka.NewPublisher(producer, cfg.Topic, cb, log), nil
}
