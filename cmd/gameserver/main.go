// Package main provides the combat server binary: it loads the game
// database, resolves attacks and spells over gRPC and streams the resulting
// breakdowns to human players.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/momserver/internal/config"
	"github.com/cory-johannsen/momserver/internal/game/combat"
	"github.com/cory-johannsen/momserver/internal/game/dice"
	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
	"github.com/cory-johannsen/momserver/internal/gameserver"
	"github.com/cory-johannsen/momserver/internal/gameserver/combatv1"
	"github.com/cory-johannsen/momserver/internal/observability"
	"github.com/cory-johannsen/momserver/internal/server"
	"github.com/cory-johannsen/momserver/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting combat server",
		zap.String("grpc_addr", cfg.GameServer.Addr()),
	)

	// Load the game database
	rulesStart := time.Now()
	rules, err := ruleset.LoadDirectory(cfg.Content.RulesDir)
	if err != nil {
		logger.Fatal("loading game rules", zap.Error(err))
	}
	logger.Info("game rules loaded",
		zap.String("dir", cfg.Content.RulesDir),
		zap.Any("counts", rules.Counts()),
		zap.Duration("elapsed", time.Since(rulesStart)),
	)

	var diceSrc dice.Source
	if cfg.Dice.Seed != 0 {
		diceSrc = dice.NewSeededSource(cfg.Dice.Seed)
		logger.Warn("dice seeded; rolls are reproducible", zap.Uint64("seed", cfg.Dice.Seed))
	} else {
		diceSrc = dice.NewCryptoSource()
	}
	diceRoller := dice.NewLoggedRoller(diceSrc, logger)

	lifecycle := server.NewLifecycle(logger)

	// Unit storage
	var units unit.Repository
	if cfg.Database.Enabled {
		if cfg.Database.AutoMigrate {
			res, err := postgres.Migrate(cfg.Database.DSN(), cfg.Database.MigrationsDir, "up", 0)
			if err != nil {
				logger.Fatal("migrating database", zap.Error(err))
			}
			logger.Info("database schema ready",
				zap.Uint("version", res.Version),
				zap.Bool("changed", res.Changed),
			)
		}

		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		units = pool.Units()

		stop := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			StopFn: func() {
				close(stop)
				pool.Close()
			},
		})
	} else {
		logger.Warn("database disabled; unit health is kept in memory")
		units = unit.NewMemoryRepository()
	}

	engine := combat.NewEngine()
	hub := gameserver.NewBreakdownHub(engine, cfg.GameServer.StreamBuffer, cfg.GameServer.DeliveryTimeout, logger)
	resolver := combat.NewResolver(rules, unit.NewCalculator(rules), units, hub, logger)
	svc := gameserver.NewCombatService(engine, resolver, units, hub, diceRoller, logger)

	grpcServer := grpc.NewServer()
	combatv1.RegisterCombatServiceServer(grpcServer, svc)

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.GameServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.GameServer.Addr(), err)
			}
			logger.Info("gRPC server listening",
				zap.String("addr", lis.Addr().String()),
			)
			return grpcServer.Serve(lis)
		},
		StopFn: func() {
			// Breakdowns streams only end when their clients leave.
			done := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				grpcServer.Stop()
			}
		},
	})

	logger.Info("combat server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.GameServer.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
