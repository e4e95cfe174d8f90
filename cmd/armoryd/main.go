package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/armory/internal/config"
	"github.com/l1jgo/armory/internal/core/event"
	coresys "github.com/l1jgo/armory/internal/core/system"
	"github.com/l1jgo/armory/internal/data"
	"github.com/l1jgo/armory/internal/equipment"
	"github.com/l1jgo/armory/internal/handler"
	"github.com/l1jgo/armory/internal/journal"
	gonet "github.com/l1jgo/armory/internal/net"
	"github.com/l1jgo/armory/internal/net/packet"
	"github.com/l1jgo/armory/internal/persist"
	"github.com/l1jgo/armory/internal/scripting"
	"github.com/l1jgo/armory/internal/system"
	"github.com/l1jgo/armory/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              armory  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      equipment & capability authority     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("ARMORY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Open inventory persistence and run migrations
	printSection("storage")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := persist.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()
	printOK(fmt.Sprintf("%s backend ready", cfg.Storage.Backend))
	fmt.Println()

	// 4. Load static data
	printSection("data")

	catalog, err := data.LoadCatalog(cfg.Data.ItemsPath, log)
	if err != nil {
		return fmt.Errorf("item catalog: %w", err)
	}
	printStat("item definitions", catalog.Count())

	effects, err := data.LoadEffectTable(cfg.Data.EffectsPath)
	if err != nil {
		return fmt.Errorf("effect table: %w", err)
	}
	printStat("effect classes", effects.Count())

	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer luaEngine.Close()
	catalog.SetHook(luaEngine)
	printOK("lua instance hooks loaded")
	fmt.Println()

	// 5. Journal
	var recorder equipment.Recorder
	if cfg.Journal.Enabled {
		j := journal.New(cfg.Journal.Dir, log)
		defer j.Close()
		recorder = j
		printOK(fmt.Sprintf("journal → %s", cfg.Journal.Dir))
	}

	// 6. World state
	bus := event.NewBus()
	worldState := world.NewState(world.Options{
		MaxSlots: cfg.Equipment.MaxSlots,
		Capacity: cfg.Storage.Capacity,
		Resolver: catalog,
		Known:    catalog.Has,
		Bus:      bus,
		Recorder: recorder,
		Log:      log,
	})

	// 7. Message handlers
	sessions := gonet.NewSessionStore()
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, &handler.Deps{
		Config:   cfg,
		Log:      log,
		World:    worldState,
		Store:    store,
		Effects:  effects,
		Sessions: sessions,
	})
	printStat("message handlers", len(pktReg.Types()))

	// 8. Network server
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		gonet.SessionOptions{
			InQueueSize:  cfg.Network.InQueueSize,
			OutQueueSize: cfg.Network.OutQueueSize,
			ReadTimeout:  cfg.Network.ReadTimeout,
			WriteTimeout: cfg.Network.WriteTimeout,
		},
		cfg.Network.AllowedOrigins,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 9. Systems
	runner := coresys.NewRunner()
	inputSys := system.NewInputSystem(netServer, pktReg, sessions, worldState, store, cfg.Network.MaxPacketsPerTick, log)
	outputSys := system.NewOutputSystem(worldState, sessions, bus, log)
	defer outputSys.Close()
	persistSys := system.NewPersistenceSystem(worldState, store, log, cfg.Storage.SaveIntervalTicks)
	runner.Register(inputSys)
	runner.Register(outputSys)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(worldState))

	// 10. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()
	poll := time.NewTicker(2 * time.Millisecond)
	defer poll.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("listening on ws://%s/ws", netServer.Addr().String()))
	printReady(fmt.Sprintf("tick %s, %d equipment slots", cfg.Network.TickRate, cfg.Equipment.MaxSlots))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case <-poll.C:
			runner.TickPhase(coresys.PhaseInput, 0)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := netServer.Shutdown(shutdownCtx); err != nil {
				log.Warn("http shutdown", zap.Error(err))
			}
			shutdownCancel()

			persistSys.SaveAll()
			worldState.All(func(a *world.Actor) {
				worldState.Despawn(a.Info.ID)
			})
			worldState.FlushDestroyed()
			log.Info("server stopped", zap.Int("sessions", inputSys.SessionCount()))
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
