package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/npezzotti/go-liveroom/internal/api"
	"github.com/npezzotti/go-liveroom/internal/config"
	"github.com/npezzotti/go-liveroom/internal/database"
	"github.com/npezzotti/go-liveroom/internal/identity"
	"github.com/npezzotti/go-liveroom/internal/room"
	"github.com/npezzotti/go-liveroom/internal/stats"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	roomCapacity   int
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable statement_timeout=5000", "database connection string")
	flag.IntVar(&roomCapacity, "room-capacity", room.DefaultMaxUserCount, "maximum users per room")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[liveroom] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, allowedOrigins, roomCapacity)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgLiveRoomRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	ids := identity.NewStore(logger, dbConn, statsUpdater)
	rooms := room.NewService(logger, dbConn, ids, statsUpdater, cfg.RoomCapacity)

	srv := api.NewLiveRoomApp(mux, logger, ids, rooms, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
