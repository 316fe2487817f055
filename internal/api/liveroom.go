package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-liveroom/internal/config"
	"github.com/npezzotti/go-liveroom/internal/database"
	"github.com/npezzotti/go-liveroom/internal/identity"
	"github.com/npezzotti/go-liveroom/internal/room"
)

type LiveRoomApp struct {
	log   *log.Logger
	db    database.LiveRoomRepository
	ids   *identity.Store
	rooms *room.Service
	mux   *http.Server
}

func NewLiveRoomApp(mux *http.ServeMux, logger *log.Logger, ids *identity.Store, rooms *room.Service, db database.LiveRoomRepository, cfg *config.Config) *LiveRoomApp {
	s := &LiveRoomApp{
		log:   logger,
		db:    db,
		ids:   ids,
		rooms: rooms,
	}

	mux.HandleFunc("POST /user/create", s.userCreate)
	mux.Handle("GET /user/me", s.authMiddleware(s.userMe))
	mux.Handle("POST /user/update", s.authMiddleware(s.userUpdate))
	mux.Handle("POST /room/create", s.authMiddleware(s.roomCreate))
	mux.HandleFunc("POST /room/list", s.roomList)
	mux.Handle("GET /room/join", s.authMiddleware(s.roomJoin))
	mux.Handle("POST /room/leave", s.authMiddleware(s.roomLeave))
	mux.HandleFunc("GET /healthz", s.healthCheck)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *LiveRoomApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *LiveRoomApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
