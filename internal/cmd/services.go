package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nwalsh/timekeep/internal/api"
	"github.com/nwalsh/timekeep/internal/auth"
	"github.com/nwalsh/timekeep/internal/push"
	"github.com/nwalsh/timekeep/internal/timers"
)

type Services struct {
	Auth        *auth.Service
	Timers      *timers.Service
	API         *api.Handler
	Registry    *push.Registry
	Gatekeeper  *push.Gatekeeper
	Broadcaster *push.Broadcaster
}

func setupServices(pool *pgxpool.Pool, config *Config) *Services {
	// Wire up dependency injection chain
	// Database layer -> Repository layer -> Service layer -> transport

	clock := clockwork.NewRealClock()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)

	timerRepo := timers.NewRepository(pool)
	timerService := timers.NewService(timerRepo, clock)

	registry := push.NewRegistry(timerService)
	gatekeeper := push.NewGatekeeper(authService, registry, push.DefaultConfig())
	broadcaster := push.NewBroadcaster(registry, timerService, clock, config.broadcastInterval())

	apiHandler := api.NewHandler(authService, timerService)

	return &Services{
		Auth:        authService,
		Timers:      timerService,
		API:         apiHandler,
		Registry:    registry,
		Gatekeeper:  gatekeeper,
		Broadcaster: broadcaster,
	}
}
