package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/playbrawl/party-backend/internal/auth"
	"github.com/playbrawl/party-backend/internal/room"
	"github.com/playbrawl/party-backend/internal/round"
	"github.com/playbrawl/party-backend/internal/session"
)

// Deps is everything the transport layer needs injected.
type Deps struct {
	Store     *session.Store
	Rooms     *room.Orchestrator
	Emoji     *round.Engine
	Guess     *round.Engine
	Tokens    *auth.TokenService
	Log       *zap.Logger
	PollRate  rate.Limit
	PollBurst int
}

func SetupRoutes(d Deps) http.Handler {
	a := &api{
		Deps:     d,
		limiters: newSessionLimiters(d.PollRate, d.PollBurst),
	}

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)

	r.Route("/players", func(r chi.Router) {
		r.Post("/register", a.registerPlayer)
		r.Group(func(r chi.Router) {
			r.Use(a.requireRole(auth.RolePlayer))
			r.Post("/keepalive", a.playerKeepAlive)
			r.Post("/poll", a.playerPoll)
			r.Post("/join", a.playerJoin)
			r.Post("/name", a.changeName)
			r.Post("/complete", a.closeRoom)
		})
	})

	r.Route("/hosts", func(r chi.Router) {
		r.Post("/register", a.registerHost)
		r.Post("/join", a.hostJoin)
		r.Group(func(r chi.Router) {
			r.Use(a.requireRole(auth.RoleHost))
			r.Post("/keepalive", a.hostKeepAlive)
			r.Post("/poll", a.hostPoll)
		})
	})

	r.Route("/games", func(r chi.Router) {
		r.Route("/emoji", a.gameRoutes(d.Emoji))
		r.Route("/guessfirst", a.gameRoutes(d.Guess))
	})

	return r
}

func (a *api) gameRoutes(e *round.Engine) func(chi.Router) {
	return func(r chi.Router) {
		r.With(a.requireAnyRole()).Post("/register", a.registerGame(e))
		r.Group(func(r chi.Router) {
			r.Use(a.requireRole(auth.RolePlayer))
			r.Post("/prompt", a.prompt(e))
			r.Post("/response", a.response(e))
			r.Post("/vote", a.vote(e))
			r.Post("/restart", a.restart(e))
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
