// Package api exposes the poll ledger over HTTP. Handlers translate the
// domain error classes into coded API errors; caller identity is taken from
// the request body and assumed to be asserted by the outer authentication
// layer.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Wizbisy/anonpoll/admin"
	"github.com/Wizbisy/anonpoll/internal"
	"github.com/Wizbisy/anonpoll/ledger"
	"github.com/Wizbisy/anonpoll/log"
)

const (
	maxRequestBodyLog = 512 // Maximum length of request body to log
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host   string
	Port   int
	Ledger *ledger.Ledger
	Admin  *admin.Admin
}

// API type represents the API HTTP server.
type API struct {
	router *chi.Mux
	ledger *ledger.Ledger
	admin  *admin.Admin
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Ledger == nil {
		return nil, fmt.Errorf("missing ledger instance")
	}
	if conf.Admin == nil {
		return nil, fmt.Errorf("missing admin instance")
	}
	a := &API{
		ledger: conf.Ledger,
		admin:  conf.Admin,
	}
	a.initRouter()
	go func() {
		log.Infow("starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes.
func (a *API) Router() *chi.Mux {
	return a.router
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	a.router.Use(loggingMiddleware(maxRequestBodyLog))
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	a.registerHandlers()
}

// registerHandlers registers all the HTTP handlers for the API endpoints.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", InfoEndpoint, "method", "GET")
	a.router.Get(InfoEndpoint, a.info)

	// poll endpoints
	log.Infow("register handler", "endpoint", PollsEndpoint, "method", "POST")
	a.router.Post(PollsEndpoint, a.createPoll)
	log.Infow("register handler", "endpoint", PollsEndpoint, "method", "GET")
	a.router.Get(PollsEndpoint, a.listPolls)
	log.Infow("register handler", "endpoint", PollEndpoint, "method", "GET")
	a.router.Get(PollEndpoint, a.poll)
	log.Infow("register handler", "endpoint", PollMetadataEndpoint, "method", "PUT")
	a.router.Put(PollMetadataEndpoint, a.updateMetadata)
	log.Infow("register handler", "endpoint", PollOptionsEndpoint, "method", "GET")
	a.router.Get(PollOptionsEndpoint, a.pollOptions)
	log.Infow("register handler", "endpoint", PollOptionEndpoint, "method", "GET")
	a.router.Get(PollOptionEndpoint, a.pollOption)
	log.Infow("register handler", "endpoint", PollCloseEndpoint, "method", "POST")
	a.router.Post(PollCloseEndpoint, a.closePoll)
	log.Infow("register handler", "endpoint", PollRevealEndpoint, "method", "POST")
	a.router.Post(PollRevealEndpoint, a.requestReveal)
	log.Infow("register handler", "endpoint", PollResultsEndpoint, "method", "GET")
	a.router.Get(PollResultsEndpoint, a.results)
	log.Infow("register handler", "endpoint", PollResultsEndpoint, "method", "POST")
	a.router.Post(PollResultsEndpoint, a.submitResults)
	log.Infow("register handler", "endpoint", PollKeyEndpoint, "method", "GET")
	a.router.Get(PollKeyEndpoint, a.pollKey)
	log.Infow("register handler", "endpoint", PollCommentsEndpoint, "method", "GET")
	a.router.Get(PollCommentsEndpoint, a.listComments)
	log.Infow("register handler", "endpoint", CreatorPollsEndpoint, "method", "GET")
	a.router.Get(CreatorPollsEndpoint, a.pollsByCreator)

	// vote endpoints
	log.Infow("register handler", "endpoint", VotesEndpoint, "method", "POST")
	a.router.Post(VotesEndpoint, a.castVote)
	log.Infow("register handler", "endpoint", VoteStatusEndpoint, "method", "GET")
	a.router.Get(VoteStatusEndpoint, a.voteStatus)

	// comment endpoint
	log.Infow("register handler", "endpoint", CommentsEndpoint, "method", "POST")
	a.router.Post(CommentsEndpoint, a.addComment)

	// admin endpoints
	log.Infow("register handler", "endpoint", AdminEndpoint, "method", "GET")
	a.router.Get(AdminEndpoint, a.adminState)
	log.Infow("register handler", "endpoint", AdminPauseEndpoint, "method", "POST")
	a.router.Post(AdminPauseEndpoint, a.adminPause)
	log.Infow("register handler", "endpoint", AdminFeeEndpoint, "method", "POST")
	a.router.Post(AdminFeeEndpoint, a.adminFee)
	log.Infow("register handler", "endpoint", AdminWithdrawEndpoint, "method", "POST")
	a.router.Post(AdminWithdrawEndpoint, a.adminWithdraw)
	log.Infow("register handler", "endpoint", AdminTransferEndpoint, "method", "POST")
	a.router.Post(AdminTransferEndpoint, a.adminTransfer)
}

// info returns the node version and reveal configuration.
// GET /info
func (a *API) info(w http.ResponseWriter, _ *http.Request) {
	httpWriteJSON(w, InfoResponse{
		Version:       internal.Version,
		RevealProfile: string(a.ledger.RevealProfile()),
		MaxVoteWeight: a.ledger.MaxVoteWeight(),
	})
}
