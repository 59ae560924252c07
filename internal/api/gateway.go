package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/prompt-general/ticketflow/internal/config"
	"github.com/prompt-general/ticketflow/internal/health"
	"github.com/prompt-general/ticketflow/internal/learning"
	"github.com/prompt-general/ticketflow/internal/store"
	"github.com/prompt-general/ticketflow/pkg/models"
)

// Pipeline runs tickets through the resolution workflow.
type Pipeline interface {
	ProcessTicket(ctx context.Context, ticket models.Ticket) *models.WorkflowState
	ProcessBatch(ctx context.Context, tickets []models.Ticket) []*models.WorkflowState
}

// KnowledgeSearcher serves the direct knowledge-base search endpoint.
type KnowledgeSearcher interface {
	SearchArticles(ctx context.Context, query, category string, limit int) ([]models.SearchResult, error)
}

// FeedbackProcessor consumes customer feedback on resolutions.
type FeedbackProcessor interface {
	ProcessFeedback(ctx context.Context, feedback models.Feedback, resolution models.Resolution) learning.Insights
}

// Gateway exposes the ticket pipeline over HTTP.
type Gateway struct {
	server    *http.Server
	router    *mux.Router
	pipeline  Pipeline
	tickets   store.TicketStore
	knowledge KnowledgeSearcher
	feedback  FeedbackProcessor
	health    *health.Checker
	config    config.APIConfig
}

func NewGateway(cfg config.APIConfig, pipeline Pipeline, tickets store.TicketStore, knowledge KnowledgeSearcher, feedback FeedbackProcessor) *Gateway {
	router := mux.NewRouter()

	gateway := &Gateway{
		router:    router,
		pipeline:  pipeline,
		tickets:   tickets,
		knowledge: knowledge,
		feedback:  feedback,
		config:    cfg,
	}

	gateway.setupRoutes()

	var handler http.Handler = router
	if cfg.EnableCORS {
		origins := cfg.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		c := cors.New(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		})
		handler = c.Handler(router)
	}

	gateway.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return gateway
}

func (g *Gateway) setupRoutes() {
	g.router.HandleFunc("/health", g.handleHealth).Methods("GET")

	tickets := g.router.PathPrefix("/tickets").Subrouter()
	tickets.HandleFunc("", g.handleCreateTicket).Methods("POST")
	tickets.HandleFunc("", g.handleListTickets).Methods("GET")
	tickets.HandleFunc("/batch", g.handleProcessBatch).Methods("POST")
	tickets.HandleFunc("/{id}", g.handleGetTicket).Methods("GET")
	tickets.HandleFunc("/{id}/process", g.handleProcessTicket).Methods("POST")
	tickets.HandleFunc("/{id}/feedback", g.handleSubmitFeedback).Methods("POST")

	g.router.HandleFunc("/knowledge/search", g.handleSearchKnowledge).Methods("GET")
	g.router.HandleFunc("/analytics/dashboard", g.handleAnalyticsDashboard).Methods("GET")
}

// SetHealthChecker plugs in backend dependency checks for the health
// endpoint. Without one the endpoint reports a static healthy status.
func (g *Gateway) SetHealthChecker(checker *health.Checker) {
	g.health = checker
}

// Start starts the API gateway
func (g *Gateway) Start() error {
	log.Printf("Starting API gateway on %s", g.server.Addr)
	return g.server.ListenAndServe()
}

// Stop stops the API gateway
func (g *Gateway) Stop(ctx context.Context) error {
	log.Printf("Stopping API gateway")
	return g.server.Shutdown(ctx)
}

// Response types

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Helper functions

func writeJSONResponse(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message, details string) {
	writeJSONResponse(w, status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func parseRequestBody(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
