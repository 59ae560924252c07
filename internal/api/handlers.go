package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/prompt-general/ticketflow/pkg/models"
)

type CreateTicketRequest struct {
	CustomerID    string `json:"customer_id"`
	Subject       string `json:"subject"`
	Message       string `json:"message"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

type SubmitFeedbackRequest struct {
	WasHelpful     bool   `json:"was_helpful"`
	CustomerRating *int   `json:"customer_rating,omitempty"`
	FeedbackText   string `json:"feedback_text,omitempty"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if g.health != nil {
		g.health.HTTPHandler()(w, r)
		return
	}
	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Health check complete",
		Data: map[string]string{
			"api":      "healthy",
			"pipeline": "ready",
		},
	})
}

func (g *Gateway) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if err := parseRequestBody(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body", err.Error())
		return
	}
	if req.Subject == "" || req.Message == "" {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Subject and message are required", "")
		return
	}

	ticket := newTicket(req)
	if err := g.tickets.CreateTicket(r.Context(), ticket); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create ticket", err.Error())
		return
	}

	writeJSONResponse(w, http.StatusCreated, APIResponse{
		Success: true,
		Message: "Ticket created successfully",
		Data: map[string]interface{}{
			"ticket_id": ticket.ID,
			"ticket":    ticket,
		},
	})
}

func (g *Gateway) handleProcessTicket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ticket, err := g.tickets.GetTicket(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Ticket not found", err.Error())
		return
	}

	state := g.pipeline.ProcessTicket(r.Context(), *ticket)

	if err := g.tickets.SaveWorkflowState(r.Context(), state); err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save workflow state", err.Error())
		return
	}
	g.updateTicketStatus(r, ticket, state)

	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Ticket processed successfully",
		Data:    state,
	})
}

func (g *Gateway) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ticket, err := g.tickets.GetTicket(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Ticket not found", err.Error())
		return
	}

	var resolution *models.Resolution
	if state, err := g.tickets.GetWorkflowState(r.Context(), id); err == nil {
		resolution = state.Resolution
	}

	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Ticket retrieved successfully",
		Data: map[string]interface{}{
			"ticket":     ticket,
			"resolution": resolution,
		},
	})
}

func (g *Gateway) handleListTickets(w http.ResponseWriter, r *http.Request) {
	limit, offset := 10, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	tickets, err := g.tickets.ListTickets(r.Context())
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tickets", err.Error())
		return
	}

	total := len(tickets)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := tickets[offset:end]

	type ticketEntry struct {
		*models.Ticket
		HasResolution bool `json:"has_resolution"`
	}
	entries := make([]ticketEntry, 0, len(page))
	for _, ticket := range page {
		_, err := g.tickets.GetWorkflowState(r.Context(), ticket.ID)
		entries = append(entries, ticketEntry{Ticket: ticket, HasResolution: err == nil})
	}

	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Retrieved %d tickets", len(entries)),
		Data: map[string]interface{}{
			"tickets": entries,
			"total":   total,
			"limit":   limit,
			"offset":  offset,
		},
	})
}

func (g *Gateway) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	state, err := g.tickets.GetWorkflowState(r.Context(), id)
	if err != nil || state.Resolution == nil {
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "No resolution found for this ticket", "")
		return
	}

	var req SubmitFeedbackRequest
	if err := parseRequestBody(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body", err.Error())
		return
	}

	feedback := models.Feedback{
		TicketID:       id,
		ResolutionID:   state.Resolution.TicketID,
		WasHelpful:     req.WasHelpful,
		CustomerRating: req.CustomerRating,
		FeedbackText:   req.FeedbackText,
	}

	insights := g.feedback.ProcessFeedback(r.Context(), feedback, *state.Resolution)

	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Feedback submitted successfully",
		Data: map[string]interface{}{
			"feedback":          feedback,
			"learning_insights": insights,
		},
	})
}

func (g *Gateway) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []CreateTicketRequest
	if err := parseRequestBody(r, &reqs); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body", err.Error())
		return
	}

	tickets := make([]models.Ticket, 0, len(reqs))
	for _, req := range reqs {
		ticket := newTicket(req)
		if err := g.tickets.CreateTicket(r.Context(), ticket); err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create ticket", err.Error())
			return
		}
		tickets = append(tickets, *ticket)
	}

	states := g.pipeline.ProcessBatch(r.Context(), tickets)

	for i, state := range states {
		if err := g.tickets.SaveWorkflowState(r.Context(), state); err != nil {
			writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save workflow state", err.Error())
			return
		}
		g.updateTicketStatus(r, &tickets[i], state)
	}

	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Processed %d tickets", len(states)),
		Data: map[string]interface{}{
			"results": states,
		},
	})
}

func (g *Gateway) handleSearchKnowledge(w http.ResponseWriter, r *http.Request) {
	if g.knowledge == nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Knowledge base is not configured", "")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Query parameter is required", "")
		return
	}
	category := r.URL.Query().Get("category")
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := g.knowledge.SearchArticles(r.Context(), query, category, limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Search failed", err.Error())
		return
	}

	type searchEntry struct {
		ID        string  `json:"id"`
		Title     string  `json:"title"`
		Content   string  `json:"content"`
		Category  string  `json:"category"`
		Score     float64 `json:"score"`
		Relevance string  `json:"relevance"`
	}
	entries := make([]searchEntry, 0, len(results))
	for _, result := range results {
		content := result.Article.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		entries = append(entries, searchEntry{
			ID:        result.Article.ID,
			Title:     result.Article.Title,
			Content:   content,
			Category:  string(result.Article.Category),
			Score:     result.Score,
			Relevance: result.Relevance,
		})
	}

	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: fmt.Sprintf("Found %d articles", len(entries)),
		Data: map[string]interface{}{
			"results": entries,
			"query":   query,
		},
	})
}

func (g *Gateway) handleAnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	tickets, err := g.tickets.ListTickets(r.Context())
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get analytics", err.Error())
		return
	}

	totalTickets := len(tickets)
	totalResolutions := 0
	escalated := 0
	categories := map[string]int{}
	priorities := map[string]int{}

	for _, ticket := range tickets {
		if ticket.Status == models.TicketStatusEscalated {
			escalated++
		}
		state, err := g.tickets.GetWorkflowState(r.Context(), ticket.ID)
		if err != nil {
			continue
		}
		if state.Resolution != nil {
			totalResolutions++
		}
		if state.Classification != nil {
			categories[string(state.Classification.Category)]++
			priorities[string(state.Classification.Priority)]++
		}
	}

	resolutionRate := 0.0
	escalationRate := 0.0
	if totalTickets > 0 {
		resolutionRate = float64(totalResolutions) / float64(totalTickets) * 100
		escalationRate = float64(escalated) / float64(totalTickets) * 100
	}

	writeJSONResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Dashboard data retrieved successfully",
		Data: map[string]interface{}{
			"overview": map[string]interface{}{
				"total_tickets":     totalTickets,
				"total_resolutions": totalResolutions,
				"resolution_rate":   resolutionRate,
				"escalation_rate":   escalationRate,
			},
			"distributions": map[string]interface{}{
				"categories": categories,
				"priorities": priorities,
			},
		},
	})
}

func newTicket(req CreateTicketRequest) *models.Ticket {
	customerID := req.CustomerID
	if customerID == "" {
		customerID = "anonymous"
	}
	return &models.Ticket{
		CustomerID:    customerID,
		Subject:       req.Subject,
		Message:       req.Message,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Status:        models.TicketStatusNew,
		CreatedAt:     time.Now(),
	}
}

// updateTicketStatus records the workflow outcome on the stored
// ticket. Failures are logged, not surfaced: the workflow result is
// already committed.
func (g *Gateway) updateTicketStatus(r *http.Request, ticket *models.Ticket, state *models.WorkflowState) {
	switch {
	case state.Status == models.WorkflowFailed:
		ticket.Status = models.TicketStatusInProgress
	case state.Escalation != nil && state.Escalation.ShouldEscalate:
		ticket.Status = models.TicketStatusEscalated
	default:
		ticket.Status = models.TicketStatusResolved
	}
	if err := g.tickets.UpdateTicket(r.Context(), ticket); err != nil {
		log.Printf("Failed to update ticket %s status: %v", ticket.ID, err)
	}
}
