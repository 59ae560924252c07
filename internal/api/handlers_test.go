package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt-general/ticketflow/internal/config"
	"github.com/prompt-general/ticketflow/internal/learning"
	"github.com/prompt-general/ticketflow/internal/store"
	"github.com/prompt-general/ticketflow/pkg/models"
)

type stubPipeline struct {
	escalate bool
}

func (s stubPipeline) ProcessTicket(ctx context.Context, ticket models.Ticket) *models.WorkflowState {
	state := &models.WorkflowState{
		Ticket: ticket,
		Status: models.WorkflowCompleted,
		Classification: &models.Classification{
			Category: models.CategoryTechnical,
			Priority: models.PriorityMedium,
		},
		Resolution: &models.Resolution{
			TicketID:  ticket.ID,
			Response:  "Try restarting the app.",
			AgentType: models.AgentAI,
		},
	}
	if s.escalate {
		state.Escalation = &models.EscalationDecision{ShouldEscalate: true}
	}
	return state
}

func (s stubPipeline) ProcessBatch(ctx context.Context, tickets []models.Ticket) []*models.WorkflowState {
	states := make([]*models.WorkflowState, len(tickets))
	for i, ticket := range tickets {
		states[i] = s.ProcessTicket(ctx, ticket)
	}
	return states
}

type stubKnowledge struct {
	results []models.SearchResult
}

func (s stubKnowledge) SearchArticles(ctx context.Context, query, category string, limit int) ([]models.SearchResult, error) {
	return s.results, nil
}

type stubFeedback struct {
	got *models.Feedback
}

func (s *stubFeedback) ProcessFeedback(ctx context.Context, feedback models.Feedback, resolution models.Resolution) learning.Insights {
	s.got = &feedback
	return learning.Insights{FeedbackType: "positive"}
}

func newTestGateway(pipeline Pipeline, knowledge KnowledgeSearcher, feedback FeedbackProcessor) (*Gateway, store.TicketStore) {
	tickets := store.NewMemoryStore()
	g := NewGateway(config.APIConfig{}, pipeline, tickets, knowledge, feedback)
	return g, tickets
}

func doRequest(g *Gateway, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	g, _ := newTestGateway(stubPipeline{}, nil, nil)

	rec := doRequest(g, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestCreateTicket(t *testing.T) {
	g, tickets := newTestGateway(stubPipeline{}, nil, nil)

	rec := doRequest(g, http.MethodPost, "/tickets", CreateTicketRequest{
		Subject: "Login broken",
		Message: "I cannot sign in",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	id := data["ticket_id"].(string)
	stored, err := tickets.GetTicket(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "anonymous", stored.CustomerID)
	assert.Equal(t, models.TicketStatusNew, stored.Status)
}

func TestCreateTicketRequiresSubjectAndMessage(t *testing.T) {
	g, _ := newTestGateway(stubPipeline{}, nil, nil)

	rec := doRequest(g, http.MethodPost, "/tickets", CreateTicketRequest{Subject: "only subject"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestProcessTicketUpdatesStatus(t *testing.T) {
	g, tickets := newTestGateway(stubPipeline{}, nil, nil)

	ticket := &models.Ticket{Subject: "Help", Message: "broken"}
	require.NoError(t, tickets.CreateTicket(context.Background(), ticket))

	rec := doRequest(g, http.MethodPost, "/tickets/"+ticket.ID+"/process", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := tickets.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, stored.Status)

	state, err := tickets.GetWorkflowState(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowCompleted, state.Status)
}

func TestProcessTicketEscalatedStatus(t *testing.T) {
	g, tickets := newTestGateway(stubPipeline{escalate: true}, nil, nil)

	ticket := &models.Ticket{Subject: "Angry", Message: "want a manager"}
	require.NoError(t, tickets.CreateTicket(context.Background(), ticket))

	rec := doRequest(g, http.MethodPost, "/tickets/"+ticket.ID+"/process", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := tickets.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusEscalated, stored.Status)
}

func TestProcessTicketNotFound(t *testing.T) {
	g, _ := newTestGateway(stubPipeline{}, nil, nil)

	rec := doRequest(g, http.MethodPost, "/tickets/missing/process", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTicketsPagination(t *testing.T) {
	g, tickets := newTestGateway(stubPipeline{}, nil, nil)

	for i := 0; i < 15; i++ {
		require.NoError(t, tickets.CreateTicket(context.Background(), &models.Ticket{Subject: "s", Message: "m"}))
	}

	rec := doRequest(g, http.MethodGet, "/tickets?limit=10&offset=10", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(15), data["total"])
	assert.Len(t, data["tickets"], 5)
}

func TestProcessBatch(t *testing.T) {
	g, tickets := newTestGateway(stubPipeline{}, nil, nil)

	rec := doRequest(g, http.MethodPost, "/tickets/batch", []CreateTicketRequest{
		{Subject: "a", Message: "first"},
		{Subject: "b", Message: "second"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["results"], 2)

	stored, err := tickets.ListTickets(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	for _, ticket := range stored {
		assert.Equal(t, models.TicketStatusResolved, ticket.Status)
	}
}

func TestSubmitFeedback(t *testing.T) {
	feedback := &stubFeedback{}
	g, tickets := newTestGateway(stubPipeline{}, nil, feedback)

	ticket := &models.Ticket{Subject: "Help", Message: "broken"}
	require.NoError(t, tickets.CreateTicket(context.Background(), ticket))
	doRequest(g, http.MethodPost, "/tickets/"+ticket.ID+"/process", nil)

	rating := 5
	rec := doRequest(g, http.MethodPost, "/tickets/"+ticket.ID+"/feedback", SubmitFeedbackRequest{
		WasHelpful:     true,
		CustomerRating: &rating,
		FeedbackText:   "Great answer",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, feedback.got)
	assert.Equal(t, ticket.ID, feedback.got.TicketID)
	assert.True(t, feedback.got.WasHelpful)
}

func TestSubmitFeedbackWithoutResolution(t *testing.T) {
	g, tickets := newTestGateway(stubPipeline{}, nil, &stubFeedback{})

	ticket := &models.Ticket{Subject: "Help", Message: "broken"}
	require.NoError(t, tickets.CreateTicket(context.Background(), ticket))

	rec := doRequest(g, http.MethodPost, "/tickets/"+ticket.ID+"/feedback", SubmitFeedbackRequest{WasHelpful: true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchKnowledge(t *testing.T) {
	knowledge := stubKnowledge{results: []models.SearchResult{
		{
			Article: models.Article{ID: "kb-1", Title: "Reset password", Content: "Go to settings."},
			Score:   0.9, Relevance: "High",
		},
	}}
	g, _ := newTestGateway(stubPipeline{}, knowledge, nil)

	rec := doRequest(g, http.MethodGet, "/knowledge/search?query=password", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["results"], 1)
}

func TestSearchKnowledgeRequiresQuery(t *testing.T) {
	g, _ := newTestGateway(stubPipeline{}, stubKnowledge{}, nil)

	rec := doRequest(g, http.MethodGet, "/knowledge/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchKnowledgeUnconfigured(t *testing.T) {
	g, _ := newTestGateway(stubPipeline{}, nil, nil)

	rec := doRequest(g, http.MethodGet, "/knowledge/search?query=x", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyticsDashboard(t *testing.T) {
	g, tickets := newTestGateway(stubPipeline{}, nil, nil)

	ticket := &models.Ticket{Subject: "Help", Message: "broken"}
	require.NoError(t, tickets.CreateTicket(context.Background(), ticket))
	doRequest(g, http.MethodPost, "/tickets/"+ticket.ID+"/process", nil)

	rec := doRequest(g, http.MethodGet, "/analytics/dashboard", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	overview := data["overview"].(map[string]interface{})
	assert.Equal(t, float64(1), overview["total_tickets"])
	assert.Equal(t, float64(1), overview["total_resolutions"])
	assert.Equal(t, float64(100), overview["resolution_rate"])
}
