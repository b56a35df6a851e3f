package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.RouteService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.RouteService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

type edgeRequest struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Cost *float64 `json:"cost"`
	Type string   `json:"type,omitempty"`
}

type edgeResponse struct {
	ID     int64   `json:"id"`
	FromID int64   `json:"fromId"`
	ToID   int64   `json:"toId"`
	Cost   float64 `json:"cost"`
	Type   string  `json:"type"`
}

type nodeResponse struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
}

type pathNode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type pathResponse struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Found  bool           `json:"found"`
	Weight float64        `json:"weight"`
	Hops   int            `json:"hops"`
	Nodes  []pathNode     `json:"nodes"`
	Edges  []edgeResponse `json:"edges"`
}

type statsResponse struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

type batchResponse struct {
	Inserted int    `json:"inserted"`
	Error    string `json:"error,omitempty"`
}

func (h *APIHandlers) handleEdges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req edgeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid edge payload: "+err.Error())
		return
	}
	if req.Cost == nil {
		writeError(w, http.StatusBadRequest, "cost is required")
		return
	}

	edge, err := h.service.AddEdge(r.Context(), req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err, "failed to add edge")
		return
	}

	respondJSON(w, http.StatusCreated, toEdgeResponse(edge))
}

func (h *APIHandlers) handleEdgesBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var reqs []edgeRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch payload: "+err.Error())
		return
	}

	inputs := make([]service.EdgeInput, 0, len(reqs))
	for i, req := range reqs {
		if req.Cost == nil {
			respondJSON(w, http.StatusBadRequest, batchResponse{Error: "cost is required for every edge (index " + strconv.Itoa(i) + ")"})
			return
		}
		inputs = append(inputs, req.toInput())
	}

	inserted, err := h.service.AddEdges(r.Context(), inputs)
	if err != nil {
		status, msg := h.classify(r, err, "failed to add edges")
		respondJSON(w, status, batchResponse{Inserted: inserted, Error: msg})
		return
	}

	respondJSON(w, http.StatusCreated, batchResponse{Inserted: inserted})
}

func (h *APIHandlers) handleNode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/nodes/")
	name = strings.Trim(name, "/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "node name is required")
		return
	}

	node, err := h.service.FindNode(name)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to fetch node")
		return
	}

	respondJSON(w, http.StatusOK, nodeResponse{
		ID:         int64(node.ID),
		Name:       node.Name,
		Properties: node.Properties,
	})
}

func (h *APIHandlers) handleShortestPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	res, err := h.service.ShortestPath(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to compute shortest path")
		return
	}

	respondJSON(w, http.StatusOK, toPathResponse(res))
}

func (h *APIHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	st, err := h.service.Stats()
	if err != nil {
		h.writeServiceError(w, r, err, "failed to read stats")
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{Nodes: st.Nodes, Edges: st.Edges})
}

func (req edgeRequest) toInput() service.EdgeInput {
	in := service.EdgeInput{From: req.From, To: req.To, Type: req.Type}
	if req.Cost != nil {
		in.Cost = *req.Cost
	}
	return in
}

func toEdgeResponse(e engine.Edge) edgeResponse {
	return edgeResponse{
		ID:     int64(e.ID),
		FromID: int64(e.From),
		ToID:   int64(e.To),
		Cost:   e.Cost,
		Type:   string(e.Type),
	}
}

func toPathResponse(res service.PathResult) pathResponse {
	resp := pathResponse{
		From:  res.From,
		To:    res.To,
		Found: res.Found,
		Nodes: []pathNode{},
		Edges: []edgeResponse{},
	}
	if !res.Found {
		return resp
	}

	resp.Weight = res.Path.Weight
	resp.Hops = res.Path.Length()
	for _, n := range res.Path.Nodes {
		resp.Nodes = append(resp.Nodes, pathNode{ID: int64(n.ID), Name: n.Name})
	}
	for _, e := range res.Path.Edges {
		resp.Edges = append(resp.Edges, toEdgeResponse(e))
	}
	return resp
}

// classify maps an error to a status code and a client-facing message.
func (h *APIHandlers) classify(r *http.Request, err error, fallback string) (int, string) {
	var endpointErr *engine.EndpointError
	switch {
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable, "graph closed"
	case errors.As(err, &endpointErr):
		return http.StatusNotFound, endpointErr.Error()
	case errors.Is(err, engine.ErrNodeNotFound):
		return http.StatusNotFound, "node not found"
	case errors.Is(err, engine.ErrInvalidCost),
		errors.Is(err, engine.ErrEmptyName),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, engine.ErrCostOverflow):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		h.logger.Error(fallback, "error", err, "request_id", requestIDFrom(r.Context()))
		return http.StatusInternalServerError, fallback
	}
}

func (h *APIHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := h.classify(r, err, fallback)
	writeError(w, status, msg)
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
