package handler

import (
	"net/http"
	"strconv"

	"github.com/community-hub/internal/application/request"
	"github.com/community-hub/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RequestHandler handles service request endpoints.
type RequestHandler struct {
	responder
	svc request.Service
}

func NewRequestHandler(svc request.Service, log *zap.Logger) *RequestHandler {
	return &RequestHandler{responder: newResponder(log), svc: svc}
}

// List supports ?status=&category=&q=&mine=true.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := domain.RequestFilter{
		Status:   domain.RequestStatus(q.Get("status")),
		Category: q.Get("category"),
		Search:   q.Get("q"),
	}
	if mine, _ := strconv.ParseBool(q.Get("mine")); mine {
		filter.CreatedBy = a.ID
	}
	list, err := h.svc.List(r.Context(), filter, a)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	views := make([]RequestView, len(list))
	for i := range list {
		views[i] = toRequestView(&list[i], a.Role)
	}
	writeJSON(w, http.StatusOK, ListEnvelope{Data: views, Count: len(views)})
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.CreateRequestInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sr, err := h.svc.Create(r.Context(), in, a)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestView(sr, a.Role))
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	sr, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(sr, a.Role))
}

func (h *RequestHandler) Transition(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.TransitionInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sr, err := h.svc.TransitionStatus(r.Context(), chi.URLParam(r, "id"), in.Status, a, in.Note)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(sr, a.Role))
}

func (h *RequestHandler) Comment(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.CommentInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.svc.AddComment(r.Context(), chi.URLParam(r, "id"), in, a)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *RequestHandler) Assign(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var in domain.AssignInput
	if err := decode(r, &in); err != nil || in.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}
	sr, err := h.svc.Assign(r.Context(), chi.URLParam(r, "id"), in.ProviderID, a)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestView(sr, a.Role))
}

func (h *RequestHandler) Providers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Providers(r.Context())
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEnvelope{Data: list, Count: len(list)})
}
