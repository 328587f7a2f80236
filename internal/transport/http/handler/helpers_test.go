package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

var (
	resident = domain.Actor{ID: "u-res", DisplayName: "Rita Resident", Role: domain.RoleResident}
	admin    = domain.Actor{ID: "u-adm", DisplayName: "Alex Admin", Role: domain.RoleAdmin}
)

// newReq builds a request carrying a as the authenticated actor. body may be
// nil, a string (sent verbatim) or any value to JSON-encode.
func newReq(t *testing.T, method, target string, a *domain.Actor, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	r := httptest.NewRequest(method, target, &buf)
	if a != nil {
		r = r.WithContext(middleware.WithActor(r.Context(), *a))
	}
	return r
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withAction(r *http.Request, action string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("action", action)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}
