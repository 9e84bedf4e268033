// Package httpapi is the json intake for add requests, used by the scanning
// kiosks in place of the old web forms.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bibhubhatta/wecare/internal/assert"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/requests"
	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/rs/cors"
)

const (
	report_http_handler = "http.handler"
	report_http_auth    = "http.auth"
)

type Queue interface {
	Enqueue(ctx context.Context, code string) (requests.Request, error)
	EnqueueManual(ctx context.Context, code, name string) (requests.Request, error)
	Get(ctx context.Context, id string) (requests.Request, error)
	List(ctx context.Context, filter requests.Filter) ([]requests.Request, error)
}

type Options struct {
	AllowedOrigins []string
	// JwtSecret enables bearer auth when not empty.
	JwtSecret []byte
}

type Server struct {
	queue Queue
	opts  Options
	tel   telemetry.API
}

func New(queue Queue, opts Options, tel telemetry.API) Server {
	assert.NotNil(queue)
	assert.NotNil(tel)
	return Server{
		queue: queue,
		opts:  opts,
		tel:   telemetry.NewScopedAPI("httpapi", tel),
	}
}

func (s Server) Handler() http.Handler {
	standard := alice.New(s.recoverPanic, s.logRequest, makeResponseJSON)
	if len(s.opts.JwtSecret) > 0 {
		standard = standard.Append(s.requireToken)
	}

	mux := pat.New()
	mux.Post("/requests", standard.ThenFunc(s.createRequest))
	mux.Post("/requests/manual", standard.ThenFunc(s.createManualRequest))
	mux.Get("/requests", standard.ThenFunc(s.listRequests))
	mux.Get("/requests/:id", standard.ThenFunc(s.getRequest))

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s Server) writeJson(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.tel.ReportWarning(report_http_handler, err)
	}
}

func (s Server) clientError(w http.ResponseWriter, status int, message string) {
	s.writeJson(w, status, errorResponse{Error: message})
}

func (s Server) serverError(w http.ResponseWriter, err error) {
	s.tel.ReportBroken(report_http_handler, err)
	s.writeJson(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func (s Server) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrInvalid):
		s.clientError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrNotFound):
		s.clientError(w, http.StatusNotFound, err.Error())
	default:
		s.serverError(w, err)
	}
}

type createRequest struct {
	UPC      string `json:"upc"`
	ItemName string `json:"item_name"`
}

type createResponse struct {
	ID string `json:"id"`
}

func (s Server) decode(w http.ResponseWriter, r *http.Request) (createRequest, bool) {
	var body createRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body)
	if err != nil {
		s.clientError(w, http.StatusBadRequest, "invalid json body")
		return createRequest{}, false
	}
	return body, true
}

func (s Server) createRequest(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decode(w, r)
	if !ok {
		return
	}
	req, err := s.queue.Enqueue(r.Context(), body.UPC)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.tel.ReportDebug("enqueued request", req.ID, req.UPC, Subject(r))
	s.writeJson(w, http.StatusCreated, createResponse{ID: req.ID})
}

func (s Server) createManualRequest(w http.ResponseWriter, r *http.Request) {
	body, ok := s.decode(w, r)
	if !ok {
		return
	}
	req, err := s.queue.EnqueueManual(r.Context(), body.UPC, body.ItemName)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.tel.ReportDebug("enqueued manual request", req.ID, req.UPC, Subject(r))
	s.writeJson(w, http.StatusCreated, createResponse{ID: req.ID})
}

func (s Server) getRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.queue.Get(r.Context(), r.URL.Query().Get(":id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJson(w, http.StatusOK, req)
}

func (s Server) listRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := requests.Filter{
		Status: requests.Status(query.Get("status")),
		UPC:    query.Get("upc"),
		Limit:  100,
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.ParseUint(limit, 10, 64)
		if err != nil {
			s.clientError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if since := query.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			s.clientError(w, http.StatusBadRequest, "invalid since, expected RFC 3339")
			return
		}
		filter.Since = t
	}

	list, err := s.queue.List(r.Context(), filter)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if list == nil {
		list = []requests.Request{}
	}
	s.writeJson(w, http.StatusOK, list)
}
