package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type claimsKeyType int

var claimsKey claimsKeyType

func (s Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				s.serverError(w, fmt.Errorf("%v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.tel.ReportDebug(
			"http request",
			r.RemoteAddr, r.Method, r.URL.RequestURI(), sw.status, time.Since(start),
		)
	})
}

func makeResponseJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requireToken rejects requests without a valid bearer token. It is only
// installed when a secret is configured.
func (s Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			s.clientError(w, http.StatusUnauthorized, "authorization header missing or invalid")
			return
		}
		claims, err := parseToken(s.opts.JwtSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			s.tel.ReportWarning(report_http_auth, err, r.RemoteAddr)
			s.clientError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// Subject returns the token subject of an authenticated request.
func Subject(r *http.Request) string {
	claims, ok := r.Context().Value(claimsKey).(*Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
