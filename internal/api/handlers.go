package api

import (
	"net/http"
	"time"

	"github.com/ignite/library-api/internal/pkg/httputil"
	"github.com/ignite/library-api/internal/service/book"
	"github.com/ignite/library-api/internal/service/loan"
)

// Handlers holds the services the HTTP boundary exposes. Validation of
// required fields happens here, before the services are invoked; services
// enforce the business rules.
type Handlers struct {
	books *book.Service
	loans *loan.Service
}

// NewHandlers creates the handler set.
func NewHandlers(books *book.Service, loans *loan.Service) *Handlers {
	return &Handlers{books: books, loans: loans}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
