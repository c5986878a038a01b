package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-realtime-bookorders/internal/assistant"
	"github.com/ariefcatur/go-realtime-bookorders/internal/catalog"
	"github.com/ariefcatur/go-realtime-bookorders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type Deps struct {
	Catalog     *catalog.Store
	Orders      *orders.Service
	Assistant   assistant.Answerer
	Realtime    http.Handler // websocket endpoint
	CORSOrigins []string
	Log         zerolog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, AccessLog(d.Log), middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Realtime != nil {
		// long-lived, so outside the timeout group
		r.Handle("/ws", d.Realtime)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Welcome to the bookstore API"))
		})
		(&BooksHandler{Catalog: d.Catalog}).Register(r)
		(&OrdersHandler{Service: d.Orders, Log: d.Log}).Register(r)

		answerer := d.Assistant
		if answerer == nil {
			answerer = assistant.Unconfigured{}
		}
		(&AssistantHandler{Answerer: answerer, Titles: d.Catalog, Log: d.Log}).Register(r)
	})

	return NewCORS(d.CORSOrigins).Handler(r)
}

// NewCORS is the browser origin policy. Its OriginAllowed also guards the
// websocket upgrade, which browsers do not subject to CORS.
func NewCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
}

// AccessLog writes one zerolog line per request.
func AccessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info().
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
