package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/cashflow/internal/http/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/http/export"
	"github.com/MrJamesThe3rd/cashflow/internal/http/importfile"
	"github.com/MrJamesThe3rd/cashflow/internal/http/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/http/web"
)

type Options struct {
	Timeout        time.Duration
	AllowedOrigins []string
}

func New(
	opts Options,
	transactionsV1 *transaction.Handler,
	directoryV1 *directory.Handler,
	importV1 *importfile.Handler,
	exportV1 *export.Handler,
	pages *web.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"Content-Disposition", "X-Export-Rows"},
			MaxAge:         300,
		}))

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/directory", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			directoryV1.Routes(r)
		})

		r.Get("/options", directoryV1.Options)

		r.Route("/import", importV1.Routes)
		r.Route("/export", exportV1.Routes)
	})

	router.Get("/export", exportV1.Download)
	pages.Routes(router)

	return router
}
