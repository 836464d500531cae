package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// GetRouter initialises a new http router and applies all routes
func GetRouter(srv *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   srv.opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
	}))
	if srv.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(srv.opts.RequestTimeout))
	}
	return applyRoutes(r, srv)
}

func applyRoutes(r chi.Router, srv *Server) chi.Router {
	r.Get("/healthz", getHealth)

	r.Post("/patient", srv.createPatient)
	r.Get("/patients", srv.listPatients)
	r.Get("/patient/{id}", srv.getPatient)
	r.Put("/patient/{id}", srv.updatePatient)
	r.Patch("/patient/{id}", srv.patchPatient)
	r.Delete("/patient/{id}", srv.deletePatient)
	r.Get("/search", srv.searchPatients)

	// Paths used by the original form client.
	r.Route("/google-drive", func(r chi.Router) {
		r.Post("/create-patient-file", srv.createPatient)
		r.Get("/patients", srv.listPatients)
		r.Get("/patient/{id}", srv.getPatient)
		r.Put("/patient/{id}", srv.updatePatient)
		r.Get("/search-patient-by-id", srv.searchPatients)
	})

	return r
}
