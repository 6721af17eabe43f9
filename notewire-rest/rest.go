// Package notewirerest provides REST API utilities with CORS support and common middleware.
package notewirerest

import (
	"fmt"
	"net/http"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
)

func Middlewares(service notewirecli.Service, routes chi.Router) chi.Router {
	routes.Use(
		withCORS(),
		withLogger(notewirecli.Logger(service)),
		middleware.Recoverer,
	)
	return routes
}

func Webserver(service notewirecli.Service, routes chi.Router) error {
	logger := notewirecli.Logger(service)

	if notewirecli.CommonOpts.Console {
		logger.Info().Int("port", notewirecli.CommonOpts.Port).Msg("starting http server")
		addr := fmt.Sprintf(":%v", notewirecli.CommonOpts.Port)
		return http.ListenAndServe(addr, routes)
	}

	lambda.Start(apigateway.Wrap(routes, notewirecli.CommonOpts.Env))
	return nil
}

func withCORS() func(next http.Handler) http.Handler {
	origin := RESTOpts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Api-Key"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logger.WithContext(req.Context())
			req = req.WithContext(ctx)
			handler.ServeHTTP(w, req)
		})
	}
}
