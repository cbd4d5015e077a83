package router

import (
	"net/http"

	_ "go-ledger/docs"
	"go-ledger/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(
	userHandler *handler.UserHandler,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	tokens handler.TokenParser,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.HealthCheck)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Post("/register", handler.ErrorHandlingMiddleware(userHandler.Register))
	r.Post("/login", handler.ErrorHandlingMiddleware(userHandler.Login))

	r.Route("/api", func(r chi.Router) {
		r.Use(handler.AuthMiddleware(tokens))

		r.Get("/accounts/me", handler.ErrorHandlingMiddleware(accountHandler.GetMyAccount))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", handler.ErrorHandlingMiddleware(transactionHandler.ListTransactions))
			r.Get("/{id}", handler.ErrorHandlingMiddleware(transactionHandler.GetTransaction))
			r.Post("/transfer", handler.ErrorHandlingMiddleware(transactionHandler.Transfer))
			r.Post("/deposit", handler.ErrorHandlingMiddleware(transactionHandler.Deposit))
			r.Post("/revert", handler.ErrorHandlingMiddleware(transactionHandler.Revert))
		})
	})

	return r
}
