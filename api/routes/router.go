package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/castellan-io/backoffice/api/controllers"
	"github.com/castellan-io/backoffice/api/middleware"
	"github.com/castellan-io/backoffice/internal/auth"
	"github.com/castellan-io/backoffice/internal/giftcards"
	"github.com/castellan-io/backoffice/internal/media"
	"github.com/castellan-io/backoffice/pkg/config"
	"github.com/castellan-io/backoffice/pkg/logger"
	"github.com/castellan-io/backoffice/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	probes map[string]controllers.Pinger,
	authService auth.Service,
	giftCardService giftcards.Service,
	mediaService media.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"signin",
		cfg.AuthRateLimit.SignInWindow,
		cfg.AuthRateLimit.SignInIPLimit,
		cfg.AuthRateLimit.SignInEmailLimit,
	)
	signUpPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignUpWindow,
		cfg.AuthRateLimit.SignUpIPLimit,
		cfg.AuthRateLimit.SignUpEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, probes))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signUpPolicy, redisClient, logg)).Post("/signup", controllers.AuthSignUp(authService, cfg, logg))
			r.With(middleware.AuthRateLimit(signInPolicy, redisClient, logg)).Post("/signin", controllers.AuthSignIn(authService, cfg, logg))
			r.Post("/signout", controllers.AuthSignOut(cfg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(authService, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Delete("/me", controllers.AuthDeactivate(authService, cfg, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/giftcards", func(r chi.Router) {
				r.Get("/", controllers.GiftCardList(giftCardService, logg))
				r.Post("/", controllers.GiftCardCreate(giftCardService, logg))
				r.Get("/{id}", controllers.GiftCardGet(giftCardService, logg))
				r.Put("/{id}", controllers.GiftCardUpdate(giftCardService, logg))
				r.Post("/{id}/debit", controllers.GiftCardDebit(giftCardService, logg))
				r.Delete("/{id}", controllers.GiftCardDelete(giftCardService, logg))
			})

			r.Route("/media", func(r chi.Router) {
				r.Post("/presign", controllers.MediaPresign(mediaService, logg))
			})
		})
	})

	return r
}
