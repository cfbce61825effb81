package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minsukang/dalligo-backend/api/controllers"
	"github.com/minsukang/dalligo-backend/api/middleware"
	"github.com/minsukang/dalligo-backend/internal/boards"
	"github.com/minsukang/dalligo-backend/internal/chat"
	"github.com/minsukang/dalligo-backend/internal/matching"
	"github.com/minsukang/dalligo-backend/internal/notifications"
	"github.com/minsukang/dalligo-backend/internal/postings"
	"github.com/minsukang/dalligo-backend/internal/reviews"
	"github.com/minsukang/dalligo-backend/pkg/db"
	"github.com/minsukang/dalligo-backend/pkg/logger"
	"github.com/minsukang/dalligo-backend/pkg/redis"
)

// Deps bundles everything the router needs. Optional fields may be nil;
// their routes degrade or are skipped.
type Deps struct {
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         redis.Pinger
	Postings      *postings.Service
	Engine        *matching.Engine
	Notifications *notifications.Service
	Reviews       *reviews.Service
	Boards        *boards.Service
	Chat          *chat.Service
	Metrics       prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Actor(logg),
	)

	r.Get("/healthz", controllers.Healthz(deps.DB, deps.Redis, logg))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/postings/{role}", func(r chi.Router) {
			r.Post("/", controllers.CreatePosting(deps.Postings, logg))
			r.Get("/", controllers.ListPostings(deps.Postings, logg))
			r.Route("/{postingID}", func(r chi.Router) {
				r.Get("/", controllers.GetPosting(deps.Postings, logg))
				r.Delete("/", controllers.DeletePosting(deps.Postings, logg))
				r.Post("/close", controllers.ClosePosting(deps.Engine, logg))
				r.Get("/match", controllers.GetMatchState(deps.Engine, logg))
			})
		})

		r.Route("/requests/{role}", func(r chi.Router) {
			r.Post("/", controllers.CreateRequest(deps.Engine, logg))
			r.Route("/{requestID}", func(r chi.Router) {
				r.Post("/accept", controllers.AcceptRequest(deps.Engine, logg))
				r.Post("/reject", controllers.RejectRequest(deps.Engine, logg))
				r.Post("/delivery", controllers.AdvanceDelivery(deps.Engine, logg))
				r.Post("/review", controllers.SubmitReview(deps.Engine, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})

		r.Route("/users/{userID}/reviews", func(r chi.Router) {
			r.Get("/", controllers.ListUserReviews(deps.Reviews, logg))
		})
		r.Post("/reviews/{reviewID}/comments", controllers.AddReviewComment(deps.Reviews, logg))

		r.Route("/boards", func(r chi.Router) {
			r.Post("/", controllers.CreateBoard(deps.Boards, logg))
			r.Get("/", controllers.ListBoards(deps.Boards, logg))
			r.Get("/{boardID}", controllers.GetBoard(deps.Boards, logg))
			r.Delete("/{boardID}", controllers.DeleteBoard(deps.Boards, logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/rooms", controllers.OpenChatRoom(deps.Chat, logg))
			r.Get("/rooms", controllers.ListChatRooms(deps.Chat, logg))
			r.Route("/rooms/{roomID}/messages", func(r chi.Router) {
				r.Post("/", controllers.SendChatMessage(deps.Chat, logg))
				r.Get("/", controllers.ListChatMessages(deps.Chat, logg))
			})
		})
	})

	return r
}
