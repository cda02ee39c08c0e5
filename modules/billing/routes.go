package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/t333watch/t333watch/binder"
	"github.com/t333watch/t333watch/handler"
	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/pkg/ratelimit"
	"github.com/t333watch/t333watch/svc/auth"
	"github.com/t333watch/t333watch/svc/billing"
	"github.com/t333watch/t333watch/svc/premium"
)

const maxWebhookBody = 512 << 10

type Options struct {
	// Provider names the webhook and checkout path segment.
	Provider    string
	RequireUser func(http.Handler) http.Handler
	// Limiter throttles checkout, cancel and forced verification refresh
	// per user. Nil disables it.
	Limiter *ratelimit.Limiter
	Logger  *slog.Logger
}

type Module struct {
	svc  *billing.Service
	rec  *billing.Reconciler
	opts Options
	errs handler.ErrorHandler
}

func New(svc *billing.Service, rec *billing.Reconciler, opts Options) *Module {
	if opts.Provider == "" {
		opts.Provider = billing.ProviderStripe
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.RequireUser == nil {
		panic("billing: Options.RequireUser is required")
	}
	return &Module{
		svc:  svc,
		rec:  rec,
		opts: opts,
		errs: handler.NewErrorHandler(opts.Logger.With(logger.Component("billing_http"))),
	}
}

// Routes registers the billing endpoints on r, typically the /api group.
func (m *Module) Routes(r chi.Router) {
	r.Post("/"+m.opts.Provider+"/webhook", handler.Wrap(m.webhook, handler.WithErrorHandler(m.errs)))

	r.Group(func(r chi.Router) {
		r.Use(m.opts.RequireUser)
		r.With(m.limit(refreshKey)).Get("/premium/verify", handler.Wrap(m.verify,
			handler.WithBinders(binder.Query()),
			handler.WithErrorHandler(m.errs),
		))

		limited := r.With(m.limit(userKey))
		limited.Post("/"+m.opts.Provider+"/checkout", handler.Wrap(m.checkout,
			handler.WithBinders(binder.JSON()),
			handler.WithErrorHandler(m.errs),
		))
		limited.Post("/subscription/cancel", handler.Wrap(m.cancel,
			handler.WithBinders(binder.JSON()),
			handler.WithErrorHandler(m.errs),
		))
	})
}

func (m *Module) limit(key ratelimit.KeyFunc) func(http.Handler) http.Handler {
	if m.opts.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(m.opts.Limiter, key, rejectTooMany)
}

func userKey(r *http.Request) string {
	if u, ok := auth.UserFromContext(r.Context()); ok {
		return u.ID.String()
	}
	return ""
}

// refreshKey limits only forced refreshes; plain reads hit the cache.
func refreshKey(r *http.Request) string {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); !refresh {
		return ""
	}
	return userKey(r)
}

func rejectTooMany(w http.ResponseWriter, r *http.Request) {
	handler.WriteError(w, r, handler.ErrTooManyRequests.WithMessage("Too many billing requests, try again later"))
}

func currentUser(ctx handler.Context) (uuid.UUID, error) {
	u, ok := auth.UserFromContext(ctx)
	if !ok {
		return uuid.Nil, handler.ErrUnauthorized.WithMessage("Authentication required")
	}
	return u.ID, nil
}

type webhookResponse struct {
	Received bool `json:"received"`
}

func (m *Module) webhook(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	payload, err := io.ReadAll(http.MaxBytesReader(ctx.ResponseWriter(), r.Body, maxWebhookBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return handler.Fail(handler.ErrPayloadTooLarge)
		}
		return handler.Fail(handler.ErrBadRequest.WithMessage("Unreadable webhook body"))
	}
	if _, err := m.rec.HandleWebhook(ctx, payload, r.Header.Get(m.rec.SignatureHeader())); err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSON(webhookResponse{Received: true})
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type checkoutResponse struct {
	SessionURL string `json:"sessionUrl"`
}

func (m *Module) checkout(ctx handler.Context, req checkoutRequest) handler.Response {
	userID, err := currentUser(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	plan, err := billing.ParsePlan(req.Plan)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	sess, err := m.svc.CreateCheckoutSession(ctx, userID, plan)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSON(checkoutResponse{SessionURL: sess.URL})
}

type cancelRequest struct {
	Feedback  string `json:"feedback"`
	Reason    string `json:"reason"`
	Immediate bool   `json:"immediate"`
}

type subscriptionJSON struct {
	ID                string     `json:"id"`
	Status            string     `json:"status"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
}

type cancelResponse struct {
	Subscription  subscriptionJSON   `json:"subscription"`
	Subscriptions []subscriptionJSON `json:"subscriptions"`
	Message       string             `json:"message"`
}

func toSubscriptionJSON(s billing.Subscription) subscriptionJSON {
	out := subscriptionJSON{ID: s.ID, Status: s.Status, CancelAtPeriodEnd: s.CancelAtPeriodEnd}
	if !s.CurrentPeriodEnd.IsZero() {
		end := s.CurrentPeriodEnd.UTC()
		out.CurrentPeriodEnd = &end
	}
	return out
}

func (m *Module) cancel(ctx handler.Context, req cancelRequest) handler.Response {
	userID, err := currentUser(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	res, err := m.svc.CancelSubscription(ctx, userID, billing.CancelRequest{
		Feedback:  req.Feedback,
		Reason:    req.Reason,
		Immediate: req.Immediate,
	})
	if err != nil {
		return handler.Fail(httpError(err))
	}

	out := cancelResponse{Message: res.Message}
	for _, s := range res.Subscriptions {
		out.Subscriptions = append(out.Subscriptions, toSubscriptionJSON(s))
	}
	if len(out.Subscriptions) > 0 {
		out.Subscription = out.Subscriptions[0]
	}
	return handler.JSON(out)
}

type verifyRequest struct {
	Refresh bool `query:"refresh"`
}

type verifyUser struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	PremiumFlag bool      `json:"premium_flag"`
}

type verifyResponse struct {
	IsPremium bool             `json:"isPremium"`
	User      verifyUser       `json:"user"`
	Features  premium.Features `json:"features"`
}

func (m *Module) verify(ctx handler.Context, req verifyRequest) handler.Response {
	userID, err := currentUser(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	v, err := m.svc.Verify(ctx, userID, req.Refresh)
	if err != nil {
		return handler.Fail(httpError(err))
	}
	return handler.JSON(verifyResponse{
		IsPremium: v.IsPremium,
		User: verifyUser{
			ID:          v.User.ID,
			DisplayName: v.User.DisplayName,
			PremiumFlag: v.User.PremiumFlag,
		},
		Features: v.Features,
	})
}
