// Package billing keeps the premium flag in step with the payment provider.
//
// The Provider port hides Stripe and Paddle behind one set of operations:
// customer creation, hosted checkout, listing and cancelling active
// subscriptions, and verifying inbound webhooks. Provider events are
// normalized into four EventType values; everything else is acknowledged and
// ignored.
//
// Two entry points drive state changes:
//
//   - Service handles user initiated actions: CreateCheckoutSession,
//     CancelSubscription and Verify (optionally reconciling against the
//     provider first).
//   - Reconciler handles signed webhook deliveries. Each event id is claimed in
//     a Ledger before dispatch, so a redelivery is acknowledged without side
//     effects. A failed dispatch releases the claim and the provider's retry
//     runs it again.
//
// Both write the premium flag through user.Store, invalidate the
// premium.Cache entry and then emit analytics and email notices. The side
// channels are best-effort: their failures are logged and never undo or fail
// the flag transition.
//
// Usage:
//
//	provider, err := billing.NewProvider(cfg, stripeCfg, paddleCfg)
//	svc := billing.NewService(provider, users, premiumCache, cfg,
//		billing.WithAnalytics(recorder),
//		billing.WithNotifier(billing.NewEmailNotifier(sender, log)),
//		billing.WithLogger(log),
//	)
//	rec := billing.NewReconciler(provider, users, premiumCache, billing.NewMemoryLedger(cfg.Ledger),
//		billing.WithAnalytics(recorder),
//		billing.WithLogger(log),
//	)
package billing
