// Package billing mounts the payment routes: the provider webhook, checkout
// session creation, subscription cancellation and premium verification.
//
//	mod := billing.New(svc, rec, billing.Options{RequireUser: authSvc.RequireUser})
//	r.Route("/api", mod.Routes)
package billing
