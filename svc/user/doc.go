// Package user owns the User record: identity from Twitch, the premium flag
// and the billing customer id. PGStore persists it with pgx.
package user
