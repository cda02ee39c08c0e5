// Package pg bootstraps the PostgreSQL layer on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool and retries until the database answers a ping.
// Migrate applies the embedded goose migrations through pgx's database/sql
// bridge. Healthcheck produces a readiness probe for the HTTP server.
//
// The Is*Error helpers classify driver errors so stores can map them to their
// own sentinels without importing pgconn.
package pg
