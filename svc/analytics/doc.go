// Package analytics records funnel, retention and payment events without
// ever blocking or failing the caller.
//
// Services depend on the Recorder port. In production it is an
// AsyncRecorder that batches events into Postgres through PGWriter; Close
// drains the queue during graceful shutdown.
package analytics
