// Package memory provides in-memory repository implementations backed by
// maps and a mutex. They enforce the same invariants as the Postgres
// repositories (unique ISBN, one active loan per book) and are used in
// handler tests and local experiments; production always runs on Postgres.
package memory
