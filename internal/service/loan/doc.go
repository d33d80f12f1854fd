// Package loan implements the loan lifecycle: checkout, return, history
// queries, and the overdue query feeding the notifier.
//
// The central rule lives here and in the storage layer: a book can have at
// most one active loan at a time. The service checks the rule when a loan is
// requested; the database backs it with a partial unique index so that
// concurrent requests for the same book cannot both succeed.
//
// Repository implementations live in repository/postgres/.
package loan
