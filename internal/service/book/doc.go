// Package book implements catalog management for library books.
//
// The service layer contains all business logic for creating, updating,
// deleting, and searching books, including the unique-ISBN rule. It depends
// on the Repository interface defined in this package and should never
// import from api/.
//
// Repository implementations live in repository/postgres/.
package book
