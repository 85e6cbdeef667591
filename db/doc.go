/*
Package db talks to a SurrealDB-style HTTP query endpoint.

Connect performs the one-time login handshake and returns an immutable
Session. A Client built on that session sends raw query text, which may hold
several semicolon-separated statements, and normalizes the JSON reply into one
StatementResult per statement: Success with its rows, or Failure with the
database's diagnostic. Query collapses those results and fails the whole call
on the first Failure.

Values must never reach query text without passing ValidateIdentifier or
ValidateLiteral for the role they play. Ident and Literal validate and quote
in one step and are the preferred way to build fragments.
*/
package db
