// Package postgres provides the PostgreSQL implementation of the post store
// defined in the internal/store package, together with the embedded goose
// migrations that create its schema.
package postgres
