// Package store defines the repository interface for run records consumed by
// the status API. Implementations live in subpackages; this package must not
// import concrete backends.
package store
