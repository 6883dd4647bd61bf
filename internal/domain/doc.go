// Package domain contains the core entities of the library service (users,
// roles, authors and books) and the error taxonomy shared by every layer.
// It has no dependencies on storage or transport.
package domain
