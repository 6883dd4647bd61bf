// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces (repositories) defined in the internal/store package.
// It handles the details of transactions, query execution, and data
// mapping between domain entities and database records.
//
// All repositories are reached through a RepositoryWrapper, whose statements
// share one transaction that is opened on first use and committed by Save.
// Schema migrations are embedded and applied with goose.
package postgres
