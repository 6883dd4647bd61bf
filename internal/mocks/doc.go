// Package mocks holds in-memory test doubles for the library API.
//
// MockStore keeps users, authors and books in maps and hands out
// MockRepositoryWrapper units of work over them, so handler and pipeline
// tests run without PostgreSQL. MockTokenService and MockPasswordVerifier
// replace the auth service:
//
//	data := mocks.NewMockStore()
//	data.AddUser(alice)
//	tokens := &mocks.MockTokenService{
//	    ValidateTokenFn: func(ctx context.Context, raw string) (*auth.Principal, error) {
//	        return &auth.Principal{Subject: alice.ID.String()}, nil
//	    },
//	}
//
// Function fields override behavior per test; nil fields fall back to
// simple defaults.
package mocks
