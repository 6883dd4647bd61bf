package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/library-api/internal/domain"
	"github.com/phrazzld/library-api/internal/mocks"
	"github.com/phrazzld/library-api/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRequest builds a pipeline request as dispatch would hand it to a
// handler: URL params routed and a unit of work attached.
func newTestRequest(
	uow *mocks.MockRepositoryWrapper,
	method, target, body string,
	params map[string]string,
) *pipeline.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return &pipeline.Request{HTTP: r, Repos: uow}
}

func newUnitOfWork(data *mocks.MockStore) *mocks.MockRepositoryWrapper {
	return data.NewUnitOfWork().(*mocks.MockRepositoryWrapper)
}

func decodeBody[T any](t *testing.T, resp *pipeline.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body, &v), "body: %s", resp.Body)
	return v
}

func seedAuthor(t *testing.T, data *mocks.MockStore, name string, books ...string) domain.Author {
	t.Helper()
	author, err := domain.NewAuthor(name, time.Date(1929, 10, 21, 0, 0, 0, 0, time.UTC), "Berkeley", "")
	require.NoError(t, err)
	data.Authors[author.ID] = *author
	for i, title := range books {
		book, err := domain.NewBook(author.ID, title, "", 100+i)
		require.NoError(t, err)
		data.Books[book.ID] = *book
	}
	return *author
}

func booksOf(data *mocks.MockStore, authorID uuid.UUID) []domain.Book {
	var out []domain.Book
	for _, b := range data.Books {
		if b.AuthorID == authorID {
			out = append(out, b)
		}
	}
	return out
}
