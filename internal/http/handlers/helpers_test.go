package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osmium8/reviews-backend/internal/auth"
	"github.com/osmium8/reviews-backend/internal/config"
	"github.com/osmium8/reviews-backend/internal/domain"
	"github.com/osmium8/reviews-backend/internal/http/handlers"
	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/metrics"
	"github.com/osmium8/reviews-backend/internal/repos"
	"github.com/osmium8/reviews-backend/internal/upload"
)

const api = "/api/v1"

type testApp struct {
	app     *fiber.App
	st      *repos.Store
	tokens  *auth.Manager
	uploads *upload.Store
}

// newTestApp wires the real routes over an in-memory SQLite store.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	st := repos.NewSQLStore(db)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	tokens := auth.NewManager("test-secret", time.Hour)
	up := upload.New(t.TempDir())

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(metrics.Middleware())
	handlers.Mount(app, handlers.NewDeps(st, config.Config{APIURL: api}, tokens, up))
	return &testApp{app: app, st: st, tokens: tokens, uploads: up}
}

func (a *testApp) do(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a *testApp) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return a.do(t, httptest.NewRequest(http.MethodGet, path, nil), "")
}

func (a *testApp) sendJSON(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return a.do(t, req, token)
}

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	tok, err := a.tokens.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)
	return tok
}

func (a *testApp) userToken(t *testing.T) string {
	t.Helper()
	tok, err := a.tokens.Issue(primitive.NewObjectID().Hex(), false)
	require.NoError(t, err)
	return tok
}

func (a *testApp) category(t *testing.T, name string) domain.Category {
	t.Helper()
	c := domain.Category{Name: name}
	require.NoError(t, a.st.Categories.Create(context.Background(), &c))
	return c
}

func (a *testApp) product(t *testing.T, p domain.Product) domain.Product {
	t.Helper()
	if p.Name == "" {
		p.Name = "name"
	}
	if p.Description == "" {
		p.Description = "desc"
	}
	require.NoError(t, a.st.Products.Create(context.Background(), &p))
	return p
}

// review stores a review and appends it to the product.
func (a *testApp) review(t *testing.T, productID string, rating float64, approved bool) domain.Review {
	t.Helper()
	ctx := context.Background()
	rv := domain.Review{ProductID: productID, Rating: rating, Description: "text", IsApproved: approved}
	require.NoError(t, a.st.Reviews.Create(ctx, &rv))
	_, err := a.st.Products.AppendReview(ctx, productID, rv.ID)
	require.NoError(t, err)
	return rv
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type filePart struct {
	field, name, contentType string
}

// multipartReq builds a multipart request with text fields and file parts.
func multipartReq(t *testing.T, method, path string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

// captureLogs redirects the structured logger while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	defer applog.SetOutput(os.Stdout)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
