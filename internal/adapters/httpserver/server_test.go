package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/booklibrary/internal/adapters/repo/gormdb"
	"github.com/phenrril/booklibrary/internal/adapters/sheet"
	"github.com/phenrril/booklibrary/internal/domain"
	"github.com/phenrril/booklibrary/internal/usecase"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := gormdb.NewStore(db)
	require.NoError(t, store.CreateAll(context.Background()))
	t.Cleanup(func() {
		_ = store.DropAll(context.Background())
		_ = store.Close()
	})
	return New(&usecase.CustomerUC{Customers: store.Customers()})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func validBody(name, pesel string) map[string]any {
	return map[string]any{"name": name, "city": "City", "age": 40, "pesel": pesel, "street": "Street St", "app_no": "123"}
}

func TestCustomersAPI_CreateGetListDelete(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/customers", validBody("John Doe", "99999999999"))
	require.Equal(t, 201, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	var created domain.Customer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)

	w = do(t, h, http.MethodGet, "/api/customers/"+created.ID.String(), nil)
	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"app_no":"123"`)

	w = do(t, h, http.MethodGet, "/api/customers?q=john", nil)
	require.Equal(t, 200, w.Code)
	var page struct {
		Items []domain.Customer `json:"items"`
		Total int64             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 1, page.Total)

	w = do(t, h, http.MethodDelete, "/api/customers/"+created.ID.String(), nil)
	assert.Equal(t, 204, w.Code)
	w = do(t, h, http.MethodGet, "/api/customers/"+created.ID.String(), nil)
	assert.Equal(t, 404, w.Code)
	w = do(t, h, http.MethodDelete, "/api/customers/"+created.ID.String(), nil)
	assert.Equal(t, 404, w.Code)
}

func TestCustomersAPI_IntegrityIs422(t *testing.T) {
	h := newTestServer(t)

	require.Equal(t, 201, do(t, h, http.MethodPost, "/api/customers", validBody("John Doe", "1111111111")).Code)

	w := do(t, h, http.MethodPost, "/api/customers", validBody("Jane Doe", "1111111111"))
	require.Equal(t, 422, w.Code)
	var body struct {
		Error      string             `json:"error"`
		Violations []domain.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "integrity", body.Error)
	assert.Equal(t, []domain.Violation{{Field: "pesel", Rule: "unique"}}, body.Violations)

	bad := validBody(strings.Repeat("a", 300), "2")
	bad["age"] = -40
	w = do(t, h, http.MethodPost, "/api/customers", bad)
	require.Equal(t, 422, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Violations, 2)

	w = do(t, h, http.MethodPost, "/api/customers", map[string]any{})
	assert.Equal(t, 422, w.Code)
}

func TestCustomersAPI_PayloadsComeBackVerbatim(t *testing.T) {
	h := newTestServer(t)
	for i, name := range []string{"John Doe'); DROP TABLE customers;--", `<script>alert("is anyone there?")</script>`} {
		w := do(t, h, http.MethodPost, "/api/customers", validBody(name, fmt.Sprint(i)))
		require.Equal(t, 201, w.Code, w.Body.String())
		var c domain.Customer
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))

		w = do(t, h, http.MethodGet, "/api/customers/"+c.ID.String(), nil)
		require.Equal(t, 200, w.Code)
		var got domain.Customer
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, name, got.Name)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
	w := do(t, h, http.MethodGet, "/api/customers", nil)
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestCustomersAPI_Update(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, http.MethodPost, "/api/customers", validBody("John Doe", "1"))
	var c domain.Customer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))

	w = do(t, h, http.MethodPut, "/api/customers/"+c.ID.String(), map[string]any{"city": "Torun"})
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"city":"Torun"`)

	w = do(t, h, http.MethodPut, "/api/customers/"+c.ID.String(), map[string]any{"age": 0})
	assert.Equal(t, 422, w.Code)

	w = do(t, h, http.MethodPut, "/api/customers/"+uuid.NewString(), map[string]any{"city": "Torun"})
	assert.Equal(t, 404, w.Code)
}

func TestCustomersAPI_BadRequests(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/customers", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)

	assert.Equal(t, 404, do(t, h, http.MethodGet, "/api/customers/not-a-uuid", nil).Code)
	assert.Equal(t, 405, do(t, h, http.MethodPatch, "/api/customers", nil).Code)
	assert.Equal(t, 405, do(t, h, http.MethodPost, "/api/customers/export.csv", nil).Code)
	assert.Equal(t, 200, do(t, h, http.MethodGet, "/healthz", nil).Code)
}

func TestCustomersAPI_ExportImport(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, 201, do(t, h, http.MethodPost, "/api/customers", validBody("John Doe", "1")).Code)

	w := do(t, h, http.MethodGet, "/api/customers/export.csv", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, "name,city,age,pesel,street,app_no\nJohn Doe,City,40,1,Street St,123\n", w.Body.String())

	w = do(t, h, http.MethodGet, "/api/customers/export.xlsx", nil)
	require.Equal(t, 200, w.Code)
	rows, err := sheet.ReadXLSX(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "John Doe", rows[0].Customer.Name)

	f := excelize.NewFile()
	defer f.Close()
	sh := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sh, "A1", &[]interface{}{"name", "city", "age", "pesel", "street", "app_no"}))
	require.NoError(t, f.SetSheetRow(sh, "A2", &[]interface{}{"Jane Doe", "Opole", 33, "2", "Wiejska", "4"}))
	require.NoError(t, f.SetSheetRow(sh, "A3", &[]interface{}{"Dup", "Opole", 33, "1", "Wiejska", "5"}))
	var xlsx bytes.Buffer
	require.NoError(t, f.Write(&xlsx))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "customers.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/customers/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code, w.Body.String())

	var rep usecase.ImportReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 1, rep.Rejected)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, 3, rep.Errors[0].Line)
}

func TestMiddleware_RecoveryAndRequestID(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", RequestIDFrom(r.Context()))
		panic("boom")
	}), Recovery, Logging, RequestID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, 500, w.Code)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}
