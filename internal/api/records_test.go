package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/persistorai/vitiapi/internal/api"
	"github.com/persistorai/vitiapi/internal/models"
	"github.com/persistorai/vitiapi/internal/store"
)

func processingRepo(recs []models.Processing) *mockRecordRepo[models.Processing] {
	return &mockRecordRepo[models.Processing]{
		meta: store.Processings.Meta,
		listFn: func(_ context.Context, _ store.Filter, p store.Page) ([]models.Processing, int, error) {
			end := min(p.Offset+p.Limit, len(recs))
			if p.Offset >= len(recs) {
				return nil, len(recs), nil
			}
			return recs[p.Offset:end], len(recs), nil
		},
		getFn: func(_ context.Context, id int64) (*models.Processing, error) {
			for _, r := range recs {
				if r.ID == id {
					return &r, nil
				}
			}
			return nil, models.ErrNotFound
		},
	}
}

func sampleProcessings(n int) []models.Processing {
	out := make([]models.Processing, n)
	for i := range out {
		out[i] = models.Processing{ID: int64(i + 1), Name: "Cabernet", Category: "TINTAS", Subcategory: "Viníferas", Quantity: 100, Year: 1980}
	}
	return out
}

type listBody[T any] struct {
	Pagination struct {
		Total   int  `json:"total"`
		Limit   int  `json:"limit"`
		Offset  int  `json:"offset"`
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
	Items []T
}

func decodeList[T any](t *testing.T, body []byte, key string) listBody[T] {
	t.Helper()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	var out listBody[T]
	if err := json.Unmarshal(raw["pagination"], &out.Pagination); err != nil {
		t.Fatalf("missing pagination: %v", err)
	}
	if err := json.Unmarshal(raw[key], &out.Items); err != nil {
		t.Fatalf("missing %q: %v", key, err)
	}

	return out
}

func TestRecordList_DefaultPage(t *testing.T) {
	t.Parallel()

	repo := processingRepo(sampleProcessings(25))
	h := api.NewRecordHandler[models.Processing](models.TableProcessings, repo, nil, testLogger())

	r := newTestRouter()
	r.GET("/processings", h.List)

	w := doRequest(r, http.MethodGet, "/processings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeList[models.Processing](t, w.Body.Bytes(), "processings")
	if len(body.Items) != 10 || body.Pagination.Limit != 10 || body.Pagination.Total != 25 || !body.Pagination.HasMore {
		t.Errorf("unexpected page: %d items, %+v", len(body.Items), body.Pagination)
	}
}

func TestRecordList_LastPage(t *testing.T) {
	t.Parallel()

	repo := processingRepo(sampleProcessings(25))
	h := api.NewRecordHandler[models.Processing](models.TableProcessings, repo, nil, testLogger())

	r := newTestRouter()
	r.GET("/processings", h.List)

	w := doRequest(r, http.MethodGet, "/processings?limit=10&offset=20", "")
	body := decodeList[models.Processing](t, w.Body.Bytes(), "processings")

	if len(body.Items) != 5 || body.Pagination.HasMore {
		t.Errorf("expected final 5 items without more, got %d %+v", len(body.Items), body.Pagination)
	}
}

func TestRecordList_EmptyIsArray(t *testing.T) {
	t.Parallel()

	repo := processingRepo(nil)
	h := api.NewRecordHandler[models.Processing](models.TableProcessings, repo, nil, testLogger())

	r := newTestRouter()
	r.GET("/processings", h.List)

	w := doRequest(r, http.MethodGet, "/processings", "")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["processings"]) != "[]" {
		t.Errorf("expected empty array, got %s", raw["processings"])
	}
}

func TestRecordList_InvalidPage(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"limit=0", "limit=101", "limit=abc", "offset=-1"} {
		t.Run(q, func(t *testing.T) {
			t.Parallel()

			h := api.NewRecordHandler[models.Processing](models.TableProcessings, processingRepo(nil), nil, testLogger())
			r := newTestRouter()
			r.GET("/processings", h.List)

			w := doRequest(r, http.MethodGet, "/processings?"+q, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if code := errorCode(w.Body.Bytes()); code != api.ErrCodeValidationError {
				t.Errorf("expected validation_error, got %q", code)
			}
		})
	}
}

func TestRecordList_Filters(t *testing.T) {
	t.Parallel()

	repo := processingRepo(nil)
	h := api.NewRecordHandler[models.Processing](models.TableProcessings, repo, nil, testLogger())

	r := newTestRouter()
	r.GET("/processings", h.List)

	w := doRequest(r, http.MethodGet, "/processings?category=TINTAS&year=1980&quantity_min=10&quantity_max=500", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	f, _ := repo.seen()
	if f.Equal["category"] != "TINTAS" {
		t.Errorf("category filter = %v", f.Equal["category"])
	}
	if f.Equal["year"] != int64(1980) {
		t.Errorf("year filter = %#v, want int64(1980)", f.Equal["year"])
	}
	if f.Min["quantity"] != 10 || f.Max["quantity"] != 500 {
		t.Errorf("quantity range = %v..%v", f.Min["quantity"], f.Max["quantity"])
	}
}

func TestRecordList_RejectsBadFilters(t *testing.T) {
	t.Parallel()

	tests := []string{
		"color=red",
		"year=nineteen",
		"name_min=3",
		"year_max=soon",
	}

	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			t.Parallel()

			h := api.NewRecordHandler[models.Processing](models.TableProcessings, processingRepo(nil), nil, testLogger())
			r := newTestRouter()
			r.GET("/processings", h.List)

			w := doRequest(r, http.MethodGet, "/processings?"+q, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRecordList_ProductName(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo[models.Production]{meta: store.Productions.Meta}
	products := &mockProductRepo{products: []models.Product{
		{ID: 3, Name: "Tinto", Category: "VINHO DE MESA"},
		{ID: 9, Name: "Tinto", Category: "VINHO FINO DE MESA (VINIFERA)"},
		{ID: 4, Name: "Branco", Category: "VINHO DE MESA"},
	}}
	h := api.NewRecordHandler[models.Production](models.TableProductions, repo, products, testLogger())

	r := newTestRouter()
	r.GET("/productions", h.List)

	w := doRequest(r, http.MethodGet, "/productions?product_name=Tinto", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	f, _ := repo.seen()
	ids := f.In["product_id"]
	if len(ids) != 2 || ids[0] != int64(3) || ids[1] != int64(9) {
		t.Errorf("product_id filter = %v, want [3 9]", ids)
	}
}

func TestRecordList_ProductNameUnsupported(t *testing.T) {
	t.Parallel()

	h := api.NewRecordHandler[models.Processing](models.TableProcessings, processingRepo(nil), &mockProductRepo{}, testLogger())
	r := newTestRouter()
	r.GET("/processings", h.List)

	w := doRequest(r, http.MethodGet, "/processings?product_name=Tinto", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("processings has no product reference, expected 400, got %d", w.Code)
	}
}

func TestRecordList_StoreError(t *testing.T) {
	t.Parallel()

	repo := &mockRecordRepo[models.Product]{
		meta: store.Products.Meta,
		listFn: func(context.Context, store.Filter, store.Page) ([]models.Product, int, error) {
			return nil, 0, errDBDown
		},
	}
	h := api.NewRecordHandler[models.Product](models.TableProducts, repo, nil, testLogger())

	r := newTestRouter()
	r.GET("/products", h.List)

	w := doRequest(r, http.MethodGet, "/products", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestRecordGet(t *testing.T) {
	t.Parallel()

	repo := processingRepo(sampleProcessings(3))
	h := api.NewRecordHandler[models.Processing](models.TableProcessings, repo, nil, testLogger())

	r := newTestRouter()
	r.GET("/processings/:id", h.Get)

	tests := []struct {
		path     string
		wantCode int
		wantErr  string
	}{
		{"/processings/2", http.StatusOK, ""},
		{"/processings/99", http.StatusNotFound, api.ErrCodeNotFound},
		{"/processings/abc", http.StatusBadRequest, api.ErrCodeInvalidRequest},
		{"/processings/0", http.StatusBadRequest, api.ErrCodeInvalidRequest},
	}

	for _, tc := range tests {
		w := doRequest(r, http.MethodGet, tc.path, "")
		if w.Code != tc.wantCode {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.wantCode, w.Code)
			continue
		}

		if tc.wantErr != "" {
			if code := errorCode(w.Body.Bytes()); code != tc.wantErr {
				t.Errorf("%s: expected code %q, got %q", tc.path, tc.wantErr, code)
			}
			continue
		}

		var rec models.Processing
		if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
			t.Fatal(err)
		}
		if rec.ID != 2 {
			t.Errorf("expected id 2, got %d", rec.ID)
		}
	}
}
