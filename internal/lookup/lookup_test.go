package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/scale"
)

const searchBody = `{
  "totalHits": 2,
  "pageNumber": 1,
  "items": [
    {
      "source": "USDA",
      "fdcId": 171287,
      "description": "Egg, whole, raw",
      "brandName": null,
      "servings": {
        "per100g": {"calories": 143, "protein": 12.6, "carbs": 0.7, "fat": 9.5},
        "perServing": {"grams": 50, "calories": 72, "protein": 6.3, "carbs": 0.4, "fat": 4.8}
      },
      "units": [
        {"label": "gram (g)", "gramsPerUnit": 1},
        {"label": "ounce (oz)", "gramsPerUnit": 28.3495},
        {"label": "1 large", "gramsPerUnit": 50},
        {"label": "serving", "gramsPerUnit": 50}
      ]
    },
    {
      "source": "USDA",
      "fdcId": 2000,
      "description": "Mystery bar",
      "brandName": "Acme",
      "servings": {"per100g": {"calories": null, "protein": 10, "carbs": null, "fat": null}, "perServing": null},
      "units": []
    }
  ]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", 5*time.Second, nil, nil)
}

func TestSearch(t *testing.T) {
	var gotQuery, gotKey string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/foods/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	})

	items, err := c.Search(context.Background(), "  egg ", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "pageNumber=1&pageSize=25&q=egg" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotKey != "secret" {
		t.Errorf("X-Api-Key = %q, want secret", gotKey)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	egg := items[0]
	if egg.ID != "171287" || egg.DisplayName() != "Egg, whole, raw" || egg.ServingGrams != 50 {
		t.Errorf("egg = %+v", egg)
	}
	if egg.Per100g == nil || *egg.Per100g.Calories != 143 || *egg.Per100g.Protein != 12.6 {
		t.Errorf("egg per100g = %+v", egg.Per100g)
	}
	if len(egg.Units) != 4 || scale.DefaultUnitIndex(egg.Units) != 3 {
		t.Errorf("egg units = %+v", egg.Units)
	}

	bar := items[1]
	if bar.DisplayName() != "Acme Mystery bar" {
		t.Errorf("DisplayName() = %q", bar.DisplayName())
	}
	if bar.Per100g.Calories != nil || bar.Per100g.Protein == nil {
		t.Errorf("bar per100g = %+v, want unknown calories and known protein", bar.Per100g)
	}
	if len(bar.Units) != 2 || bar.Units[0] != scale.Gram || bar.Units[1] != scale.Ounce {
		t.Errorf("bar units = %+v, want gram/ounce fallback", bar.Units)
	}
}

func TestSearch_LimitClamped(t *testing.T) {
	var pageSize string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		pageSize = r.URL.Query().Get("pageSize")
		_, _ = w.Write([]byte(`{"items":[]}`))
	})
	if _, err := c.Search(context.Background(), "rice", 1000); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if pageSize != "200" {
		t.Errorf("pageSize = %q, want 200", pageSize)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := NewClient("http://unused", "", 0, nil, nil)
	if _, err := c.Search(context.Background(), "  ", 5); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Search(\"\") error = %v, want INVALID_REQUEST", err)
	}
}

func TestSearch_ProxyError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"USDA proxy failed"}`, http.StatusBadGateway)
	})
	_, err := c.Search(context.Background(), "rice", 5)
	if !errors.Is(err, errors.ErrLookupFailed) {
		t.Errorf("Search() error = %v, want LOOKUP_FAILED", err)
	}
}

func TestSearch_BadJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	if _, err := c.Search(context.Background(), "rice", 5); !errors.Is(err, errors.ErrLookupFailed) {
		t.Errorf("Search() error = %v, want LOOKUP_FAILED", err)
	}
}

func TestSearch_NotConfigured(t *testing.T) {
	c := NewClient("", "", 0, nil, nil)
	if _, err := c.Search(context.Background(), "rice", 5); !errors.Is(err, errors.ErrLookupFailed) {
		t.Errorf("Search() error = %v, want LOOKUP_FAILED", err)
	}
}

func TestBarcode(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/barcode/737628064502":
			_, _ = w.Write([]byte(`{"item":{"source":"OFF","code":"737628064502","description":"Rice noodles","brandName":"Thai Kitchen",
				"servings":{"per100g":{"calories":385,"protein":7.7,"carbs":84.6,"fat":0},"perServing":{"grams":57}},
				"units":[{"label":"gram (g)","gramsPerUnit":1},{"label":"serving","gramsPerUnit":57}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Product not found"}`))
		}
	})

	got, err := c.Barcode(context.Background(), "737628064502")
	if err != nil {
		t.Fatalf("Barcode() error = %v", err)
	}
	if got == nil || got.ID != "737628064502" || got.DisplayName() != "Thai Kitchen Rice noodles" {
		t.Fatalf("Barcode() = %+v", got)
	}
	if idx := scale.DefaultUnitIndex(got.ScalingUnits()); idx != 1 {
		t.Errorf("DefaultUnitIndex = %d, want 1", idx)
	}

	missing, err := c.Barcode(context.Background(), "000")
	if err != nil || missing != nil {
		t.Errorf("Barcode(unknown) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestBarcode_Cancelled(t *testing.T) {
	block := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Barcode(ctx, "123"); !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("Barcode() error = %v, want CANCELLED", err)
	}
}
