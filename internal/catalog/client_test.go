package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/gem-checkout/internal/domain"
)

func searchResponse(docs ...Document) map[string]any {
	hits := make([]map[string]any, len(docs))
	for i, doc := range docs {
		hits[i] = map[string]any{"document": doc}
	}
	return map[string]any{"found": len(docs), "hits": hits}
}

// =============================================================================
// Тесты цепочки фолбэков поиска
// =============================================================================

func TestSearchByExternalID_ExactFilter(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/collections/stones/documents/search", r.URL.Path)
		assert.Equal(t, "external_id:=ST-1", r.URL.Query().Get("filter_by"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		_ = json.NewEncoder(w).Encode(searchResponse(Document{"external_id": "ST-1", "price": 100.0}))
	}))
	defer server.Close()

	client := NewSearchClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key"})

	doc, err := client.SearchByExternalID(context.Background(), "ST-1", "stones")

	require.NoError(t, err)
	assert.Equal(t, "ST-1", documentExternalID(doc))
	assert.Equal(t, 1, requests)
}

func TestSearchByExternalID_FallsBackToFreeText(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("filter_by") != "" {
			// Коллекция без фильтруемого поля
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "ST-2", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(searchResponse(Document{"external_id": "ST-2"}))
	}))
	defer server.Close()

	client := NewSearchClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key"})

	doc, err := client.SearchByExternalID(context.Background(), "ST-2", "stones")

	require.NoError(t, err)
	assert.Equal(t, "ST-2", documentExternalID(doc))
	assert.Equal(t, 2, requests)
}

func TestSearchByExternalID_FallsBackToScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("filter_by") != "":
			w.WriteHeader(http.StatusBadRequest)
		case q.Get("query_by") != "":
			_ = json.NewEncoder(w).Encode(searchResponse())
		case q.Get("page") == "1":
			_ = json.NewEncoder(w).Encode(searchResponse(Document{"external_id": "OTHER"}))
		case q.Get("page") == "2":
			_ = json.NewEncoder(w).Encode(searchResponse(Document{"external_id": "ST-3"}))
		default:
			_ = json.NewEncoder(w).Encode(searchResponse())
		}
	}))
	defer server.Close()

	client := NewSearchClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key"})

	doc, err := client.SearchByExternalID(context.Background(), "ST-3", "stones")

	require.NoError(t, err)
	assert.Equal(t, "ST-3", documentExternalID(doc))
}

func TestSearchByExternalID_NotFoundAfterAllStrategies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResponse())
	}))
	defer server.Close()

	client := NewSearchClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key"})

	_, err := client.SearchByExternalID(context.Background(), "MISSING", "stones")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestSearchByExternalID_IgnoresWrongHit(t *testing.T) {
	// Полнотекстовый поиск может вернуть похожие, но чужие документы
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResponse(Document{"external_id": "ST-10"}))
	}))
	defer server.Close()

	client := NewSearchClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key"})

	_, err := client.SearchByExternalID(context.Background(), "ST-1", "stones")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}
