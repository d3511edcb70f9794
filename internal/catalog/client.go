// Package catalog содержит клиент внешнего поискового сервиса камней
// и нормализацию разнородных атрибутов фида в каноническую форму.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/pkg/logger"
)

// Document — сырой документ поискового сервиса. Схема фида разнородная,
// поэтому до нормализации документ остаётся свободной формой.
type Document map[string]any

// SearchClient — внешний поисковый сервис каталога.
type SearchClient interface {
	// SearchByExternalID ищет документ по внешнему идентификатору позиции.
	// Возвращает domain.ErrItemNotFound, если позиция отсутствует в каталоге.
	SearchByExternalID(ctx context.Context, externalID, collection string) (Document, error)
}

// ClientConfig — настройки клиента поискового сервиса.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // По умолчанию 10s
}

// scanPageLimit ограничивает полный перебор коллекции на последнем
// уровне фолбэка.
const scanPageLimit = 10

type searchClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSearchClient создаёт HTTP клиент поискового сервиса.
func NewSearchClient(cfg ClientConfig) SearchClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &searchClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// SearchByExternalID ищет документ тремя стратегиями по убыванию точности:
// точный фильтр, затем полнотекстовый запрос, затем постраничный перебор.
// Фолбэк существует из-за нестрогой схемы фида: часть коллекций не
// индексирует поле external_id как фильтруемое.
func (c *searchClient) SearchByExternalID(ctx context.Context, externalID, collection string) (Document, error) {
	log := logger.FromContext(ctx)

	doc, err := c.searchFiltered(ctx, externalID, collection)
	if err == nil {
		return doc, nil
	}
	log.Debug().Err(err).Str("external_id", externalID).Msg("точный фильтр не нашёл документ, пробуем полнотекстовый поиск")

	doc, err = c.searchFreeText(ctx, externalID, collection)
	if err == nil {
		return doc, nil
	}
	log.Debug().Err(err).Str("external_id", externalID).Msg("полнотекстовый поиск не нашёл документ, переходим к перебору")

	return c.scan(ctx, externalID, collection)
}

// searchFiltered — точный фильтр по external_id.
func (c *searchClient) searchFiltered(ctx context.Context, externalID, collection string) (Document, error) {
	q := url.Values{}
	q.Set("q", "*")
	q.Set("filter_by", "external_id:="+externalID)
	return c.searchOne(ctx, collection, q, externalID)
}

// searchFreeText — полнотекстовый запрос по идентификатору.
func (c *searchClient) searchFreeText(ctx context.Context, externalID, collection string) (Document, error) {
	q := url.Values{}
	q.Set("q", externalID)
	q.Set("query_by", "external_id,title")
	return c.searchOne(ctx, collection, q, externalID)
}

func (c *searchClient) searchOne(ctx context.Context, collection string, q url.Values, externalID string) (Document, error) {
	var resp struct {
		Hits []struct {
			Document Document `json:"document"`
		} `json:"hits"`
	}
	path := "/collections/" + url.PathEscape(collection) + "/documents/search?" + q.Encode()
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	for _, hit := range resp.Hits {
		if documentExternalID(hit.Document) == externalID {
			return hit.Document, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

// scan перебирает коллекцию постранично. Последняя линия обороны для
// коллекций без индекса по external_id; страниц не больше scanPageLimit.
func (c *searchClient) scan(ctx context.Context, externalID, collection string) (Document, error) {
	for page := 1; page <= scanPageLimit; page++ {
		q := url.Values{}
		q.Set("q", "*")
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", "250")

		var resp struct {
			Found int `json:"found"`
			Hits  []struct {
				Document Document `json:"document"`
			} `json:"hits"`
		}
		path := "/collections/" + url.PathEscape(collection) + "/documents/search?" + q.Encode()
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, err
		}
		for _, hit := range resp.Hits {
			if documentExternalID(hit.Document) == externalID {
				return hit.Document, nil
			}
		}
		if len(resp.Hits) == 0 {
			break
		}
	}
	return nil, domain.ErrItemNotFound
}

func (c *searchClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("создание запроса к каталогу: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("запрос к каталогу: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrItemNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("каталог вернул статус %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("разбор ответа каталога: %w", err)
	}
	return nil
}

// documentExternalID достаёт внешний идентификатор из документа,
// учитывая известные варианты написания поля.
func documentExternalID(doc Document) string {
	return firstString(doc, "external_id", "externalId", "id", "stock_number", "stockNumber")
}
