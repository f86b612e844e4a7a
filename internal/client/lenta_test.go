package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"lenta/parser/internal/domain"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*lentaClient, *httpmock.MockTransport) {
	t.Helper()

	cl := NewLentaClient(testLentaConfig(), nil).(*lentaClient)
	transport := httpmock.NewMockTransport()
	cl.httpClient.SetTransport(transport)

	// Default session bootstrap used by the throwaway device/session pairs.
	transport.RegisterResponder("GET", "https://gw.test/api/rest/siteSettingsGet",
		httpmock.NewStringResponder(200, `{"Head":{"SessionToken":"tok-test"}}`))

	return cl, transport
}

func testSession() *domain.Session {
	return &domain.Session{DeviceID: "device-test", Token: "tok-test"}
}

func TestBootstrapSession(t *testing.T) {
	cl, _ := newTestClient(t)

	token, err := cl.BootstrapSession(context.Background(), "device-test")
	require.NoError(t, err)
	assert.Equal(t, "tok-test", token)
}

func TestBootstrapSessionNon200(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("GET", "https://gw.test/api/rest/siteSettingsGet",
		httpmock.NewStringResponder(503, ""))

	token, err := cl.BootstrapSession(context.Background(), "device-test")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestBootstrapSessionMissingToken(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("GET", "https://gw.test/api/rest/siteSettingsGet",
		httpmock.NewStringResponder(200, `{"Head":{"Method":"siteSettingsGet"}}`))

	token, err := cl.BootstrapSession(context.Background(), "device-test")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestListStoresRegionFilter(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("GET", "https://api.test/v1/stores/",
		httpmock.NewStringResponder(200, `[
			{"id": "1", "name": "Невский", "cityKey": "spb"},
			{"id": "2", "name": "Казанская", "cityKey": "kzn"},
			{"id": "3", "name": "Тверская", "cityKey": "msk"},
			{"id": "4", "name": "Лиговский", "cityKey": "spb"}
		]`))

	stores, err := cl.ListStores(context.Background(), testSession())
	require.NoError(t, err)
	require.Len(t, stores, 3)
	// Upstream relative order is preserved.
	assert.Equal(t, "1", stores[0].ID)
	assert.Equal(t, "3", stores[1].ID)
	assert.Equal(t, "4", stores[2].ID)
}

func TestListStoresDegradesToEmpty(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("GET", "https://api.test/v1/stores/",
		httpmock.NewStringResponder(500, "boom"))

	stores, err := cl.ListStores(context.Background(), testSession())
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestActivateStore(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("POST", "https://gw.test/jrpc/pickupStoreSelectedSet",
		func(req *http.Request) (*http.Response, error) {
			var body storeSelectedSetRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(400, ""), nil
			}
			if body.Jsonrpc != "2.0" || body.Method != "pickupStoreSelectedSet" ||
				body.ID != storeSelectedSetID || body.Params.StoreID != "s1" {
				return httpmock.NewStringResponse(400, ""), nil
			}
			return httpmock.NewStringResponse(200, `{"jsonrpc":"2.0","result":{"ok":true},"id":1738023249752}`), nil
		})

	result, err := cl.ActivateStore(context.Background(), testSession(), "s1")
	require.NoError(t, err)
	assert.True(t, result.Get("result.ok").Bool())
}

func TestActivateStoreErrorStatus(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("POST", "https://gw.test/jrpc/pickupStoreSelectedSet",
		httpmock.NewStringResponder(403, ""))

	_, err := cl.ActivateStore(context.Background(), testSession(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGetCategoryTree(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("GET", "https://api.test/v1/stores/s1/catalog",
		httpmock.NewStringResponder(200, `[
			{"code": "a", "name": "Бакалея", "categories": [
				{"code": "b", "name": "Крупы", "subcategories": [
					{"code": "c", "name": "Рис"}
				]}
			]},
			{"code": "d", "name": "Молочное"}
		]`))

	categories, err := cl.GetCategoryTree(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{
		{Code: "a", Name: "Бакалея"},
		{Code: "b", Name: "Крупы"},
		{Code: "c", Name: "Рис"},
		{Code: "d", Name: "Молочное"},
	}, categories)
}

func TestGetCategoryTreeFatalOnError(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("GET", "https://api.test/v1/stores/s1/catalog",
		httpmock.NewStringResponder(502, ""))

	_, err := cl.GetCategoryTree(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

// matchingSku returns a SKU belonging to category c1 in the nested
// membership shape the live API uses.
func matchingSku(id int) string {
	return fmt.Sprintf(`{
		"code": "sku-%d",
		"title": "Товар %d",
		"regularPrice": {"value": 100},
		"discountPrice": {"value": 90},
		"brand": "Марка",
		"categories": {"group": {"code": "c1", "name": "Группа"}}
	}`, id, id)
}

func nonMatchingSku(id int) string {
	return fmt.Sprintf(`{
		"code": "other-%d",
		"title": "Другой %d",
		"regularPrice": {"value": 10},
		"discountPrice": {"value": 10},
		"brand": "",
		"categories": {"group": {"code": "zzz"}}
	}`, id, id)
}

func skuPage(skus ...string) string {
	return `{"skus":[` + strings.Join(skus, ",") + `]}`
}

// registerSkuPages maps request offsets to canned responses; any offset not
// in the map gets an empty page.
func registerSkuPages(transport *httpmock.MockTransport, pages map[int]*http.Response) {
	transport.RegisterResponder("POST", "https://api.test/v1/stores/s1/skus",
		func(req *http.Request) (*http.Response, error) {
			var body skuPageRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(400, ""), nil
			}
			if resp, ok := pages[body.Offset]; ok {
				return resp, nil
			}
			return httpmock.NewStringResponse(200, `{"skus":[]}`), nil
		})
}

func TestFetchCatalogPaginationTermination(t *testing.T) {
	cl, transport := newTestClient(t)
	// Two full pages then exhaustion; page size is 2 in the test config.
	registerSkuPages(transport, map[int]*http.Response{
		0: httpmock.NewStringResponse(200, skuPage(matchingSku(1), matchingSku(2))),
		2: httpmock.NewStringResponse(200, skuPage(matchingSku(3), nonMatchingSku(4))),
	})

	products, err := cl.FetchCatalog(context.Background(), "c1", 10, "s1", 0, nil)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "sku-1", products[0].ID)
	assert.Equal(t, "sku-3", products[2].ID)

	// 0, 2 and the empty page at 4; nothing after exhaustion.
	info := transport.GetCallCountInfo()
	assert.Equal(t, 3, info["POST https://api.test/v1/stores/s1/skus"])
}

func TestFetchCatalogLimitEnforcement(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("POST", "https://api.test/v1/stores/s1/skus",
		func(req *http.Request) (*http.Response, error) {
			var body skuPageRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return httpmock.NewStringResponse(400, ""), nil
			}
			// Unlimited matching upstream.
			return httpmock.NewStringResponse(200,
				skuPage(matchingSku(body.Offset), matchingSku(body.Offset+1))), nil
		})

	products, err := cl.FetchCatalog(context.Background(), "c1", 5, "s1", 0, nil)
	require.NoError(t, err)
	assert.Len(t, products, 5)
}

func TestFetchCatalogPartialFailure(t *testing.T) {
	cl, transport := newTestClient(t)
	registerSkuPages(transport, map[int]*http.Response{
		0: httpmock.NewStringResponse(200, skuPage(matchingSku(1), matchingSku(2))),
		2: httpmock.NewStringResponse(200, skuPage(matchingSku(3), matchingSku(4))),
		4: httpmock.NewStringResponse(500, "boom"),
	})

	products, err := cl.FetchCatalog(context.Background(), "c1", 10, "s1", 0, nil)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestFetchCatalogStartOffsetAndPageHook(t *testing.T) {
	cl, transport := newTestClient(t)
	registerSkuPages(transport, map[int]*http.Response{
		4: httpmock.NewStringResponse(200, skuPage(matchingSku(5), matchingSku(6))),
	})

	var offsets []int
	products, err := cl.FetchCatalog(context.Background(), "c1", 10, "s1", 4,
		func(offset, matched int) {
			offsets = append(offsets, offset)
			assert.Equal(t, 2, matched)
		})
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, []int{4}, offsets)
}

func TestGetItemBrand(t *testing.T) {
	cl, transport := newTestClient(t)
	transport.RegisterResponder("GET", "https://cat.test/v1/catalog/items/i1",
		httpmock.NewStringResponder(200, `{"attributes":[
			{"name": "Вес", "value": "1 кг"},
			{"name": "Бренд", "value": "Простоквашино"}
		]}`))

	brand, err := cl.GetItemBrand(context.Background(), testSession(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "Простоквашино", brand)
}

func TestGetItemBrandRateLimited(t *testing.T) {
	cl, transport := newTestClient(t)
	// Backoff is zero in the test config, so the 429 path returns promptly.
	transport.RegisterResponder("GET", "https://cat.test/v1/catalog/items/i1",
		httpmock.NewStringResponder(429, ""))

	brand, err := cl.GetItemBrand(context.Background(), testSession(), "i1")
	require.NoError(t, err)
	assert.Empty(t, brand)
}
