package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"lenta/parser/internal/config"
	"lenta/parser/internal/domain"
	"lenta/parser/internal/identity"
	"lenta/parser/internal/proxy"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// storeSelectedSetID is the fixed JSON-RPC request id the app sends with
// pickupStoreSelectedSet.
const storeSelectedSetID = 1738023249752

type LentaClient interface {
	// BootstrapSession exchanges a device identity for a session token. A
	// non-200 response or a response without a token yields an empty token
	// and a nil error; callers must treat the empty token as fatal.
	BootstrapSession(ctx context.Context, deviceID string) (string, error)
	// ListStores returns the store directory filtered to the configured
	// regions, preserving upstream order. Degrades to an empty slice on a
	// non-200 status.
	ListStores(ctx context.Context, sess *domain.Session) ([]domain.Store, error)
	// ActivateStore binds the session to one store server-side. Subsequent
	// catalog calls are implicitly scoped to the last activated store.
	ActivateStore(ctx context.Context, sess *domain.Session, storeID string) (gjson.Result, error)
	// GetCategoryTree fetches the full per-store catalog document and
	// flattens it. Any non-200 status is an error; there is no safe empty
	// fallback because category selection needs a non-empty list.
	GetCategoryTree(ctx context.Context, storeID string) ([]domain.Category, error)
	// FetchCatalog paginates the store's SKU list and returns the products
	// whose membership structure contains categoryCode, at most limitTotal
	// of them. onPage, if non-nil, observes each completed page.
	FetchCatalog(ctx context.Context, categoryCode string, limitTotal int, storeID string, startOffset int, onPage func(offset, matched int)) ([]domain.Product, error)
	// GetItemBrand looks up a single catalog item and returns its brand
	// attribute, or empty when the item has none or the call fails. Sleeps
	// the configured backoff once on a 429.
	GetItemBrand(ctx context.Context, sess *domain.Session, itemID string) (string, error)
}

type lentaClient struct {
	rl            ratelimit.Limiter
	config        config.LentaConfig
	httpClient    *resty.Client
	signer        *signer
	proxySupplier proxy.ProxySupplier
}

func NewLentaClient(cfg config.LentaConfig, proxySupplier proxy.ProxySupplier) LentaClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout) * time.Second).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using proxy: %s", proxyURL)
		}
	}

	return &lentaClient{
		rl:            ratelimit.New(cfg.MaxRequestsPerSecond),
		config:        cfg,
		httpClient:    client,
		signer:        newSigner(cfg),
		proxySupplier: proxySupplier,
	}
}

// sessionRequestHead is the envelope siteSettingsGet expects in its request
// query parameter. Field names and casing are the API's, not Go's.
type sessionRequestHead struct {
	Method              string      `json:"Method"`
	RequestID           string      `json:"RequestId"`
	DeviceID            string      `json:"DeviceId"`
	Client              string      `json:"Client"`
	AdvertisingID       string      `json:"AdvertisingId"`
	Experiments         string      `json:"Experiments"`
	Status              interface{} `json:"Status"`
	MarketingPartnerKey string      `json:"MarketingPartnerKey"`
}

type sessionRequest struct {
	Head sessionRequestHead `json:"Head"`
}

func (c *lentaClient) BootstrapSession(ctx context.Context, deviceID string) (string, error) {
	url := c.config.GatewayURL + "/api/rest/siteSettingsGet"

	headers := c.signer.Headers(deviceID, "", url, map[string]string{
		"Localtime":    localtime(),
		"Sentry-Trace": identity.NewTraceID(),
		"Baggage": "sentry-environment=production,sentry-public_key=f9ad83e90a2441998bd9ec0acb1a3dbe," +
			"sentry-release=com.icemobile.lenta.prod%406.24.1%2B2371,sentry-sample_rate=0.300000011920929," +
			"sentry-sampled=false,sentry-trace_id=" + identity.NewTraceID() + ",sentry-transaction=MainActivity",
	})

	envelope, err := json.Marshal(sessionRequest{Head: sessionRequestHead{
		Method:              "siteSettingsGet",
		RequestID:           identity.NewRequestID(),
		DeviceID:            deviceID,
		Client:              c.config.Client,
		MarketingPartnerKey: c.config.MarketingPartnerKey,
	}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal session envelope: %w", err)
	}

	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParam("request", string(envelope)).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to bootstrap session: %w", err)
	}

	if resp.StatusCode() != 200 {
		log.Warnf("Session bootstrap returned status %d", resp.StatusCode())
		return "", nil
	}

	token := gjson.Get(resp.String(), "Head.SessionToken").String()
	if token == "" {
		log.Warnf("Session bootstrap response carried no session token")
	}
	return token, nil
}

func (c *lentaClient) ListStores(ctx context.Context, sess *domain.Session) ([]domain.Store, error) {
	url := c.config.APIURL + "/stores/"
	headers := c.signer.Headers(sess.DeviceID, sess.Token, url, nil)

	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store list: %w", err)
	}

	if resp.StatusCode() != 200 {
		log.Errorf("Store list request failed with status %d", resp.StatusCode())
		return []domain.Store{}, nil
	}

	var stores []domain.Store
	if err := json.Unmarshal(resp.Bytes(), &stores); err != nil {
		return nil, fmt.Errorf("failed to decode store list: %w", err)
	}

	regions := make(map[string]struct{}, len(c.config.Regions))
	for _, r := range c.config.Regions {
		regions[r] = struct{}{}
	}

	filtered := make([]domain.Store, 0, len(stores))
	for _, store := range stores {
		if _, ok := regions[store.CityKey]; ok {
			filtered = append(filtered, store)
		}
	}

	log.Debugf("Store directory: %d stores, %d in target regions", len(stores), len(filtered))
	return filtered, nil
}

type storeSelectedSetRequest struct {
	Jsonrpc string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	ID      int64                  `json:"id"`
	Params  storeSelectedSetParams `json:"params"`
}

type storeSelectedSetParams struct {
	StoreID string `json:"storeId"`
}

func (c *lentaClient) ActivateStore(ctx context.Context, sess *domain.Session, storeID string) (gjson.Result, error) {
	url := c.config.GatewayURL + "/jrpc/pickupStoreSelectedSet"
	headers := c.signer.Headers(sess.DeviceID, sess.Token, url, map[string]string{
		"Content-Type": "application/json; charset=utf-8",
		"Localtime":    localtime(),
	})

	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(storeSelectedSetRequest{
			Jsonrpc: "2.0",
			Method:  "pickupStoreSelectedSet",
			ID:      storeSelectedSetID,
			Params:  storeSelectedSetParams{StoreID: storeID},
		}).
		Post(url)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to activate store %s: %w", storeID, err)
	}

	if resp.StatusCode() != 200 {
		return gjson.Result{}, fmt.Errorf("store activation failed with status %d", resp.StatusCode())
	}

	log.Debugf("Activated store %s", storeID)
	return gjson.Parse(resp.String()), nil
}

func (c *lentaClient) GetCategoryTree(ctx context.Context, storeID string) ([]domain.Category, error) {
	url := c.config.APIURL + "/stores/" + storeID + "/catalog"

	// The catalog document endpoint does not require store activation, so a
	// throwaway device/session pair is enough.
	deviceID := identity.NewDeviceID()
	token, err := c.BootstrapSession(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	headers := c.signer.Headers(deviceID, token, url, map[string]string{
		"Content-Type": "application/json; charset=utf-8",
	})

	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog document for store %s: %w", storeID, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("catalog document request failed with status %d", resp.StatusCode())
	}

	var roots []domain.CategoryNode
	if err := json.Unmarshal(resp.Bytes(), &roots); err != nil {
		return nil, fmt.Errorf("failed to decode catalog document: %w", err)
	}

	categories := domain.FlattenCategories(roots)
	log.Infof("Catalog document for store %s: %d categories", storeID, len(categories))
	return categories, nil
}

type skuPageRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type skuPageResponse struct {
	Skus []domain.Sku `json:"skus"`
}

func (c *lentaClient) FetchCatalog(ctx context.Context, categoryCode string, limitTotal int, storeID string, startOffset int, onPage func(offset, matched int)) ([]domain.Product, error) {
	url := c.config.APIURL + "/stores/" + storeID + "/skus"

	deviceID := identity.NewDeviceID()
	token, err := c.BootstrapSession(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, limitTotal)
	offset := startOffset

	for len(products) < limitTotal {
		// Tokens are time-bound, so the header set is rebuilt per page.
		headers := c.signer.Headers(deviceID, token, url, map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		})

		c.rl.Take()
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetBody(skuPageRequest{Offset: offset, Limit: c.config.PageLimit}).
			Post(url)
		if err != nil {
			log.Errorf("SKU page request at offset %d failed: %v", offset, err)
			break
		}

		if resp.StatusCode() != 200 {
			log.Errorf("SKU page request at offset %d returned status %d", offset, resp.StatusCode())
			break
		}

		var page skuPageResponse
		if err := json.Unmarshal(resp.Bytes(), &page); err != nil {
			log.Errorf("Failed to decode SKU page at offset %d: %v", offset, err)
			break
		}

		if len(page.Skus) == 0 {
			break
		}

		matched := 0
		for _, sku := range page.Skus {
			if sku.InCategory(categoryCode) {
				products = append(products, sku.Product())
				matched++
			}
		}

		if onPage != nil {
			onPage(offset, matched)
		}

		if len(products) >= limitTotal {
			break
		}

		offset += c.config.PageLimit
	}

	if len(products) > limitTotal {
		products = products[:limitTotal]
	}
	return products, nil
}

func (c *lentaClient) GetItemBrand(ctx context.Context, sess *domain.Session, itemID string) (string, error) {
	url := c.config.CatalogAPIURL + "/catalog/items/" + itemID
	headers := c.signer.Headers(sess.DeviceID, sess.Token, url, nil)

	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}

	switch resp.StatusCode() {
	case 200:
		return gjson.Get(resp.String(), `attributes.#(name=="Бренд").value`).String(), nil
	case 429:
		log.Warnf("Rate limited on item %s, backing off %ds", itemID, c.config.RateLimitBackoff)
		time.Sleep(time.Duration(c.config.RateLimitBackoff) * time.Second)
		return "", nil
	default:
		return "", nil
	}
}
