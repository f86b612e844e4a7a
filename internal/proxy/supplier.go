package proxy

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// ProxySupplier hands out proxy URLs round-robin. An empty pool means direct
// connections.
type ProxySupplier interface {
	Get() string
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewProxySupplier validates the configured proxies against testURL and keeps
// the working ones.
func NewProxySupplier(ctx context.Context, proxies []string, testURL string) (ProxySupplier, error) {
	valid := make([]string, 0, len(proxies))
	for _, proxyURL := range proxies {
		if isProxyValid(ctx, proxyURL, testURL) {
			log.Infof("✅ Proxy %s is working", proxyURL)
			valid = append(valid, proxyURL)
		} else {
			log.Infof("❌ Proxy %s is not working, skipping", proxyURL)
		}
	}

	if len(proxies) > 0 {
		log.Infof("Proxy supplier: %d of %d proxies usable", len(valid), len(proxies))
	}

	return &proxySupplier{proxies: valid}, nil
}

func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxy
}

func isProxyValid(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetProxy(proxyURL).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)
	if err != nil {
		log.Debugf("Proxy test failed for %s: %v", proxyURL, err)
		return false
	}

	return !resp.IsError()
}
