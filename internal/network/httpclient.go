// File: internal/network/httpclient.go
package network

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/xkilldash9x/craftcheck/internal/config"
)

// Defaults for the transport when the configuration leaves a value at zero.
const (
	DefaultDialTimeout           = 5 * time.Second
	DefaultKeepAliveInterval     = 15 * time.Second
	DefaultTLSHandshakeTimeout   = 5 * time.Second
	DefaultResponseHeaderTimeout = 10 * time.Second
	DefaultRequestTimeout        = 60 * time.Second

	// The checks talk to one host with little concurrency.
	DefaultMaxIdleConnsPerHost = 4
	DefaultIdleConnTimeout     = 30 * time.Second
)

var defaultSecureCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// ClientConfig holds the transport and client settings of the API checks.
type ClientConfig struct {
	IgnoreTLSErrors bool
	// TLSConfig is cloned when set. MinVersion is raised to TLS 1.2.
	TLSConfig *tls.Config

	RequestTimeout        time.Duration
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	ForceHTTP2      bool
	FollowRedirects bool
	ProxyURL        *url.URL

	Logger *zap.Logger
}

// NewClientConfig maps the http section of the configuration onto a
// ClientConfig, filling zero durations with the package defaults.
func NewClientConfig(cfg config.HTTPConfig, logger *zap.Logger) (*ClientConfig, error) {
	cc := &ClientConfig{
		IgnoreTLSErrors:       cfg.IgnoreTLSErrors,
		RequestTimeout:        orDefault(cfg.RequestTimeout, DefaultRequestTimeout),
		DialTimeout:           orDefault(cfg.DialTimeout, DefaultDialTimeout),
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: orDefault(cfg.ResponseHeaderTimeout, DefaultResponseHeaderTimeout),
		ForceHTTP2:            cfg.ForceHTTP2,
		FollowRedirects:       cfg.FollowRedirects,
		Logger:                logger.Named("httpclient"),
	}
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, err
		}
		cc.ProxyURL = u
	}
	return cc, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// NewHTTPTransport builds an http.Transport from cfg.
func NewHTTPTransport(cfg *ClientConfig) *http.Transport {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	dialer := &net.Dialer{
		Timeout:   orDefault(cfg.DialTimeout, DefaultDialTimeout),
		KeepAlive: DefaultKeepAliveInterval,
	}

	tlsConfig := configureTLS(cfg)
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
		TLSClientConfig:       tlsConfig,
		TLSHandshakeTimeout:   orDefault(cfg.TLSHandshakeTimeout, DefaultTLSHandshakeTimeout),
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ResponseHeaderTimeout: orDefault(cfg.ResponseHeaderTimeout, DefaultResponseHeaderTimeout),
		ForceAttemptHTTP2:     cfg.ForceHTTP2,
	}
	if cfg.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(cfg.ProxyURL)
	}

	if cfg.ForceHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			cfg.Logger.Warn("Failed to configure HTTP/2 transport, falling back to HTTP/1.1", zap.Error(err))
		}
	} else if len(tlsConfig.NextProtos) == 0 {
		tlsConfig.NextProtos = []string{"http/1.1"}
	}
	return transport
}

// NewClient returns an http.Client over NewHTTPTransport. Unless
// FollowRedirects is set, redirects are returned to the caller as is.
func NewClient(cfg *ClientConfig) *http.Client {
	client := &http.Client{
		Transport: NewHTTPTransport(cfg),
		Timeout:   orDefault(cfg.RequestTimeout, DefaultRequestTimeout),
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

func configureTLS(cfg *ClientConfig) *tls.Config {
	var tlsConfig *tls.Config
	if cfg.TLSConfig != nil {
		tlsConfig = cfg.TLSConfig.Clone()
		if tlsConfig.MinVersion < tls.VersionTLS12 {
			tlsConfig.MinVersion = tls.VersionTLS12
		}
	} else {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			CipherSuites:       defaultSecureCipherSuites,
			ClientSessionCache: tls.NewLRUClientSessionCache(64),
		}
	}
	tlsConfig.InsecureSkipVerify = cfg.IgnoreTLSErrors
	return tlsConfig
}
