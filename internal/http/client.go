package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/resumeranker/resume-uploader/internal/config"
	"github.com/resumeranker/resume-uploader/internal/logging"
)

// NewUploadClient creates the HTTP client used for multipart uploads.
//
// It starts from ConfigureHTTPClient (proxy settings) and then:
//   - enables HTTP/2 for direct connections (DISABLE_HTTP2=true forces HTTP/1.1)
//   - disables HTTP/2 when a proxy is active unless FORCE_HTTP2=true
//   - disables compression, since resume documents are sent as-is
//
// Timeout stays 0: a batched request can legitimately run for minutes.
func NewUploadClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	baseClient, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	tr, ok := baseClient.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM mode wraps the transport in ntlmssp.Negotiator; keep it as-is.
		baseClient.Timeout = 0
		return baseClient, nil
	}

	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || (proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true") {
		disableHTTP2(tr)
	}

	baseClient.Transport = tr
	baseClient.Timeout = 0
	return baseClient, nil
}

func disableHTTP2(tr *nethttp.Transport) {
	tr.ForceAttemptHTTP2 = false
	tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
}

// proxyActive reports whether requests will go through a proxy.
// Trusts the configured mode first; only "system" consults the environment.
func proxyActive(cfg *config.Config) bool {
	switch cfg.ProxyMode {
	case config.ProxyModeNone, "":
		return false
	case config.ProxyModeSystem:
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
