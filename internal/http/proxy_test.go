package http

import (
	"net/http"
	"net/url"
	"os"
	"testing"

	ntlmssp "github.com/Azure/go-ntlmssp"

	"github.com/resumeranker/resume-uploader/internal/config"
)

// TestProxyFuncWithBypass_EmptyNoProxy verifies that an empty noProxy always routes through proxy.
func TestProxyFuncWithBypass_EmptyNoProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "", nil)

	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_WildcardDomain verifies *.example.com bypasses api.example.com.
func TestProxyFuncWithBypass_WildcardDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com", nil)

	// Subdomain should bypass proxy
	req, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result)
	}
}

// TestProxyFuncWithBypass_ExactDomain verifies example.com bypasses root and subdomains.
func TestProxyFuncWithBypass_ExactDomain(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "example.com", nil)

	// Root domain should bypass
	req, _ := http.NewRequest("GET", "https://example.com/data", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for example.com, got %v", result)
	}

	// Subdomain should also bypass (httpproxy matches subdomains of a bare domain entry)
	req2, _ := http.NewRequest("GET", "https://api.example.com/data", nil)
	result2, err := proxyFunc(req2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result2 != nil {
		t.Errorf("expected nil (bypass) for api.example.com, got %v", result2)
	}
}

// TestProxyFuncWithBypass_CIDR verifies IP/CIDR range matching.
func TestProxyFuncWithBypass_CIDR(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "10.0.0.0/8", nil)

	// IP in range should bypass
	req, _ := http.NewRequest("GET", "http://10.1.2.3:8080/api", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil (bypass) for 10.1.2.3, got %v", result)
	}
}

// TestProxyFuncWithBypass_NonMatchingHost verifies non-matching hosts route through proxy.
func TestProxyFuncWithBypass_NonMatchingHost(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.internal.corp,10.0.0.0/8", nil)

	// External host should use proxy
	req, _ := http.NewRequest("GET", "https://ranker.example.net/upload_resume", nil)
	result, err := proxyFunc(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected proxy URL for ranker.example.net, got nil (direct)")
	}
	if result.Host != "proxy.corp:8080" {
		t.Errorf("expected proxy host proxy.corp:8080, got %s", result.Host)
	}
}

// TestProxyFuncWithBypass_MultiplePatterns verifies comma-separated patterns work.
func TestProxyFuncWithBypass_MultiplePatterns(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.corp:8080")
	proxyFunc := proxyFuncWithBypass(proxyURL, "*.example.com, 192.168.0.0/16, internal.corp", nil)

	tests := []struct {
		name       string
		url        string
		wantBypass bool
	}{
		{"wildcard match", "https://api.example.com/data", true},
		{"cidr match", "http://192.168.1.100/api", true},
		{"exact domain match", "https://internal.corp/status", true},
		{"non-match", "https://ranker.example.net/upload_resume", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", tt.url, nil)
			result, err := proxyFunc(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantBypass && result != nil {
				t.Errorf("expected bypass (nil) for %s, got %v", tt.url, result)
			}
			if !tt.wantBypass && result == nil {
				t.Errorf("expected proxy for %s, got nil (bypass)", tt.url)
			}
		})
	}
}

func TestBuildProxyURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyHost = "proxy.corp"

	if got := buildProxyURL(cfg).String(); got != "http://proxy.corp:8080" {
		t.Errorf("default port: got %s", got)
	}

	cfg.ProxyPort = 3128
	cfg.ProxyUser = "svc"
	if got := buildProxyURL(cfg); got.User != nil {
		t.Errorf("user without password must not be embedded, got %s", got)
	}

	cfg.ProxyPassword = "s3cret"
	got := buildProxyURL(cfg)
	if got.Host != "proxy.corp:3128" || got.User.Username() != "svc" {
		t.Errorf("unexpected proxy URL %s", got)
	}
}

func TestConfigureHTTPClient_Modes(t *testing.T) {
	tests := []struct {
		mode      string
		host      string
		wantNTLM  bool
		wantProxy bool
		wantErr   bool
	}{
		{mode: config.ProxyModeNone},
		{mode: config.ProxyModeSystem, wantProxy: true},
		{mode: config.ProxyModeBasic, host: "proxy.corp", wantProxy: true},
		{mode: config.ProxyModeBasic},
		{mode: config.ProxyModeNTLM, host: "proxy.corp", wantNTLM: true},
		{mode: "socks", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode+"/"+tt.host, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.ProxyMode = tt.mode
			cfg.ProxyHost = tt.host

			client, err := ConfigureHTTPClient(cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.Timeout != 0 {
				t.Errorf("client timeout = %v, want none", client.Timeout)
			}
			if tt.wantNTLM {
				if _, ok := client.Transport.(ntlmssp.Negotiator); !ok {
					t.Errorf("expected NTLM negotiator, got %T", client.Transport)
				}
				return
			}
			tr, ok := client.Transport.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport, got %T", client.Transport)
			}
			if (tr.Proxy != nil) != tt.wantProxy {
				t.Errorf("proxy set = %v, want %v", tr.Proxy != nil, tt.wantProxy)
			}
		})
	}
}

func TestNewUploadClient_DisablesHTTP2BehindProxy(t *testing.T) {
	cfg := config.NewConfig()
	cfg.ProxyMode = config.ProxyModeBasic
	cfg.ProxyHost = "proxy.corp"

	client, err := NewUploadClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewUploadClient: %v", err)
	}
	tr := client.Transport.(*http.Transport)
	if tr.ForceAttemptHTTP2 {
		t.Error("HTTP/2 should be disabled when a proxy is active")
	}
	if !tr.DisableCompression {
		t.Error("compression should be disabled for uploads")
	}

	direct, err := NewUploadClient(config.NewConfig(), nil)
	if err != nil {
		t.Fatalf("NewUploadClient: %v", err)
	}
	if os.Getenv("DISABLE_HTTP2") != "true" && !direct.Transport.(*http.Transport).ForceAttemptHTTP2 {
		t.Error("HTTP/2 should be attempted on direct connections")
	}
}

func TestNeedsProxyPassword(t *testing.T) {
	cfg := config.NewConfig()
	if NeedsProxyPassword(cfg) {
		t.Error("no-proxy never needs a password")
	}
	cfg.ProxyMode = config.ProxyModeNTLM
	cfg.ProxyUser = "svc"
	if !NeedsProxyPassword(cfg) {
		t.Error("ntlm with user and no password needs a password")
	}
	cfg.ProxyPassword = "x"
	if NeedsProxyPassword(cfg) {
		t.Error("password already provided")
	}
}
