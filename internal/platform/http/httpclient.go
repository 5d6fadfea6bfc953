// Package http holds HTTP plumbing shared across features: the outbound
// client, request middleware and platform handlers.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient はS3アバターストアが使うHTTPクライアントを返します。
//
// アップロード先は常に同じバケットのホストなので、ホストごとのアイドル接続数を
// デフォルトの2から100に増やしています。
// timeout はボディ送信を含むPutObject全体の上限です。
// ResponseHeaderTimeout はボディを受け取った後に応答しないストアを検出します。
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}
