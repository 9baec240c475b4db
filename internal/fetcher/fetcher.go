// Package fetcher downloads images agents reference by URL.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"workdiary/internal/models"
	"workdiary/internal/providers"
	"workdiary/internal/structures"
)

const driveDownloadURL = "https://drive.google.com/uc?export=download&id="

// shareLinkHosts serve "view" pages that must be rewritten into direct downloads.
var shareLinkHosts = map[string]struct{}{
	"drive.google.com": {},
	"docs.google.com":  {},
}

var shareLinkID = regexp.MustCompile(`(?:id=|/d/)([a-zA-Z0-9_-]+)`)

type FetcherInterface interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

type RemoteFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewRemoteFetcher(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *RemoteFetcher {
	timeout := conf.Fetcher.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: int64(conf.Storage.MaxImageBytes),
		logger:   logger,
		metrics:  metrics,
	}
}

// ResolveURL returns the URL that is actually downloaded for rawURL.
// Share links are rewritten; every other URL is returned verbatim.
func ResolveURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", &models.FetchError{URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &models.FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if _, ok := shareLinkHosts[strings.ToLower(u.Hostname())]; !ok {
		return rawURL, nil
	}

	m := shareLinkID.FindStringSubmatch(rawURL)
	if m == nil {
		return "", &models.InvalidShareLinkError{URL: rawURL}
	}
	return driveDownloadURL + m[1], nil
}

// Fetch downloads the image behind rawURL. At most maxBytes+1 bytes are
// read so an oversized body is still reported as too large downstream.
func (f *RemoteFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := ResolveURL(rawURL)
	if err != nil {
		return nil, err
	}
	if target != rawURL {
		f.logger.Debugf(providers.TypePost, "Rewrote share link %s to %s", rawURL, target)
	}

	start := time.Now()
	defer func() {
		f.metrics.ObserveFetchDuration(time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &models.FetchError{URL: target, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &models.FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &models.FetchError{URL: target, Err: err}
	}
	return data, nil
}
