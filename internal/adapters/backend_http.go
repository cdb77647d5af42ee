package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"toolpin/internal/ports"
	"toolpin/internal/shared"
	"toolpin/internal/types"
)

// HTTPBackendAdapter talks to a package backend over HTTP:
//
//	GET {endpoint}/instances/{package}?version={pin} -> {"instance_id", "digest"}
//	GET {endpoint}/blobs/{instance_id}               -> package bytes
//
// Resolve calls retry transient failures with a capped exponential delay;
// fetch hands the response body back as a stream.
type HTTPBackendAdapter struct {
	Endpoint   string
	Username   string
	APIKey     string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration

	client *http.Client
}

const defaultBackendTimeout = 60 * time.Second
const defaultBackendRetries = 3
const defaultBackendRetryDelay = 200 * time.Millisecond
const maxBackendRetryDelay = 2 * time.Second

func NewHTTPBackendAdapter(endpoint string, username string, apiKey string, timeoutSec int, retries int, retryDelayMs int) HTTPBackendAdapter {
	timeout := defaultBackendTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	retryCount := defaultBackendRetries
	if retries > 0 {
		retryCount = retries
	}
	retryDelay := defaultBackendRetryDelay
	if retryDelayMs > 0 {
		retryDelay = time.Duration(retryDelayMs) * time.Millisecond
	}
	return HTTPBackendAdapter{
		Endpoint:   endpoint,
		Username:   username,
		APIKey:     apiKey,
		Timeout:    timeout,
		Retries:    retryCount,
		RetryDelay: retryDelay,
		client:     &http.Client{Timeout: timeout},
	}
}

type instanceResponse struct {
	InstanceID string `json:"instance_id"`
	Digest     string `json:"digest"`
}

func (a HTTPBackendAdapter) ResolveInstance(ctx context.Context, packagePath string, versionPin string) (types.InstanceInfo, error) {
	if strings.TrimSpace(a.Endpoint) == "" {
		return types.InstanceInfo{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("backend endpoint is empty")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(a.Endpoint), "/")
	resolveURL := fmt.Sprintf("%s/instances/%s?version=%s", endpoint, packagePath, url.QueryEscape(versionPin))

	var lastErr error
	for attempt := 0; attempt < a.Retries; attempt++ {
		if ctx.Err() != nil {
			return types.InstanceInfo{}, ctx.Err()
		}
		instance, retry, err := a.resolveOnce(ctx, resolveURL, packagePath)
		if err == nil {
			return instance, nil
		}
		lastErr = err
		if !retry || attempt == a.Retries-1 {
			return types.InstanceInfo{}, err
		}
		time.Sleep(a.retryDelay(attempt))
	}
	return types.InstanceInfo{}, lastErr
}

func (a HTTPBackendAdapter) resolveOnce(ctx context.Context, resolveURL string, packagePath string) (types.InstanceInfo, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolveURL, nil)
	if err != nil {
		return types.InstanceInfo{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create resolve request").
			WithCause(err)
	}
	a.authorize(req)
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return types.InstanceInfo{}, true, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("backend unreachable").
			WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return types.InstanceInfo{}, false, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("package not found in backend: %s", packagePath))
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return types.InstanceInfo{}, true, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("backend resolve failed").
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, resolveURL, string(body)))
	case resp.StatusCode != http.StatusOK:
		return types.InstanceInfo{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("unexpected backend response").
			WithCause(shared.HTTPStatusError(resp.StatusCode, resolveURL))
	}

	var decoded instanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return types.InstanceInfo{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode resolve response").
			WithCause(err)
	}
	if decoded.InstanceID == "" || decoded.Digest == "" {
		return types.InstanceInfo{}, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("resolve response missing instance_id or digest")
	}
	return types.InstanceInfo{InstanceID: decoded.InstanceID, Digest: decoded.Digest}, false, nil
}

func (a HTTPBackendAdapter) Fetch(ctx context.Context, instanceID string) (io.ReadCloser, error) {
	if strings.TrimSpace(a.Endpoint) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("backend endpoint is empty")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(a.Endpoint), "/")
	fetchURL := fmt.Sprintf("%s/blobs/%s", endpoint, url.PathEscape(instanceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create fetch request").
			WithCause(err)
	}
	a.authorize(req)
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("backend unreachable").
			WithCause(err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("instance not found in backend: %s", instanceID))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeUnavailable).
			WithMsg("backend fetch failed").
			WithCause(shared.HTTPStatusErrorWithBody(resp.StatusCode, fetchURL, string(body)))
	}
	return resp.Body, nil
}

func (a HTTPBackendAdapter) authorize(req *http.Request) {
	if strings.TrimSpace(a.APIKey) == "" {
		return
	}
	user := strings.TrimSpace(a.Username)
	if user == "" {
		user = "api"
	}
	req.SetBasicAuth(user, a.APIKey)
}

func (a HTTPBackendAdapter) httpClient() *http.Client {
	if a.client != nil {
		return a.client
	}
	return &http.Client{Timeout: a.Timeout}
}

func (a HTTPBackendAdapter) retryDelay(attempt int) time.Duration {
	delay := a.RetryDelay
	if delay <= 0 {
		delay = defaultBackendRetryDelay
	}
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackendRetryDelay {
			return maxBackendRetryDelay
		}
	}
	return delay
}

var _ ports.BackendPort = HTTPBackendAdapter{}
