// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Hyperion (https://hyperiontrace.example).

package tracer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hyperiontrace/tracer-go/internal/log"
)

// defaultCollectorCapacity is the bounded queue's drop-oldest capacity,
// per spec.md §4.6.
const defaultCollectorCapacity = 1000

const tracerVersion = "v1"

// httpDoer is the narrow HTTP collaborator the collector consumes. It
// never sees more of net/http than Do, grounded on
// ddtrace/tracer/exporter.go's *http.Client usage.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// newHTTPClient builds the collector's transport, grounded verbatim on
// exporter.go's copy of http.DefaultTransport with tightened timeouts.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: 10 * time.Second,
	}
}

// resolveCollectorTransport turns a resolveAgentURL-validated agent URL
// into the base URL the collector should build requests against plus the
// client that knows how to reach it. unix/http+unix/https+unix URLs are
// rewritten to a fixed "http://unix" (or "https://unix") placeholder host
// so http.NewRequest stays happy, with a DialContext that ignores the
// dialed address and always connects to the real socket path instead,
// grounded on exporter.go's unix-socket transport.
func resolveCollectorTransport(agentURL string) (string, *http.Client) {
	idx := strings.Index(agentURL, "://")
	scheme, socketPath := agentURL[:idx], agentURL[idx+3:]

	httpScheme := ""
	switch scheme {
	case "unix", "http+unix":
		httpScheme = "http"
	case "https+unix":
		httpScheme = "https"
	default:
		return agentURL, newHTTPClient()
	}

	client := newHTTPClient()
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	client.Transport.(*http.Transport).DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.DialContext(ctx, "unix", socketPath)
	}
	return httpScheme + "://unix", client
}

type traceBatch struct {
	priority int
	spans    []*spanData
}

// agentCollector is C9: a bounded, drop-oldest FIFO of (priority, spans)
// batches flushed on a ticker to the agent's /v0.4/traces endpoint (with
// a /v0.3 fallback), grounded on ddtrace/tracer/exporter.go's
// defaultExporter.
type agentCollector struct {
	url     string
	client  httpDoer
	sampler *traceSampler

	capacity int
	mu       sync.Mutex
	queue    []traceBatch
	endpoint string
	payload  *payload

	cancel func()
}

func newAgentCollector(c *config, sampler *traceSampler) *agentCollector {
	url, client := resolveCollectorTransport(c.agentURL)
	col := &agentCollector{
		url:      url,
		client:   client,
		sampler:  sampler,
		capacity: defaultCollectorCapacity,
		endpoint: "/v0.4/traces",
		payload:  newPayload(),
	}
	interval := c.flushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	col.cancel = tickerScheduler{}.Schedule(interval, col.flush)
	return col
}

// send enqueues a finalized trace's priority and (already span-sampled)
// spans. The queue never rejects a push; once it is at capacity the
// oldest batch is dropped, per spec.md §4.6.
func (c *agentCollector) send(priority int, spans []*spanData) error {
	if len(spans) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) >= c.capacity {
		c.queue = c.queue[1:]
	}
	c.queue = append(c.queue, traceBatch{priority: priority, spans: spans})
	return nil
}

// stop cancels the flush ticker and performs one final synchronous
// flush, the flush_and_stop of spec.md §5.
func (c *agentCollector) stop() {
	c.cancel()
	c.flush()
}

var collectorHeaders = map[string]string{
	"Datadog-Meta-Lang":           "go",
	"Datadog-Meta-Lang-Version":   strings.TrimPrefix(runtime.Version(), "go"),
	"Datadog-Meta-Tracer-Version": tracerVersion,
	"Content-Type":                "application/msgpack",
}

// flush snapshots and clears the queue, encodes it, and uploads it. Per
// spec.md §4.6 step 4, a failed upload is logged once (via the
// internal/log aggregator's dedup key) and the batch is not re-queued.
func (c *agentCollector) flush() {
	c.mu.Lock()
	batches := c.queue
	c.queue = nil
	c.mu.Unlock()
	if len(batches) == 0 {
		return
	}

	p := c.payload
	p.reset()
	for _, b := range batches {
		if err := p.push(b.spans); err != nil {
			log.Error("collector.encode", "failed to encode trace: %s", err)
			return
		}
	}

	if err := c.upload(p); err != nil {
		log.Error("collector.flush", "failed to send %d traces to %s: %s", p.itemCount(), c.url, err)
		return
	}
	log.Debug("collector.flush: uploaded %d traces (%d bytes) to %s", p.itemCount(), p.size(), c.url)
}

func (c *agentCollector) upload(p *payload) error {
	body := p.buffer().Bytes()

	c.mu.Lock()
	endpoints := []string{c.endpoint}
	c.mu.Unlock()
	if endpoints[0] == "/v0.4/traces" {
		endpoints = append(endpoints, "/v0.3/traces")
	}

	var lastErr error
	for i, ep := range endpoints {
		req, err := http.NewRequest(http.MethodPost, c.url+ep, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("cannot build request: %w", err)
		}
		for k, v := range collectorHeaders {
			req.Header.Set(k, v)
		}
		req.Header.Set("X-Datadog-Trace-Count", strconv.Itoa(p.itemCount()))

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusNotFound && i < len(endpoints)-1 {
			resp.Body.Close()
			lastErr = fmt.Errorf("agent responded 404 at %s", ep)
			continue
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("agent responded %s", resp.Status)
		}

		c.mu.Lock()
		c.endpoint = ep
		c.mu.Unlock()

		var parsed struct {
			RateByService map[string]float64 `json:"rate_by_service"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil && parsed.RateByService != nil {
			c.sampler.updateAgentRates(parsed.RateByService)
		}
		return nil
	}
	return lastErr
}
