package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"gocloud.dev/blob/memblob"

	zerrors "github.com/zarrlens/zarrlens/pkg/errors"
	"github.com/zarrlens/zarrlens/pkg/neuroglancer"
	"github.com/zarrlens/zarrlens/pkg/resolver"
	"github.com/zarrlens/zarrlens/pkg/store"
)

const omeAttrs = `{
  "multiscales": [{
    "version": "0.4",
    "axes": [
      {"name": "y", "type": "space", "unit": "micrometer"},
      {"name": "x", "type": "space", "unit": "micrometer"}
    ],
    "datasets": [
      {"path": "0", "coordinateTransformations": [{"type": "scale", "scale": [0.5, 0.5]}]}
    ]
  }]
}`

const array2D = `{"zarr_format": 2, "shape": [8, 8], "chunks": [4, 4], "dtype": "|u1",
  "compressor": null, "fill_value": 0, "order": "C", "filters": null}`

var datasets = map[string]map[string]string{
	"mem://ome":   {".zattrs": omeAttrs, ".zgroup": `{"zarr_format": 2}`, "0/.zarray": array2D},
	"mem://raw":   {".zarray": array2D},
	"mem://empty": {"readme.txt": "no zarr here"},
}

// keepOpen hides Close so the resolver leaves test buckets alone.
type keepOpen struct{ store.Store }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	stores := map[string]store.Store{}
	for u, files := range datasets {
		b := memblob.OpenBucket(nil)
		for key, body := range files {
			if err := b.WriteAll(context.Background(), key, []byte(body), nil); err != nil {
				t.Fatal(err)
			}
		}
		t.Cleanup(func() { b.Close() })
		stores[u] = keepOpen{store.NewBlobStore(b, u, nil)}
	}

	r, err := resolver.New(resolver.Options{
		Open: func(ctx context.Context, u string) (store.Store, error) {
			st, ok := stores[u]
			if !ok {
				return nil, zerrors.New(zerrors.ErrCodeNotFound, "no dataset at %s", u)
			}
			return st, nil
		},
		SkipThumbnail: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(Options{
		Resolver:       r,
		Tools:          resolver.DefaultToolOptions(),
		AllowedSchemes: []string{"mem"},
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func noRedirect(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

func get(t *testing.T, ts *httptest.Server, path string, params url.Values) *http.Response {
	t.Helper()
	client := &http.Client{CheckRedirect: noRedirect}
	u := ts.URL + path
	if params != nil {
		u += "?" + params.Encode()
	}
	resp, err := client.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}

func TestMetadata(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name      string
		url       string
		wantState string
		wantNG    bool
		wantVole  bool
	}{
		{"ome", "mem://ome", "ome_zarr", true, true},
		{"raw", "mem://raw", "raw_array", true, false},
		{"absent", "mem://empty", "no_metadata", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, "/api/metadata", url.Values{"url": {tt.url}})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body struct {
				URL       string                `json:"url"`
				State     string                `json:"state"`
				LayerType string                `json:"layer_type"`
				Tools     neuroglancer.ToolURLs `json:"tools"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.State != tt.wantState {
				t.Errorf("state = %q, want %q", body.State, tt.wantState)
			}
			if body.URL != tt.url || body.Tools.Copy != tt.url {
				t.Errorf("url = %q, copy = %q", body.URL, body.Tools.Copy)
			}
			if got := body.Tools.Neuroglancer != nil; got != tt.wantNG {
				t.Errorf("neuroglancer link present = %v, want %v", got, tt.wantNG)
			}
			if got := body.Tools.Vole != nil; got != tt.wantVole {
				t.Errorf("vole link present = %v, want %v", got, tt.wantVole)
			}
			if body.LayerType == "" {
				t.Error("layer_type missing")
			}
		})
	}
}

func TestMetadataDataURL(t *testing.T) {
	ts := newTestServer(t)
	resp := get(t, ts, "/api/metadata", url.Values{
		"url":      {"mem://ome"},
		"data_url": {"https://example.org/data/ome.zarr"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Tools neuroglancer.ToolURLs `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Tools.Copy != "https://example.org/data/ome.zarr" {
		t.Errorf("copy = %q", body.Tools.Copy)
	}
	if body.Tools.Neuroglancer == nil || !strings.Contains(*body.Tools.Neuroglancer, "example.org") {
		t.Errorf("neuroglancer link does not use data_url: %v", body.Tools.Neuroglancer)
	}
}

func TestMetadataErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		params url.Values
		status int
		code   zerrors.Code
	}{
		{"missing url", url.Values{}, http.StatusBadRequest, zerrors.ErrCodeInvalidInput},
		{"bad scheme", url.Values{"url": {"ftp://host/x"}}, http.StatusBadRequest, zerrors.ErrCodeUnsupported},
		{"bad data url", url.Values{"url": {"mem://ome"}, "data_url": {"ftp://x/y"}}, http.StatusBadRequest, zerrors.ErrCodeUnsupported},
		{"scheme not served", url.Values{"url": {"file:///etc"}}, http.StatusBadRequest, zerrors.ErrCodeUnsupported},
		{"bare path not served", url.Values{"url": {"/data/image.zarr"}}, http.StatusBadRequest, zerrors.ErrCodeUnsupported},
		{"unknown dataset", url.Values{"url": {"mem://nope"}}, http.StatusNotFound, zerrors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, "/api/metadata", tt.params)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code || body.Error == "" {
				t.Errorf("body = %+v, want code %s", body, tt.code)
			}
		})
	}
}

func TestNeuroglancerRedirect(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts, "/api/neuroglancer", url.Values{"url": {"mem://ome"}})
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, neuroglancer.DefaultNeuroglancerBase) {
		t.Errorf("Location = %q", loc)
	}

	resp = get(t, ts, "/api/neuroglancer", url.Values{"url": {"mem://empty"}})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("absent metadata: status = %d, want 404", resp.StatusCode)
	}
}

func TestNewRequiresResolver(t *testing.T) {
	if _, err := New(Options{}); !zerrors.Is(err, zerrors.ErrCodeInvalidConfig) {
		t.Errorf("New() error = %v, want INVALID_CONFIG", err)
	}
}

func TestDefaultSchemesRejectLocalData(t *testing.T) {
	var opened atomic.Bool
	r, err := resolver.New(resolver.Options{
		Open: func(ctx context.Context, u string) (store.Store, error) {
			opened.Store(true)
			return nil, zerrors.New(zerrors.ErrCodeNotFound, "no dataset at %s", u)
		},
		SkipThumbnail: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(Options{Resolver: r})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	for _, u := range []string{"file:///etc", "/var/data", "gs://bucket/img.zarr", "s3://bucket/img.zarr", "mem://ome"} {
		resp := get(t, ts, "/api/metadata", url.Values{"url": {u}})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", u, resp.StatusCode)
		}
	}
	if opened.Load() {
		t.Error("a store was opened for a scheme that is not served")
	}

	resp := get(t, ts, "/api/metadata", url.Values{"url": {"https://example.org/img.zarr"}})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("https: status = %d, want 404 from the resolver", resp.StatusCode)
	}
	if !opened.Load() {
		t.Error("https dataset was not opened")
	}
}

func TestSchemeOf(t *testing.T) {
	for in, want := range map[string]string{
		"https://host/x":  "https",
		"HTTP://host/x":   "http",
		"s3://bucket/x":   "s3",
		"/abs/path":       "file",
		"relative/path":   "file",
		"file:///abs/dir": "file",
	} {
		if got := schemeOf(in); got != want {
			t.Errorf("schemeOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{zerrors.New(zerrors.ErrCodeInvalidPath, "x"), http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrNetwork, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{zerrors.New(zerrors.ErrCodeInternal, "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
