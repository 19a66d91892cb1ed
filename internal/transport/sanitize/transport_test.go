package sanitize

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDecodeEncode_KeepsOrderAndLiterals(t *testing.T) {
	body := `{"z":1,"a":[true,null,-2.5e3,"x"],"m":{"b":"c"}}`

	v, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	m := v.(Mapping)
	if m[0].Key != "z" || m[1].Key != "a" || m[2].Key != "m" {
		t.Errorf("member order lost: %v %v %v", m[0].Key, m[1].Key, m[2].Key)
	}

	out, err := Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != body {
		t.Errorf("expected %s, got %s", body, out)
	}
}

func TestDecode_LoneEscapeIsKept(t *testing.T) {
	v, err := Decode([]byte(`{"s":"a\ud800b","pair":"\ud83d\ude00"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if s, _ := v.(Mapping).Get("s"); s != String("a"+surrogate(0xD800)+"b") {
		t.Errorf("lone escape not kept: %q", s)
	}
	if pair, _ := v.(Mapping).Get("pair"); pair != String("😀") {
		t.Errorf("pair not combined: %q", pair)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, body := range []string{``, `{`, `{"a":}`, `[1,2`, `"\x"`, `{} {}`} {
		if _, err := Decode([]byte(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lone escape",
			in:   `{"input":["ok","bad\udc00"],"dimensions":1024}`,
			want: `{"input":["ok","bad�"],"dimensions":1024}`,
		},
		{
			name: "raw surrogate bytes",
			in:   `{"content":"x` + surrogate(0xDBFF) + `y"}`,
			want: `{"content":"x�y"}`,
		},
		{
			name: "paired escape untouched",
			in:   `{"content":"\ud83d\ude00"}`,
			want: `{"content":"\ud83d\ude00"}`,
		},
		{
			name: "clean body untouched",
			in:   `{"model":"m", "stream":false}`,
			want: `{"model":"m", "stream":false}`,
		},
		{
			name: "not json",
			in:   `bad\ud800 not json`,
			want: `bad\ufffd not json`,
		},
		{
			name: "lone escape in key",
			in:   `{"\ud800":"ok"}`,
			want: `{"\ufffd":"ok"}`,
		},
		{
			name: "raw surrogate in key",
			in:   `{"k` + surrogate(0xDC00) + `":1}`,
			want: `{"k�":1}`,
		},
		{
			name: "lone escapes in key and value",
			in:   `{"\udbff":"\udc00x"}`,
			want: `{"�":"�x"}`,
		},
		{
			name: "escaped backslash before u",
			in:   `{"a":"\\ud800","b":"\ud800"}`,
			want: `{"a":"\\ud800","b":"�"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeJSON([]byte(tc.in))
			if string(got) != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
			if again := SanitizeJSON(got); string(again) != string(got) {
				t.Errorf("not idempotent: %s then %s", got, again)
			}
		})
	}
}

func TestSanitizeJSON_DeepNesting(t *testing.T) {
	tests := []struct {
		depth int
		leaf  string
	}{
		{depth: 999, leaf: `"x�"`},
		{depth: 1001, leaf: `"x�"`},
		{depth: 10001, leaf: `"x\ufffd"`},
		{depth: 15000, leaf: `"x\ufffd"`},
	}
	for _, tc := range tests {
		body := strings.Repeat("[", tc.depth) + `"x\ud800"` + strings.Repeat("]", tc.depth)
		want := strings.Repeat("[", tc.depth) + tc.leaf + strings.Repeat("]", tc.depth)

		got := string(SanitizeJSON([]byte(body)))
		if got != want {
			t.Errorf("depth %d: leaf not rewritten as %s", tc.depth, tc.leaf)
		}
		if strings.Contains(got, `\ud800`) {
			t.Errorf("depth %d: lone escape survived", tc.depth)
		}
	}
}

func TestTransport_RewritesDeepBody(t *testing.T) {
	var body string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	deep := strings.Repeat(`{"a":`, 12000) + `"\udfff"` + strings.Repeat("}", 12000)
	req := httptest.NewRequest(http.MethodPost, "http://model.local/x", strings.NewReader(deep))
	req.Header.Set("Content-Type", "application/json")

	if _, err := NewTransport(base, nil).RoundTrip(req); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if strings.Contains(body, `\udfff`) {
		t.Error("lone escape reached the wire")
	}
	if len(body) != len(deep) {
		t.Errorf("expected %d bytes, got %d", len(deep), len(body))
	}
}

func TestTransport_RewritesJSONBody(t *testing.T) {
	var gotBody string
	var gotLen int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotLen = r.ContentLength
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(nil, nil)}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/embeddings",
		strings.NewReader(`{"input":"a\ud800"}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	_ = resp.Body.Close()

	if gotBody != `{"input":"a�"}` {
		t.Errorf("unexpected body %s", gotBody)
	}
	if gotLen != int64(len(gotBody)) {
		t.Errorf("content length %d does not match body length %d", gotLen, len(gotBody))
	}
}

func TestTransport_PassesThrough(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        io.Reader
	}{
		{"non json", "text/plain", strings.NewReader(`a\ud800`)},
		{"no content type", "", strings.NewReader(`{"a":"\ud800"}`)},
		{"no body", "application/json", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen *http.Request
			base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
				seen = r
				return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
			})
			req := httptest.NewRequest(http.MethodPost, "http://model.local/v1/chat/completions", tc.body)
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}

			if _, err := NewTransport(base, nil).RoundTrip(req); err != nil {
				t.Fatalf("round trip: %v", err)
			}
			if seen != req {
				t.Error("request should pass through untouched")
			}
		})
	}
}

func TestTransport_VendorJSONType(t *testing.T) {
	var body string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	req := httptest.NewRequest(http.MethodPost, "http://model.local/x", strings.NewReader(`["\udfff"]`))
	req.Header.Set("Content-Type", "application/vnd.api+json")

	if _, err := NewTransport(base, nil).RoundTrip(req); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if body != `["�"]` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestTransport_BaseErrorPropagates(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	base := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, boom })

	req := httptest.NewRequest(http.MethodPost, "http://model.local/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	if _, err := NewTransport(base, nil).RoundTrip(req); !errors.Is(err, boom) {
		t.Errorf("expected base error, got %v", err)
	}
}

func TestTransport_GetBodyReplays(t *testing.T) {
	var seen *http.Request
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	})
	req := httptest.NewRequest(http.MethodPost, "http://model.local/x", strings.NewReader(`{"a":"\ud800"}`))
	req.Header.Set("Content-Type", "application/json")

	if _, err := NewTransport(base, nil).RoundTrip(req); err != nil {
		t.Fatalf("round trip: %v", err)
	}

	if seen.GetBody == nil {
		t.Fatal("GetBody not set")
	}
	rc, err := seen.GetBody()
	if err != nil {
		t.Fatalf("GetBody: %v", err)
	}
	if b, _ := io.ReadAll(rc); string(b) != `{"a":"�"}` {
		t.Errorf("unexpected replay body %s", b)
	}
}

func TestTransport_ConcurrentUse(t *testing.T) {
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(r.Body)
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(string(b)))}, nil
	})
	tr := NewTransport(base, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "http://model.local/x", strings.NewReader(`{"a":"\udbff!"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := tr.RoundTrip(req)
			if err != nil {
				t.Errorf("round trip: %v", err)
				return
			}
			if b, _ := io.ReadAll(resp.Body); string(b) != `{"a":"�!"}` {
				t.Errorf("unexpected body %s", b)
			}
		}()
	}
	wg.Wait()
}
