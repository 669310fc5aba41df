package areas

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/provinces":
			_, _ = w.Write([]byte(`[{"code":1,"name":"Thành phố Hà Nội","codename":"thanh_pho_ha_noi","extra":true}]`))
		case "/v2/wards":
			_, _ = w.Write([]byte(`[{"codename":"phuong_ba_dinh","province_code":1},{"codename":"xa_x","province_code":2}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v2/provinces", srv.URL+"/v2/wards", time.Second)
	provinces, wards, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(provinces) != 1 || provinces[0].Codename != "thanh_pho_ha_noi" || provinces[0].Code != 1 {
		t.Fatalf("unexpected provinces %+v", provinces)
	}
	if len(wards) != 2 || wards[0].ProvinceCode != 1 {
		t.Fatalf("unexpected wards %+v", wards)
	}
}

func TestClientFetchFailsOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "wards") {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/provinces", srv.URL+"/wards", time.Second)
	if _, _, err := c.Fetch(context.Background()); err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClientFetchFailsOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/provinces", srv.URL+"/wards", time.Second)
	if _, _, err := c.Fetch(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestClientFetchHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	c := NewClient(srv.URL+"/provinces", srv.URL+"/wards", 10*time.Second)

	start := time.Now()
	if _, _, err := c.Fetch(ctx); err == nil {
		t.Fatalf("expected timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("fetch ignored the context deadline: %v", elapsed)
	}
}
