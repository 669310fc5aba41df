package areas

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
	"heritage-quiz-service/internal/domain"
)

const (
	DefaultProvincesURL = "https://vn-admin-areas-xat-nhap.onrender.com/v2/provinces"
	DefaultWardsURL     = "https://vn-admin-areas-xat-nhap.onrender.com/v2/wards"
)

// Client fetches provinces and wards from the administrative area reference service.
type Client struct {
	provincesURL string
	wardsURL     string
	timeout      time.Duration
	client       *fasthttp.Client
}

func NewClient(provincesURL, wardsURL string, timeout time.Duration) *Client {
	if provincesURL == "" {
		provincesURL = DefaultProvincesURL
	}
	if wardsURL == "" {
		wardsURL = DefaultWardsURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		provincesURL: provincesURL,
		wardsURL:     wardsURL,
		timeout:      timeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
			// Ward lists are a few megabytes.
			MaxResponseBodySize: 64 << 20,
		},
	}
}

// Fetch loads both lists concurrently. Either failing fails the whole fetch.
func (c *Client) Fetch(ctx context.Context) ([]domain.Province, []domain.Ward, error) {
	var (
		provinces []domain.Province
		wards     []domain.Ward
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		provinces, err = getJSON[[]domain.Province](ctx, c, c.provincesURL)
		if err != nil {
			return fmt.Errorf("fetch provinces: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		wards, err = getJSON[[]domain.Ward](ctx, c, c.wardsURL)
		if err != nil {
			return fmt.Errorf("fetch wards: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return provinces, wards, nil
}

func getJSON[T any](ctx context.Context, c *Client, url string) (T, error) {
	var result T
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return result, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return result, fmt.Errorf("reference service returned status %d", resp.StatusCode())
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return result, fmt.Errorf("decode %s: %w", url, err)
	}
	return result, nil
}
