package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const ImageCheckTimeout = 5 * time.Second

var (
	ErrInvalidURL = errors.New("storage: URL is not valid")
	ErrNotImage   = errors.New("storage: URL does not point to an image")
)

type ImageValidator struct {
	client *resty.Client
}

func NewImageValidator() *ImageValidator {
	return &ImageValidator{
		client: resty.New().SetTimeout(ImageCheckTimeout).SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
	}
}

// Validate fetches rawURL and accepts it iff the response is 2xx with an
// image/* content type.
func (v *ImageValidator) Validate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	resp, err := v.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if body := resp.RawBody(); body != nil {
		defer body.Close()
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return fmt.Errorf("%w: status %d", ErrNotImage, resp.StatusCode())
	}
	if !strings.HasPrefix(strings.ToLower(resp.Header().Get("Content-Type")), "image/") {
		return ErrNotImage
	}
	return nil
}
