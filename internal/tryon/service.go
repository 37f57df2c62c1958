// Package tryon renders virtual try-on images and stores the results.
package tryon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

const (
	// AttemptTimeout bounds a single model call.
	AttemptTimeout = 30 * time.Second
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries = 3
	// InitialBackoff doubles after every failed attempt.
	InitialBackoff = time.Second

	maxGarmentBytes = 10 << 20
	maxRedirects    = 3
)

// ErrHostNotAllowed is returned for garment image URLs outside the allow-list.
var ErrHostNotAllowed = errors.New("garment image host not allowed")

// Service produces try-on images for clothing items.
type Service struct {
	model   Model
	blobs   storage.BlobStore
	http    *http.Client
	hosts   map[string]struct{}
	logger  *zap.Logger
	backoff func() backoff.BackOff
}

// NewService wires a model and a blob store. Garment images are only
// downloaded from imageHosts, redirects included. httpClient fetches them;
// nil selects a client with a short timeout.
func NewService(model Model, blobs storage.BlobStore, httpClient *http.Client, imageHosts []string, logger *zap.Logger) *Service {
	s := &Service{
		model:   model,
		blobs:   blobs,
		hosts:   make(map[string]struct{}, len(imageHosts)),
		logger:  logger.Named("tryon"),
		backoff: defaultBackoff,
	}
	for _, h := range imageHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			s.hosts[h] = struct{}{}
		}
	}

	client := &http.Client{Timeout: 15 * time.Second}
	if httpClient != nil {
		c := *httpClient
		client = &c
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("too many redirects")
		}
		return s.checkURL(req.URL)
	}
	s.http = client
	return s
}

func (s *Service) checkURL(u *url.URL) error {
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%w: scheme %q", ErrHostNotAllowed, u.Scheme)
	}
	if _, ok := s.hosts[strings.ToLower(u.Hostname())]; !ok {
		return fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}
	return nil
}

func defaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, MaxRetries)
}

// Render dresses the person photo in item, uploads the result and returns a
// presigned URL for it.
func (s *Service) Render(ctx context.Context, userID int64, item models.ClothingItem, person Image) (string, error) {
	garment, err := s.fetch(ctx, item.ImageURL)
	if err != nil {
		return "", fmt.Errorf("fetch garment image: %w", err)
	}

	var out Image
	attempt := 0
	op := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, AttemptTimeout)
		defer cancel()
		img, err := s.model.Render(callCtx, person, garment)
		if err != nil {
			return err
		}
		out = img
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("try-on attempt failed",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(s.backoff(), ctx), notify); err != nil {
		return "", fmt.Errorf("render try-on: %w", err)
	}

	if out.MIMEType == "" {
		out.MIMEType = http.DetectContentType(out.Data)
	}
	key := "tryon/" + strconv.FormatInt(userID, 10) + "/" + uuid.NewString()
	if err := s.blobs.Put(ctx, key, out.Data, out.MIMEType); err != nil {
		return "", err
	}
	return s.blobs.PresignedURL(ctx, key)
}

func (s *Service) fetch(ctx context.Context, rawURL string) (Image, error) {
	if rawURL == "" {
		return Image{}, errors.New("item has no image")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Image{}, err
	}
	if err := s.checkURL(u); err != nil {
		return Image{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Image{}, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGarmentBytes))
	if err != nil {
		return Image{}, err
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return Image{Data: data, MIMEType: mimeType}, nil
}
