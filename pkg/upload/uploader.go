// Package upload republishes fetched value sets to a downstream FHIR
// server, either one resource at a time or inside a single transaction
// bundle.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vsacfetch/pkg/fhir"
)

const fhirContentType = "application/fhir+json"

// Config holds uploader configuration.
type Config struct {
	// BaseURL of the downstream FHIR server (REQUIRED).
	BaseURL string

	// Bundled submits all resources as one transaction bundle instead of
	// independent per-resource calls.
	Bundled bool

	// DryRun logs the intended submissions without performing them.
	DryRun bool

	// Timeout per HTTP request.
	Timeout time.Duration
}

// Resource pairs a fetched ValueSet with its canonical identifier, which
// doubles as the server-side resource id.
type Resource struct {
	OID      string
	ValueSet *fhir.ValueSet
}

// Uploader publishes resources to a downstream store.
type Uploader struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates an uploader.
func New(cfg Config) (*Uploader, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("upload base URL is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Uploader{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     log.With().Str("component", "uploader").Logger(),
	}, nil
}

// Upload publishes the resources per the configured mode. In bundled mode
// a single failed submission fails the whole batch; in per-resource mode
// individual failures are logged and the remaining uploads continue.
func (u *Uploader) Upload(ctx context.Context, resources []Resource) error {
	if len(resources) == 0 {
		return nil
	}
	if u.config.Bundled {
		return u.uploadBundle(ctx, resources)
	}
	u.uploadEach(ctx, resources)
	return nil
}

// uploadBundle submits one transaction bundle with one entry per
// resource.
func (u *Uploader) uploadBundle(ctx context.Context, resources []Resource) error {
	bundle := fhir.Bundle{
		ResourceType: "Bundle",
		Type:         "transaction",
	}

	for _, r := range resources {
		raw, err := json.Marshal(withID(r))
		if err != nil {
			return fmt.Errorf("marshal %s: %w", r.OID, err)
		}
		bundle.Entry = append(bundle.Entry, fhir.BundleEntry{
			FullURL:  "urn:uuid:" + uuid.NewString(),
			Resource: raw,
			Request: &fhir.BundleRequest{
				Method: http.MethodPut,
				URL:    "ValueSet/" + r.OID,
			},
		})
	}

	if u.config.DryRun {
		u.logger.Info().
			Int("resources", len(resources)).
			Str("target", u.config.BaseURL).
			Msg("Dry run: would submit transaction bundle")
		return nil
	}

	body, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	if err := u.send(ctx, http.MethodPost, u.config.BaseURL, body); err != nil {
		return fmt.Errorf("bundle upload: %w", err)
	}

	u.logger.Info().
		Int("resources", len(resources)).
		Str("target", u.config.BaseURL).
		Msg("Transaction bundle submitted")
	return nil
}

// uploadEach PUTs every resource independently, continuing past
// individual failures.
func (u *Uploader) uploadEach(ctx context.Context, resources []Resource) {
	failed := 0
	for _, r := range resources {
		target := u.config.BaseURL + "/ValueSet/" + r.OID

		if u.config.DryRun {
			u.logger.Info().
				Str("oid", r.OID).
				Str("target", target).
				Msg("Dry run: would upload resource")
			continue
		}

		body, err := json.Marshal(withID(r))
		if err != nil {
			failed++
			u.logger.Error().Err(err).Str("oid", r.OID).Msg("Resource upload failed")
			continue
		}
		if err := u.send(ctx, http.MethodPut, target, body); err != nil {
			failed++
			u.logger.Error().Err(err).Str("oid", r.OID).Msg("Resource upload failed")
			continue
		}

		u.logger.Info().Str("oid", r.OID).Msg("Resource uploaded")
	}

	if failed > 0 {
		u.logger.Warn().
			Int("failed", failed).
			Int("total", len(resources)).
			Msg("Some resource uploads failed")
	}
}

func (u *Uploader) send(ctx context.Context, method, target string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", fhirContentType)
	req.Header.Set("Accept", fhirContentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

// withID ensures the uploaded resource carries its OID as the resource
// id, as PUT semantics require.
func withID(r Resource) *fhir.ValueSet {
	vs := *r.ValueSet
	if vs.ID == "" {
		vs.ID = r.OID
	}
	return &vs
}
