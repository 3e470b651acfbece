// Package vision reads receipt amounts through the Google Cloud Vision
// API.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"gastos/internal/ocr"

	goption "google.golang.org/api/option"
	gvision "google.golang.org/api/vision/v1"
)

type Client struct {
	svc *gvision.Service
}

// Ensure interface conformance
var _ ocr.ReceiptReader = (*Client)(nil)

// NewFromEnv creates a Vision client using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS; falls back to Application Default
// Credentials when none is set.
func NewFromEnv(ctx context.Context) (*Client, error) {
	svc, err := newVisionService(ctx)
	if err != nil {
		return nil, fmt.Errorf("vision service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func newVisionService(ctx context.Context) (*gvision.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	}

	opts := []goption.ClientOption{goption.WithScopes(gvision.CloudVisionScope)}
	if credentialsJSON != nil {
		opts = append(opts, goption.WithCredentialsJSON(credentialsJSON))
	}

	svc, err := gvision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return svc, nil
}

// ReadAmount implements ocr.ReceiptReader. It runs document text
// detection on the image and extracts the most plausible total amount
// from the recognized text.
func (c *Client) ReadAmount(ctx context.Context, image []byte) (ocr.Result, error) {
	if len(image) == 0 {
		return ocr.Result{}, ocr.ErrNoAmount
	}

	req := &gvision.BatchAnnotateImagesRequest{
		Requests: []*gvision.AnnotateImageRequest{{
			Image:    &gvision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*gvision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}

	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return ocr.Result{}, ocr.ErrNoAmount
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return ocr.Result{}, fmt.Errorf("annotate image: %s", r.Error.Message)
	}
	if r.FullTextAnnotation == nil || strings.TrimSpace(r.FullTextAnnotation.Text) == "" {
		return ocr.Result{}, ocr.ErrNoAmount
	}

	cents, ok := extractAmountCents(r.FullTextAnnotation.Text)
	if !ok {
		return ocr.Result{}, ocr.ErrNoAmount
	}

	confidence := pageConfidence(r.FullTextAnnotation)

	slog.DebugContext(ctx, "Receipt amount extracted",
		"amount_cents", cents,
		"confidence", confidence)

	return ocr.Result{AmountCents: cents, Confidence: confidence}, nil
}

// pageConfidence maps Vision's per-page 0..1 confidence to the 0..100
// scale used by the reconciler. Missing confidence reads as 0 so it can
// never pass the threshold unnoticed.
func pageConfidence(ann *gvision.TextAnnotation) int {
	var sum float64
	var n int
	for _, p := range ann.Pages {
		if p == nil || p.Confidence == 0 {
			continue
		}
		sum += p.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	c := int(math.Round(sum / float64(n) * 100))
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return c
}
