// Package ocr defines the receipt-reading port: image in, candidate
// amount plus confidence out.
package ocr

import (
	"context"
	"errors"
)

// Result is the best-effort amount extracted from a receipt image.
type Result struct {
	AmountCents int64
	Confidence  int // 0-100
}

// ErrNoAmount is returned when no monetary amount can be recovered
// from the image. Callers treat it as an ingestion failure, distinct
// from storage errors.
var ErrNoAmount = errors.New("no amount recoverable from image")

// ReceiptReader extracts a candidate amount from a receipt photo.
type ReceiptReader interface {
	ReadAmount(ctx context.Context, image []byte) (Result, error)
}
