package ledger

import (
	"context"

	"gastos/internal/ocr"
)

// Entry flow states for the add/edit form.
const (
	EntryIdle       EntryState = "idle"
	EntryCapturing  EntryState = "capturing"
	EntryReviewing  EntryState = "reviewing"
	EntrySubmitting EntryState = "submitting"
)

type EntryState string

// ReceiptReview is the reconciliation of an OCR result against the
// configured confidence threshold.
type ReceiptReview struct {
	AmountCents   int64
	Confidence    int
	AutoApply     bool
	LowConfidence bool
}

// ReviewReceipt decides whether an OCR amount may pre-fill the entry
// form. A below-threshold result is never applied automatically but is
// still surfaced, flagged low-confidence, so the user can see what was
// read. The confidence travels with the eventual movement either way:
// it describes how the candidate amount was obtained, not whether it
// was used verbatim.
func ReviewReceipt(res ocr.Result, threshold int) ReceiptReview {
	auto := res.Confidence >= threshold
	return ReceiptReview{
		AmountCents:   res.AmountCents,
		Confidence:    res.Confidence,
		AutoApply:     auto,
		LowConfidence: !auto,
	}
}

// CaptureReceipt runs OCR on a receipt image for the open entry and
// reconciles the result against the active threshold. The OCR call runs
// outside the ledger lock; if the entry is cancelled or restarted while
// the call is in flight, the stale result is discarded instead of being
// applied to the newer state.
func (l *Ledger) CaptureReceipt(ctx context.Context, image []byte) (ReceiptReview, error) {
	l.mu.Lock()
	if l.reader == nil {
		l.mu.Unlock()
		return ReceiptReview{}, ingestionError(ocr.ErrNoAmount)
	}
	if l.entryState != EntryReviewing {
		l.mu.Unlock()
		return ReceiptReview{}, ErrNoEntry
	}
	l.entryGen++
	gen := l.entryGen
	l.entryState = EntryCapturing
	l.review = nil
	l.mu.Unlock()

	res, err := l.reader.ReadAmount(ctx, image)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.entryGen || l.entryState != EntryCapturing {
		return ReceiptReview{}, ErrStaleCapture
	}
	l.entryState = EntryReviewing
	if err != nil {
		// Ingestion failure: the form falls back to manual entry with
		// no amount pre-filled and no confidence attached.
		l.review = nil
		return ReceiptReview{}, ingestionError(err)
	}

	rv := ReviewReceipt(res, l.current.OCRThreshold)
	l.review = &rv
	return rv, nil
}
