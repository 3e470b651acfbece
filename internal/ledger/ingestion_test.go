package ledger

import (
	"testing"

	"gastos/internal/ocr"
)

func TestReviewReceipt(t *testing.T) {
	cases := []struct {
		name      string
		result    ocr.Result
		threshold int
		autoApply bool
	}{
		{"above threshold", ocr.Result{AmountCents: 2340, Confidence: 90}, 70, true},
		{"at threshold", ocr.Result{AmountCents: 2340, Confidence: 70}, 70, true},
		{"below threshold", ocr.Result{AmountCents: 2340, Confidence: 55}, 70, false},
		{"zero threshold accepts everything", ocr.Result{AmountCents: 100, Confidence: 0}, 0, true},
		{"max threshold", ocr.Result{AmountCents: 100, Confidence: 99}, 100, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rv := ReviewReceipt(tc.result, tc.threshold)
			if rv.AutoApply != tc.autoApply {
				t.Fatalf("expected autoApply=%v, got %v", tc.autoApply, rv.AutoApply)
			}
			if rv.LowConfidence == tc.autoApply {
				t.Fatalf("low-confidence flag must be the inverse of auto-apply")
			}
			if rv.AmountCents != tc.result.AmountCents || rv.Confidence != tc.result.Confidence {
				t.Fatalf("review must carry the raw OCR result, got %+v", rv)
			}
		})
	}
}
