package core

import (
	"errors"
	"strings"
	"time"
)

const (
	OriginManual Origin = "manual"
	OriginOCR    Origin = "ocr"

	// EpochMonth is the sentinel month key reported as "last recorded
	// month" while the ledger is still empty.
	EpochMonth MonthKey = "1970-01"

	// SettingsID is the fixed identifier of the settings singleton.
	SettingsID = "default"

	monthKeyLayout = "2006-01"
)

type (
	// Origin tags how a movement's amount was obtained.
	Origin string

	// MonthKey is a YYYY-MM month bucket. The month is zero-padded so
	// lexicographic order matches chronological order.
	MonthKey string

	Money struct {
		Cents int64
	}

	// Movement is a single recorded spending event. ID, CreatedAt,
	// Month and Origin are set at creation and never change; edits may
	// only touch Amount and Description.
	Movement struct {
		ID            int64
		CreatedAt     time.Time
		Month         MonthKey
		Amount        Money
		Description   string
		Origin        Origin
		OCRConfidence *int // 0-100, present only when Origin is ocr
	}

	// Settings is the singleton configuration of the ledger.
	Settings struct {
		ID               string
		MonthlyAllowance Money // may be zero
		OCRThreshold     int   // 0-100
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidMonthKey   = errors.New("invalid month key")
	ErrInvalidOrigin     = errors.New("invalid origin")
	ErrInvalidConfidence = errors.New("invalid ocr confidence")
	ErrInvalidAllowance  = errors.New("invalid monthly allowance")
	ErrInvalidThreshold  = errors.New("invalid ocr confidence threshold")
)

// MonthKeyOf returns the month bucket the given instant falls into.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format(monthKeyLayout))
}

// ParseMonthKey validates and normalizes a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(monthKeyLayout, s)
	if err != nil {
		return "", ErrInvalidMonthKey
	}
	return MonthKey(t.Format(monthKeyLayout)), nil
}

func (k MonthKey) Validate() error {
	if _, err := time.Parse(monthKeyLayout, string(k)); err != nil {
		return ErrInvalidMonthKey
	}
	return nil
}

// Before reports whether k is strictly earlier than other. Plain string
// comparison is correct for zero-padded YYYY-MM keys.
func (k MonthKey) Before(other MonthKey) bool { return k < other }

// After reports whether k is strictly later than other.
func (k MonthKey) After(other MonthKey) bool { return k > other }

func (o Origin) Valid() bool {
	return o == OriginManual || o == OriginOCR
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Movement) Validate() error {
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if err := m.Month.Validate(); err != nil {
		return err
	}
	if m.CreatedAt.IsZero() {
		return errors.New("creation timestamp cannot be zero")
	}
	if !m.Origin.Valid() {
		return ErrInvalidOrigin
	}
	if len(m.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if m.OCRConfidence != nil {
		if m.Origin != OriginOCR {
			return ErrInvalidConfidence
		}
		if *m.OCRConfidence < 0 || *m.OCRConfidence > 100 {
			return ErrInvalidConfidence
		}
	}
	return nil
}

func (s Settings) Validate() error {
	if s.MonthlyAllowance.Cents < 0 {
		return ErrInvalidAllowance
	}
	if s.OCRThreshold < 0 || s.OCRThreshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}
