package vision

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches decimal amounts like 12.34 or 12,34, with an
// optional currency sign nearby on the same line.
var amountPattern = regexp.MustCompile(`(\d{1,6})[.,](\d{2})\b`)

// totalKeywords mark lines that usually carry the receipt total.
var totalKeywords = []string{"TOTAL", "IMPORTE", "TOTALE", "AMOUNT", "SUMA"}

// extractAmountCents picks the most plausible total from OCR text.
// Lines containing a total keyword win; among candidates the largest
// amount is chosen, since receipt totals are never smaller than their
// line items.
func extractAmountCents(text string) (int64, bool) {
	var best int64
	var bestTotal int64

	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(line)
		isTotalLine := false
		for _, kw := range totalKeywords {
			if strings.Contains(upper, kw) {
				isTotalLine = true
				break
			}
		}

		for _, m := range amountPattern.FindAllStringSubmatch(line, -1) {
			whole, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			frac, err := strconv.ParseInt(m[2], 10, 64)
			if err != nil {
				continue
			}
			cents := whole*100 + frac
			if cents <= 0 {
				continue
			}
			if cents > best {
				best = cents
			}
			if isTotalLine && cents > bestTotal {
				bestTotal = cents
			}
		}
	}

	if bestTotal > 0 {
		return bestTotal, true
	}
	if best > 0 {
		return best, true
	}
	return 0, false
}
