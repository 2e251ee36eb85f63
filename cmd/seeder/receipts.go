package main

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// receiptReason is the adjustment reason recorded for received goods.
const receiptReason = "PURCHASE_ORDER_RECEIPT"

var (
	receiptHeaderRe = regexp.MustCompile(`(?i)\bSKU\b.*\bQ(?:TY|UANTITY)\b`)
	receiptFooterRe = regexp.MustCompile(`(?i)^(TOTAL|RECEIVED BY|SIGNATURE)\b`)
	// SKU first, quantity last; anything in between is description.
	receiptLineRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]{1,63})\b.*?\s(\d{1,6})$`)
)

// receiptLine is one received SKU on a packing slip.
type receiptLine struct {
	SKU      string
	Quantity int
}

func extractTextLines(path string, logger *slog.Logger) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("failed to extract text from page",
				slog.Int("page", pageNum),
				slog.String("error", err.Error()))
			continue
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return lines, nil
}

// parseReceipt reads the line items between the SKU/QTY header and the
// totals footer. Repeated SKUs are summed and zero quantities dropped.
// Lines before the header are ignored; without a header nothing is parsed.
func parseReceipt(lines []string) []receiptLine {
	start := -1
	for i, line := range lines {
		if receiptHeaderRe.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var (
		order  []string
		totals = make(map[string]int)
	)
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if receiptFooterRe.MatchString(line) {
			break
		}

		m := receiptLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty, err := strconv.Atoi(m[2])
		if err != nil || qty == 0 {
			continue
		}

		sku := strings.ToUpper(m[1])
		if _, seen := totals[sku]; !seen {
			order = append(order, sku)
		}
		totals[sku] += qty
	}

	out := make([]receiptLine, 0, len(order))
	for _, sku := range order {
		out = append(out, receiptLine{SKU: sku, Quantity: totals[sku]})
	}
	return out
}

type receiptResult struct {
	Applied int
	Units   int
	Unknown []string
}

// applyReceipt books every line as a positive adjustment through the ledger.
// SKUs missing from the catalog are reported, not created.
func applyReceipt(ctx context.Context, ledger ports.StockLedger, skus map[string]int64, lines []receiptLine, logger *slog.Logger) (receiptResult, error) {
	var res receiptResult
	for _, line := range lines {
		variantID, ok := skus[line.SKU]
		if !ok {
			res.Unknown = append(res.Unknown, line.SKU)
			continue
		}

		change, err := ledger.AdjustStock(ctx, variantID, line.Quantity, receiptReason)
		if err != nil {
			return res, fmt.Errorf("failed to receive %s: %w", line.SKU, err)
		}
		logger.Debug("received stock",
			slog.String("sku", line.SKU),
			slog.Int("quantity", line.Quantity),
			slog.Int("new_quantity", change.Quantity))
		res.Applied++
		res.Units += line.Quantity
	}
	return res, nil
}
