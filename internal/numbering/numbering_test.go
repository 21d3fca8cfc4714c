package numbering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	date := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "PO-00000001", Format(DocPurchaseOrder, date, 1))
	assert.Equal(t, "PO-00012345", Format(DocPurchaseOrder, date, 12345))
	assert.Equal(t, "SO-00000042", Format(DocSalesOrder, date, 42))
	assert.Equal(t, "QT-2026-0007", Format(DocQuotation, date, 7))
	assert.Equal(t, "MT-2026-0131", Format(DocMoneyTransaction, date, 131))
}

func TestFormatYearRollover(t *testing.T) {
	dec := time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)
	jan := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "QT-2026-0900", Format(DocQuotation, dec, 900))
	assert.Equal(t, "QT-2027-0001", Format(DocQuotation, jan, 1))
}
