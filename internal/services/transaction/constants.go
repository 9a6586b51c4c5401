package transaction

import "govpay/internal/models"

// Reference number prefixes per transaction type
var referencePrefixes = map[string]string{
	models.TransactionTypePayment:    "GOV",
	models.TransactionTypeTopup:      "TOP",
	models.TransactionTypeWithdrawal: "WDR",
	models.TransactionTypeRefund:     "RFD",
	models.TransactionTypeTransfer:   "TRF",
	models.TransactionTypeReversal:   "REV",
	models.TransactionTypeAdjustment: "ADJ",
}

// ReferencePrefix returns the reference prefix for a transaction type.
func ReferencePrefix(txType string) (string, bool) {
	p, ok := referencePrefixes[txType]
	return p, ok
}
