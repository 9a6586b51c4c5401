/*
Package wallet is the ledger over wallet records.

The service reads balances and applies debits. Every balance write is a
compare-and-set against the balance that was read, so a concurrent writer
makes the losing call fail instead of being overwritten.

Usage:

	svc := wallet.NewService(repo, clock, ids, wallet.Config{DefaultCurrency: "SAR"}, log, nil)

	w, err := svc.CreateWallet(ctx, userID, models.WalletTypePersonal, decimal.Zero)

	// Debit reads the balance itself; DebitFrom takes the balance the caller
	// already observed and fails if it moved.
	w, err = svc.Debit(ctx, w.ID, amount)

Errors:

  - ErrWalletNotFound: the wallet record does not exist
  - ErrInvalidAmount: amount is zero or negative
  - ErrInsufficientFunds: balance is below the requested amount
  - ErrWalletLocked: wallet status is not active
  - ErrBalanceChanged: the balance moved between read and write

RestoreBalance exists for reconciliation only.
*/
package wallet
