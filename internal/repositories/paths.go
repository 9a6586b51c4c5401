package repositories

import "govpay/internal/repositories/store"

// Record store layout
const (
	walletsRoot        = "wallets"
	transactionsNode   = "transactions"
	usersRoot          = "users"
	scheduledBillsNode = "scheduledBills"
	billsRoot          = "bills"
	scheduleIndexRoot  = "scheduledBillIndex"
)

func walletPath(walletID string) string {
	return store.Join(walletsRoot, walletID)
}

func transactionsPath(walletID string) string {
	return store.Join(walletsRoot, walletID, transactionsNode)
}

func transactionPath(walletID, txnID string) string {
	return store.Join(walletsRoot, walletID, transactionsNode, txnID)
}

func scheduledBillsPath(userID string) string {
	return store.Join(usersRoot, userID, scheduledBillsNode)
}

func scheduledBillPath(userID, id string) string {
	return store.Join(usersRoot, userID, scheduledBillsNode, id)
}

func billPath(billID string) string {
	return store.Join(billsRoot, billID)
}

func scheduleIndexPath(id string) string {
	return store.Join(scheduleIndexRoot, id)
}
