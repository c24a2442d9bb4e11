package models

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Customer{},
		&Product{},
		&WishlistItem{},
		&Store{},
		&Appointment{},
		&WorkOrder{},
		&WorkOrderEvent{},
		&Reward{},
		&Voucher{},
		&PointsLedger{},
		&Transaction{},
		&TransactionItem{},
		&ChatSession{},
		&ChatMessage{},
		&SystemSetting{},
		&MessageTemplate{},
		&NotificationLog{},
	}
}
