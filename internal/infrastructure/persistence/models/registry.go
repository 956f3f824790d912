package models

// All returns every persistence model, parents before children.
// It is used by AutoMigrate for the sqlite driver and in tests; postgres
// deployments use the SQL migrations instead.
func All() []any {
	return []any{
		&CustomerModel{},
		&SupplierModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&OrderModel{},
		&OrderItemModel{},
		&CustomerDebtModel{},
		&SupplierDebtModel{},
		&ExpenseModel{},
		&AdjustmentModel{},
		&WasteRecordModel{},
	}
}
