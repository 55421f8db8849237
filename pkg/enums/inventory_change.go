package enums

import "fmt"

// InventoryChangeType classifies an inventory ledger entry.
type InventoryChangeType string

const (
	InventoryChangeOrderDecrement InventoryChangeType = "order_decrement"
	InventoryChangeCancelRestock  InventoryChangeType = "cancel_restock"
	InventoryChangeAdminAdjust    InventoryChangeType = "admin_adjust"
)

var validInventoryChangeTypes = []InventoryChangeType{
	InventoryChangeOrderDecrement,
	InventoryChangeCancelRestock,
	InventoryChangeAdminAdjust,
}

// String implements fmt.Stringer.
func (t InventoryChangeType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known InventoryChangeType.
func (t InventoryChangeType) IsValid() bool {
	for _, candidate := range validInventoryChangeTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseInventoryChangeType converts raw input into an InventoryChangeType.
func ParseInventoryChangeType(value string) (InventoryChangeType, error) {
	for _, candidate := range validInventoryChangeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory change type %q", value)
}
