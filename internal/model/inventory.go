package model

import "time"

type InventoryCategory string

const (
	InventoryCategoryMedication InventoryCategory = "medication"
	InventoryCategorySupply     InventoryCategory = "supply"
	InventoryCategoryEquipment  InventoryCategory = "equipment"
)

type InventoryItem struct {
	Base
	ItemCode     string            `db:"item_code" json:"item_code"`
	Name         string            `db:"name" json:"name"`
	Category     InventoryCategory `db:"category" json:"category"`
	CurrentStock int               `db:"current_stock" json:"current_stock"`
	MinStock     int               `db:"min_stock" json:"min_stock"`
	MaxStock     int               `db:"max_stock" json:"max_stock"`
	Unit         string            `db:"unit" json:"unit"`
	UnitPrice    float64           `db:"unit_price" json:"unit_price"`
	Supplier     string            `db:"supplier" json:"supplier,omitempty"`
	ExpiryDate   *time.Time        `db:"expiry_date" json:"expiry_date,omitempty"`
	Active       bool              `db:"active" json:"active"`
}

// IsLowStock reports whether the current stock has fallen to or below the
// configured minimum.
func (i *InventoryItem) IsLowStock() bool {
	return i.CurrentStock <= i.MinStock
}

type CreateInventoryItemRequest struct {
	Name         string            `json:"name" binding:"required,max=200"`
	Category     InventoryCategory `json:"category" binding:"required,oneof=medication supply equipment"`
	CurrentStock int               `json:"current_stock" binding:"gte=0"`
	MinStock     int               `json:"min_stock" binding:"gte=0"`
	MaxStock     int               `json:"max_stock" binding:"gtefield=MinStock"`
	Unit         string            `json:"unit" binding:"required,max=50"`
	UnitPrice    float64           `json:"unit_price" binding:"gte=0"`
	Supplier     string            `json:"supplier" binding:"max=200"`
	ExpiryDate   *time.Time        `json:"expiry_date"`
}

type UpdateInventoryItemRequest struct {
	Name       *string            `json:"name" binding:"omitempty,max=200"`
	Category   *InventoryCategory `json:"category" binding:"omitempty,oneof=medication supply equipment"`
	MinStock   *int               `json:"min_stock" binding:"omitempty,gte=0"`
	MaxStock   *int               `json:"max_stock" binding:"omitempty,gte=0"`
	Unit       *string            `json:"unit" binding:"omitempty,max=50"`
	UnitPrice  *float64           `json:"unit_price" binding:"omitempty,gte=0"`
	Supplier   *string            `json:"supplier" binding:"omitempty,max=200"`
	ExpiryDate *time.Time         `json:"expiry_date"`
	Active     *bool              `json:"active"`
}

// AdjustStockRequest applies a signed delta to an item's current stock.
type AdjustStockRequest struct {
	Adjustment int    `json:"adjustment" binding:"required"`
	Reason     string `json:"reason" binding:"max=500"`
}

type InventoryFilters struct {
	Category InventoryCategory
	Search   string
	Active   *bool
	Pagination
}

// InventoryStats summarizes stock health for the dashboard.
type InventoryStats struct {
	TotalItems    int64   `db:"total_items" json:"total_items"`
	LowStockItems int64   `db:"low_stock_items" json:"low_stock_items"`
	ExpiringSoon  int64   `db:"expiring_soon" json:"expiring_soon"`
	StockValue    float64 `db:"stock_value" json:"stock_value"`
}
