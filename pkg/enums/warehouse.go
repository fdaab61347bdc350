package enums

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Warehouse is one of the fixed receiving sites. Names are stored verbatim,
// including the mixed-case Offsite.
type Warehouse string

const (
	WarehousePretoria Warehouse = "PRETORIA"
	WarehouseKlapmuts Warehouse = "KLAPMUTS"
	WarehouseOffsite  Warehouse = "Offsite"
)

// Warehouses is ordered by site priority: PRETORIA is the primary site.
var Warehouses = []Warehouse{
	WarehousePretoria,
	WarehouseKlapmuts,
	WarehouseOffsite,
}

var warehouseNamespace = uuid.MustParse("8f0e4c5a-3f7b-4b8e-9a55-7d0c1d2f6a10")

// String implements fmt.Stringer.
func (w Warehouse) String() string {
	return string(w)
}

// IsValid reports whether the value is a known Warehouse.
func (w Warehouse) IsValid() bool {
	for _, candidate := range Warehouses {
		if candidate == w {
			return true
		}
	}
	return false
}

// AggregateID returns a stable id for outbox events about this warehouse.
func (w Warehouse) AggregateID() uuid.UUID {
	return uuid.NewSHA1(warehouseNamespace, []byte(string(w)))
}

// ParseWarehouse accepts the canonical name case-insensitively.
func ParseWarehouse(value string) (Warehouse, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range Warehouses {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warehouse %q", value)
}
