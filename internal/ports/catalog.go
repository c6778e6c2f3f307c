package ports

import "ies4ops/internal/domain"

// EquipmentCatalog resolves equipment keys to catalog entries
type EquipmentCatalog interface {
	Get(key string) (*domain.Equipment, bool)
	All() []*domain.Equipment
}
