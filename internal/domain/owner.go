package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// OwnerType discriminates which aggregate entity a review settles against
type OwnerType string

const (
	OwnerTypeProduct OwnerType = "product"
	OwnerTypeBrand   OwnerType = "brand"
)

// Owner identifies the aggregate entity (Brand or Product) that owns a set
// of denormalized rating statistics. It is a tagged reference: callers match
// on Type instead of probing which foreign key happens to be set.
type Owner struct {
	Type OwnerType `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// ProductOwner returns an Owner referencing a product
func ProductOwner(id uuid.UUID) Owner {
	return Owner{Type: OwnerTypeProduct, ID: id}
}

// BrandOwner returns an Owner referencing a brand
func BrandOwner(id uuid.UUID) Owner {
	return Owner{Type: OwnerTypeBrand, ID: id}
}

// String returns a human-readable form for log fields
func (o Owner) String() string {
	return fmt.Sprintf("%s:%s", o.Type, o.ID)
}
