package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Address is a denormalized snapshot captured at checkout or saved on a profile.
type Address struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"userId"`
	Type         enums.AddressType `gorm:"column:type;type:text;not null" json:"type"`
	FirstName    string            `gorm:"column:first_name;not null" json:"firstName"`
	LastName     string            `gorm:"column:last_name;not null" json:"lastName"`
	AddressLine1 string            `gorm:"column:address_line1;not null" json:"addressLine1"`
	AddressLine2 string            `gorm:"column:address_line2" json:"addressLine2,omitempty"`
	City         string            `gorm:"column:city;not null" json:"city"`
	State        string            `gorm:"column:state" json:"state"`
	ZipCode      string            `gorm:"column:zip_code" json:"zipCode"`
	Country      string            `gorm:"column:country;not null" json:"country"`
	Phone        string            `gorm:"column:phone;not null" json:"phone"`
	IsDefault    bool              `gorm:"column:is_default;not null;default:false" json:"isDefault"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// FullName joins first and last name, skipping the duplicate fallback.
func (a Address) FullName() string {
	if a.LastName == "" || a.LastName == a.FirstName {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}
