package address

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

// ShippingInput is the checkout payload's shippingAddress object.
type ShippingInput struct {
	FullName     string `json:"fullName"`
	Address      string `json:"address"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	ZipCode      string `json:"zipCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

// Defaults fill fields the shopper may omit.
type Defaults struct {
	Country string
	Phone   string
}

// SnapshotFromShipping builds the denormalized address row stored with an order.
func SnapshotFromShipping(userID uuid.UUID, in *ShippingInput, defaults Defaults) (models.Address, error) {
	if in == nil {
		return models.Address{}, errors.New(errors.CodeValidation, "Shipping address is required")
	}
	line1 := strings.TrimSpace(in.Address)
	if line1 == "" {
		return models.Address{}, errors.New(errors.CodeValidation, "Shipping address line is required")
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		return models.Address{}, errors.New(errors.CodeValidation, "Shipping city is required")
	}

	first, last := splitFullName(in.FullName)
	return models.Address{
		UserID:       userID,
		Type:         enums.AddressTypeShipping,
		FirstName:    first,
		LastName:     last,
		AddressLine1: line1,
		AddressLine2: strings.TrimSpace(in.AddressLine2),
		City:         city,
		State:        strings.TrimSpace(in.State),
		ZipCode:      firstNonEmpty(in.PostalCode, in.ZipCode),
		Country:      firstNonEmpty(in.Country, defaults.Country, "United States"),
		Phone:        firstNonEmpty(in.Phone, defaults.Phone, "0000000000"),
		IsDefault:    false,
	}, nil
}

// splitFullName keeps the first token as the first name; the last name falls back to it.
func splitFullName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "", ""
	}
	first := parts[0]
	if len(parts) == 1 {
		return first, first
	}
	return first, strings.Join(parts[1:], " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
