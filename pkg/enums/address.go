package enums

// AddressType labels what an address snapshot was captured for.
type AddressType string

const (
	AddressTypeShipping AddressType = "shipping"
	AddressTypeBilling  AddressType = "billing"
)
