package orders

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// timeline synthesizes tracking events from the current status; no event history is stored.
func timeline(order *models.Order) []TrackingEvent {
	events := []TrackingEvent{{
		Status:      enums.OrderStatusPending,
		Description: "Order placed",
		Timestamp:   order.CreatedAt,
		Location:    "Order placed",
	}}

	updatedAt := order.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = order.CreatedAt
	}
	status := order.Status
	reached := func(statuses ...enums.OrderStatus) bool {
		for _, candidate := range statuses {
			if status == candidate {
				return true
			}
		}
		return false
	}

	if reached(enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusDelivered) {
		events = append(events, TrackingEvent{
			Status:      enums.OrderStatusProcessing,
			Description: "Order confirmed and processing",
			Timestamp:   updatedAt,
			Location:    "Processing center",
		})
	}
	if reached(enums.OrderStatusShipped, enums.OrderStatusDelivered) {
		description := "Order shipped"
		location := "Shipping facility"
		if order.Carrier != nil && *order.Carrier != "" {
			location = *order.Carrier
		}
		if order.TrackingNumber != nil && *order.TrackingNumber != "" {
			carrier := "carrier"
			if order.Carrier != nil && *order.Carrier != "" {
				carrier = *order.Carrier
			}
			description = fmt.Sprintf("Order shipped via %s - Tracking: %s", carrier, *order.TrackingNumber)
		}
		events = append(events, TrackingEvent{
			Status:      enums.OrderStatusShipped,
			Description: description,
			Timestamp:   updatedAt,
			Location:    location,
		})
	}
	if status == enums.OrderStatusDelivered {
		events = append(events, TrackingEvent{
			Status:      enums.OrderStatusDelivered,
			Description: "Order delivered",
			Timestamp:   updatedAt,
			Location:    "Delivered",
		})
	}
	return events
}

func buildInvoice(order *models.Order) *Invoice {
	customer := InvoiceCustomer{Name: "N/A", Email: "N/A", Phone: "N/A"}
	if order.CustomerEmail != "" {
		customer.Email = order.CustomerEmail
	}
	if order.ShippingAddress != nil {
		customer.Name = order.ShippingAddress.FullName()
		customer.Phone = order.ShippingAddress.Phone
	}
	return &Invoice{
		InvoiceNumber:   "INV-" + order.OrderNumber,
		OrderNumber:     order.OrderNumber,
		Date:            order.CreatedAt,
		Customer:        customer,
		ShippingAddress: order.ShippingAddress,
		Items:           order.Items,
		Subtotal:        order.Subtotal,
		Tax:             order.Tax,
		Shipping:        order.Shipping,
		Discount:        order.Discount,
		Total:           order.Total,
		Currency:        order.Currency,
		ExchangeRate:    order.ExchangeRate,
		Display:         displayTotals(order),
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		Status:          order.Status,
	}
}

func buildShippingLabel(order *models.Order) *ShippingLabel {
	addr := order.ShippingAddress
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return &ShippingLabel{
		OrderNumber: order.OrderNumber,
		ShipTo: LabelAddress{
			Name:    addr.FullName(),
			Line1:   addr.AddressLine1,
			Line2:   addr.AddressLine2,
			City:    addr.City,
			State:   addr.State,
			ZipCode: addr.ZipCode,
			Country: addr.Country,
			Phone:   addr.Phone,
		},
		TrackingNumber: order.TrackingNumber,
		Carrier:        order.Carrier,
		ItemCount:      count,
		CreatedAt:      order.CreatedAt,
	}
}
