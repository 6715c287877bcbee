// Package audit defines the append-only trail of state changes.
package audit

import "time"

// Actions recorded by the order and payment workflows.
const (
	ActionCreateOrder          = "CREATE_ORDER"
	ActionCheckoutOrder        = "CHECKOUT_ORDER"
	ActionCancelOrder          = "CANCEL_ORDER"
	ActionChangePetStatus      = "CHANGE_PET_STATUS"
	ActionUpdateDeliveryStatus = "UPDATE_DELIVERY_STATUS"
)

// Entry is one append-only audit record. OldValue and NewValue capture the
// state transition as strings.
type Entry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	ActorID    int64     `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
