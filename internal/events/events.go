// AngelaMos | 2026
// events.go

package events

import (
	"context"
	"time"
)

const (
	UserRegistered     = "user.registered"
	UserUpdated        = "user.updated"
	UserDeleted        = "user.deleted"
	UserPromoted       = "user.promoted"
	UserDemoted        = "user.demoted"
	UserProductAdded   = "user.product_added"
	UserProductRemoved = "user.product_removed"

	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

const (
	EntityUser    = "user"
	EntityProduct = "product"
)

// Event is a committed domain change.
type Event struct {
	Type       string    `json:"type"`
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(eventType, entity string, id int64, payload any) Event {
	return Event{
		Type:       eventType,
		Entity:     entity,
		EntityID:   id,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                            { return nil }
