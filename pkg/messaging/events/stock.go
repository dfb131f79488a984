package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const StockChangedSubject = "inventory.stock.changed"

// StockChangedEvent is published after a pharmacy updates the stock of
// one of its products.
type StockChangedEvent struct {
	ProductID  uuid.UUID `json:"product_id"`
	PharmacyID uuid.UUID `json:"pharmacy_id"`
	Stock      int32     `json:"stock"`
	ChangedAt  time.Time `json:"changed_at"`
}

func (e StockChangedEvent) Subject() string {
	return StockChangedSubject
}

func (e StockChangedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
