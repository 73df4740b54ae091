package amqp

import (
	"encoding/json"
	"time"

	"salao/internal/core"
)

// ExportRequestMessage asks the worker to export one fortnight ledger.
type ExportRequestMessage struct {
	Half      int       `json:"half"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExportRequestMessage(half, year, month int) *ExportRequestMessage {
	return &ExportRequestMessage{
		Half:      half,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// Validate rejects selectors that do not resolve to a fortnight.
func (m *ExportRequestMessage) Validate() error {
	_, err := core.ResolvePeriod(m.Half, m.Year, m.Month)
	return err
}

func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
