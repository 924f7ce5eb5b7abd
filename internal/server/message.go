package server

import (
	"encoding/json"
	"time"
)

// MessageType identifies the payload carried by a Message
type MessageType string

const (
	// Client → server
	MessageTypeAuth    MessageType = "auth"
	MessageTypeDeal    MessageType = "deal"
	MessageTypeHit     MessageType = "hit"
	MessageTypeStand   MessageType = "stand"
	MessageTypeCounter MessageType = "counter"

	// Administrative client → server
	MessageTypeFund     MessageType = "fund"
	MessageTypeWithdraw MessageType = "withdraw"
	MessageTypeDestroy  MessageType = "destroy"

	// Server → client
	MessageTypeWelcome       MessageType = "welcome"
	MessageTypeGameState     MessageType = "game_state"
	MessageTypeCounterResult MessageType = "counter_result"
	MessageTypeAck           MessageType = "ack"
	MessageTypeError         MessageType = "error"
)

// Message is the JSON envelope for every WebSocket frame
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type:      messageType,
		Data:      raw,
		Timestamp: time.Now(),
	}, nil
}

// Client → server payloads

type AuthData struct {
	Player string `json:"player"`
}

type DealData struct {
	Wager int64 `json:"wager"`
}

type FundData struct {
	Amount int64 `json:"amount"`
}

type WithdrawData struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
}

// FulfillRequest is the oracle's HTTP callback payload: a correlation
// id plus the entropy words as hex strings.
type FulfillRequest struct {
	RequestID string   `json:"request_id"`
	Words     []string `json:"words"`
}

// Server → client payloads

type WelcomeData struct {
	Player string `json:"player"`
}

type GameStateData struct {
	GameID      string   `json:"game_id"`
	Seq         uint64   `json:"seq"`
	State       string   `json:"state"`
	Wager       int64    `json:"wager"`
	PlayerHand  []string `json:"player_hand"`
	PlayerValue int      `json:"player_value"`
	// DealerHand masks the hole card until the game settles
	DealerHand  []string `json:"dealer_hand"`
	DealerValue int      `json:"dealer_value,omitempty"`
	Outcome     string   `json:"outcome,omitempty"`
}

type CounterResultData struct {
	Counter uint64 `json:"counter"`
}

type ErrorData struct {
	Message string `json:"message"`
}
