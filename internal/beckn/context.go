package beckn

import (
	"encoding/json"
	"fmt"
	"time"

	"ondc-seller/internal/models"

	"github.com/google/uuid"
)

// CoreVersion is the Beckn protocol version spoken by this BPP.
const CoreVersion = "1.2.0"

// ResponseTTL is attached to every outbound context.
const ResponseTTL = "PT30S"

// Context is the protocol envelope carried by every action and callback.
type Context struct {
	Domain        string    `json:"domain,omitempty"`
	Country       string    `json:"country,omitempty"`
	City          string    `json:"city,omitempty"`
	Action        string    `json:"action,omitempty"`
	CoreVersion   string    `json:"core_version,omitempty"`
	BapID         string    `json:"bap_id,omitempty"`
	BapURI        string    `json:"bap_uri,omitempty"`
	BppID         string    `json:"bpp_id,omitempty"`
	BppURI        string    `json:"bpp_uri,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	MessageID     string    `json:"message_id,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	TTL           string    `json:"ttl,omitempty"`
}

// Ack is the synchronous acknowledgement half of the two-phase contract.
type Ack struct {
	Status string `json:"status"`
}

// Error is the structured NACK error block.
type Error struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Response is the synchronous reply: either an ACK or a NACK with an error.
type Response struct {
	Context *Context `json:"context,omitempty"`
	Message struct {
		Ack Ack `json:"ack"`
	} `json:"message"`
	Error *Error `json:"error,omitempty"`
}

// NewAck builds an ACK response echoing the inbound context.
func NewAck(ctx *Context) *Response {
	resp := &Response{Context: ctx}
	resp.Message.Ack = Ack{Status: "ACK"}
	return resp
}

// NewNack builds a NACK response with a structured error.
func NewNack(ctx *Context, err *Error) *Response {
	resp := &Response{Context: ctx, Error: err}
	resp.Message.Ack = Ack{Status: "NACK"}
	return resp
}

// ParseContext extracts only the envelope from a raw protocol body. The rest
// of the payload stays unparsed so malformed business content can still be
// acknowledged and reported asynchronously.
func ParseContext(rawBody []byte) (*Context, error) {
	var envelope struct {
		Context *Context `json:"context"`
	}
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if envelope.Context == nil {
		return nil, fmt.Errorf("missing context in envelope")
	}
	return envelope.Context, nil
}

// ResponseContext derives the outbound on_<action> context from the inbound
// one: transaction and buyer identity are copied, seller identity comes from
// the subscriber, and message id/timestamp are freshly generated.
func ResponseContext(incoming *Context, sub *models.Subscriber, action string) *Context {
	return &Context{
		Domain:        incoming.Domain,
		Country:       incoming.Country,
		City:          incoming.City,
		Action:        action,
		CoreVersion:   CoreVersion,
		BapID:         incoming.BapID,
		BapURI:        incoming.BapURI,
		BppID:         sub.SubscriberID,
		BppURI:        sub.SubscriberURL,
		TransactionID: incoming.TransactionID,
		MessageID:     uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		TTL:           ResponseTTL,
	}
}
