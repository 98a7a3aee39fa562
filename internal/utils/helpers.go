// Package utils provides watermill message helpers shared by the module handlers.
package utils

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Helpers is the contract for payload marshalling and result-message creation.
type Helpers interface {
	// UnmarshalPayload decodes a message payload into target.
	UnmarshalPayload(msg *message.Message, target any) error

	// CreateResultMessage builds an outbound message from a payload, copying the
	// correlation ID from the originating message and setting the topic metadata.
	CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error)

	// CreateNewMessage builds a fresh message with a new correlation ID.
	CreateNewMessage(payload any, topic string) (*message.Message, error)
}

type helpers struct{}

// NewHelpers returns the default Helpers implementation.
func NewHelpers() Helpers {
	return helpers{}
}

func (helpers) UnmarshalPayload(msg *message.Message, target any) error {
	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal payload into %T: %w", target, err)
	}
	return nil
}

func (h helpers) CreateResultMessage(original *message.Message, payload any, topic string) (*message.Message, error) {
	newMsg, err := h.CreateNewMessage(payload, topic)
	if err != nil {
		return nil, err
	}
	if original != nil {
		middleware.SetCorrelationID(middleware.MessageCorrelationID(original), newMsg)
	}
	return newMsg, nil
}

func (helpers) CreateNewMessage(payload any, topic string) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload %T: %w", payload, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	middleware.SetCorrelationID(watermill.NewUUID(), msg)
	return msg, nil
}
