package rankinghandlers

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

// Handlers defines the message handlers the ranking router binds to subjects.
type Handlers interface {
	HandleAttendanceConfirmed(msg *message.Message) ([]*message.Message, error)
	HandleRebuildRequested(msg *message.Message) ([]*message.Message, error)
}
