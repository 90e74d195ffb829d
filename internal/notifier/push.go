package notifier

import (
	"context"
	"fmt"

	"github.com/warrantywise/warranty-api/internal/model"
	"github.com/warrantywise/warranty-api/pkg/messaging"
)

// PushTopic is the broker channel push reminders are published on. A
// downstream delivery service owns the device transport.
const PushTopic = "warranty.reminders"

type pushNotifier struct {
	broker messaging.Broker
}

// NewPushNotifier publishes reminders to the message broker
func NewPushNotifier(broker messaging.Broker) Notifier {
	return &pushNotifier{broker: broker}
}

func (n *pushNotifier) Channel() string { return model.ChannelPush }

func (n *pushNotifier) Send(ctx context.Context, payload ReminderPayload) error {
	if err := n.broker.Publish(ctx, PushTopic, payload); err != nil {
		return fmt.Errorf("failed to publish push reminder: %w", err)
	}
	return nil
}
