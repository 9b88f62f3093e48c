package mq

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewConnection dials the broker and labels the connection so it can be found in the management UI.
func NewConnection(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Properties: amqp.Table{
			"connection_name": "snd-media-relay",
		},
	})
}
