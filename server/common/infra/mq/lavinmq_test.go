package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConnectionRejectsNonAMQPURL(t *testing.T) {
	_, err := NewConnection("http://localhost:5672")
	assert.Error(t, err)
}
