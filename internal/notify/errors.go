package notify

import "errors"

var (
	// ErrTransportClosed is returned when sending on a closed transport
	ErrTransportClosed = errors.New("transport is closed")

	// ErrInvalidBrokers is returned when no brokers are configured
	ErrInvalidBrokers = errors.New("no kafka brokers configured")

	// ErrInvalidTopic is returned when topic is empty
	ErrInvalidTopic = errors.New("kafka topic cannot be empty")

	ErrEmptyContact = errors.New("alert contact cannot be empty")
)
