package worker

import "errors"

var (
	// ErrInvalidBrokers is returned when no brokers are configured
	ErrInvalidBrokers = errors.New("no kafka brokers configured")

	// ErrInvalidTopic is returned when topic is empty
	ErrInvalidTopic = errors.New("kafka topic cannot be empty")

	// ErrInvalidGroup is returned when the consumer group id is empty
	ErrInvalidGroup = errors.New("kafka consumer group cannot be empty")
)
