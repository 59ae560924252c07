package events

import "errors"

var (
	// ErrPublisherClosed is returned when publishing on a closed publisher
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrInvalidBrokers is returned when no brokers are configured
	ErrInvalidBrokers = errors.New("no kafka brokers configured")

	// ErrInvalidTopic is returned when topic is empty
	ErrInvalidTopic = errors.New("kafka topic cannot be empty")
)
