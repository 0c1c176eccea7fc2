package publisher

// Publisher represents a service for publishing stored listings to
// downstream consumers (the notifier collaborator)
type Publisher interface {
	// Publish publishes a listing payload under the originating source name
	Publish(sourceName string, payload []byte) error

	// TrimStream trims the stream to the configured maximum length
	TrimStream() error

	// Close closes the publisher connection
	Close() error
}
