package kafka

// NewPublisherWithWriter swaps the Kafka writer for a recording fake.
var NewPublisherWithWriter = newPublisher
