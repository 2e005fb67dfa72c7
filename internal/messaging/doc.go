// Package messaging publishes order events to a message broker.
//
// AMQPPublisher sends JSON events to a durable RabbitMQ queue. When no
// broker is configured the server runs with Noop, and tests use Memory.
package messaging
