package tripsource

import "github.com/segmentio/kafka-go"

// Deliver exposes deliver to the external test package.
var Deliver = deliver

// KafkaMessage exposes kafkaMessage to the external test package.
var KafkaMessage = kafkaMessage

// KafkaBalancer returns the balancer of p's writer.
func KafkaBalancer(p *KafkaPublisher) kafka.Balancer {
	return p.writer.Balancer
}
