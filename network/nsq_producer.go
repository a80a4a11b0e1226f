package network

import (
	"github.com/nsqio/go-nsq"
)

// NSQProducer publishes over nsqd's TCP protocol. Use it instead of
// NSQClient when the gateway runs next to an nsqd and Config.NsqTCPAddress
// is set.
type NSQProducer struct {
	producer *nsq.Producer
}

// NewNSQProducer returns a producer for the nsqd at address, which
// usually ends with :4150. It does not connect until the first publish.
func NewNSQProducer(address string) (*NSQProducer, error) {
	config := nsq.NewConfig()
	config.Set("heartbeat_interval", "10s")
	producer, err := nsq.NewProducer(address, config)
	if err != nil {
		return nil, err
	}
	producer.SetLoggerLevel(nsq.LogLevelWarning)
	return &NSQProducer{producer: producer}, nil
}

// Publish synchronously publishes body to topic.
func (p *NSQProducer) Publish(topic string, body []byte) error {
	return p.producer.Publish(topic, body)
}

// Stop closes the connection to nsqd.
func (p *NSQProducer) Stop() {
	p.producer.Stop()
}
