package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	for _, brokers := range []string{"", " , ,"} {
		producer, err := initKafkaProducer(brokers, "printshop", logger)
		if err != nil {
			t.Errorf("expected no error for empty brokers %q, got %v", brokers, err)
		}
		if producer != nil {
			t.Errorf("expected nil producer for empty brokers %q", brokers)
		}
	}
}

func TestInitKafkaProducer_UnreachableBrokers(t *testing.T) {
	logger := log.WithField("test", "kafka")

	// Порт 1 на loopback закрыт, sarama отказывает сразу после попыток подключения.
	producer, err := initKafkaProducer("127.0.0.1:1, 127.0.0.1:2", "printshop", logger)
	if err == nil {
		t.Error("expected error for unreachable brokers")
	}
	if producer != nil {
		t.Error("expected nil producer on error")
	}
}

func TestCloseKafka_NilProducer(t *testing.T) {
	// Не должно паниковать
	closeKafka(nil, log.WithField("test", "kafka"))
}
