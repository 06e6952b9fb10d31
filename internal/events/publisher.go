package events

import (
	"encoding/json"
	"fmt"

	"road-defect-go/pkg/models"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

// Publisher публикует события о найденных дефектах для downstream потребителей
type Publisher interface {
	PublishDefectFound(event models.DefectFoundEvent) error
	Close()
}

// KafkaPublisher реализация Publisher поверх Kafka
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	logger   *logrus.Logger
}

// NewKafkaPublisher создает продюсер для топика событий дефектов
func NewKafkaPublisher(bootstrapServers, topic string, logger *logrus.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"acks":               "all",
		"enable.idempotence": true,
		"request.timeout.ms": 30000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}

	// Отчёты о доставке обрабатываем в фоне, публикация не блокируется
	go p.handleDeliveryReports()

	logger.Infof("Kafka продюсер инициализирован: топик %s, серверы %s", topic, bootstrapServers)
	return p, nil
}

// handleDeliveryReports логирует подтверждения доставки
func (p *KafkaPublisher) handleDeliveryReports() {
	for e := range p.producer.Events() {
		m, ok := e.(*kafka.Message)
		if !ok {
			continue
		}

		if m.TopicPartition.Error != nil {
			p.logger.Errorf("Доставка события не удалась: %v", m.TopicPartition.Error)
		} else {
			p.logger.Debugf("Событие доставлено: партиция %d, offset %v",
				m.TopicPartition.Partition, m.TopicPartition.Offset)
		}
	}
}

// PublishDefectFound отправляет событие о найденном дефекте
func (p *KafkaPublisher) PublishDefectFound(event models.DefectFoundEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal defect event: %w", err)
	}

	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.ReportID),
		Value: payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce defect event: %w", err)
	}

	return nil
}

// Close дожидается отправки буферизованных событий и закрывает продюсер
func (p *KafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
