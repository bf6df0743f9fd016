package kafka

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/IBM/sarama"
)

// TopicSpec параметры топика, который должен существовать
type TopicSpec struct {
	Name              string
	NumPartitions     int32
	ReplicationFactor int16
}

// NewClusterAdmin создает админ-клиент для тех же брокеров, что и продюсер
func NewClusterAdmin(cfg *Config) (sarama.ClusterAdmin, error) {
	admin, err := sarama.NewClusterAdmin(cfg.Brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("kafka: failed to create cluster admin: %w", err)
	}
	return admin, nil
}

// EnsureTopics проверяет и создает необходимые топики Kafka.
func EnsureTopics(admin sarama.ClusterAdmin, topics []TopicSpec, log *logger.Logger) error {
	log.Infow("Ensuring Kafka topics exist...", "topics", topicNames(topics))

	existing, err := admin.ListTopics()
	if err != nil {
		log.Errorw("Failed to list Kafka topics", "error", err)
		return fmt.Errorf("kafka list topics failed: %w", err)
	}
	log.Debugw("Found existing topics", "count", len(existing))

	var created []string
	for _, t := range topics {
		if _, ok := existing[t.Name]; ok {
			log.Debugw("Topic already exists", "topic", t.Name)
			continue
		}

		detail := &sarama.TopicDetail{
			NumPartitions:     t.NumPartitions,
			ReplicationFactor: t.ReplicationFactor,
		}
		if err := admin.CreateTopic(t.Name, detail, false); err != nil {
			// топик мог создать другой экземпляр сервиса
			if errors.Is(err, sarama.ErrTopicAlreadyExists) {
				log.Warnw("Topic already existed during creation attempt", "topic", t.Name)
				continue
			}
			log.Errorw("Failed to create topic", "topic", t.Name, "error", err)
			return fmt.Errorf("kafka create topic %s failed: %w", t.Name, err)
		}
		created = append(created, t.Name)
	}

	if len(created) > 0 {
		log.Infow("Successfully created topics", "topics", created)
	} else {
		log.Infow("All required topics already exist.")
	}
	return nil
}

func topicNames(topics []TopicSpec) []string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}
