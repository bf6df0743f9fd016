package kafka

import (
	"errors"
	"testing"

	"github.com/Dhoini/payform/pkg/logger"
	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdmin реализует только методы, которые вызывает EnsureTopics
type fakeAdmin struct {
	sarama.ClusterAdmin
	topics    map[string]sarama.TopicDetail
	created   []string
	listErr   error
	createErr map[string]error
}

func (f *fakeAdmin) ListTopics() (map[string]sarama.TopicDetail, error) {
	return f.topics, f.listErr
}

func (f *fakeAdmin) CreateTopic(topic string, detail *sarama.TopicDetail, validateOnly bool) error {
	if err := f.createErr[topic]; err != nil {
		return err
	}
	f.created = append(f.created, topic)
	f.topics[topic] = *detail
	return nil
}

var testTopics = []TopicSpec{
	{Name: "payment.submitted", NumPartitions: 3, ReplicationFactor: 1},
	{Name: "payment.resolved", NumPartitions: 3, ReplicationFactor: 1},
}

func TestEnsureTopicsCreatesMissing(t *testing.T) {
	admin := &fakeAdmin{topics: map[string]sarama.TopicDetail{
		"payment.submitted": {NumPartitions: 3},
	}}

	require.NoError(t, EnsureTopics(admin, testTopics, logger.NewNop()))
	assert.Equal(t, []string{"payment.resolved"}, admin.created)
	assert.Equal(t, int32(3), admin.topics["payment.resolved"].NumPartitions)
}

func TestEnsureTopicsToleratesRace(t *testing.T) {
	admin := &fakeAdmin{
		topics: map[string]sarama.TopicDetail{},
		createErr: map[string]error{
			"payment.submitted": &sarama.TopicError{Err: sarama.ErrTopicAlreadyExists},
		},
	}

	require.NoError(t, EnsureTopics(admin, testTopics, logger.NewNop()))
	assert.Equal(t, []string{"payment.resolved"}, admin.created)
}

func TestEnsureTopicsErrors(t *testing.T) {
	admin := &fakeAdmin{listErr: errors.New("no brokers")}
	assert.ErrorContains(t, EnsureTopics(admin, testTopics, logger.NewNop()), "no brokers")

	admin = &fakeAdmin{
		topics:    map[string]sarama.TopicDetail{},
		createErr: map[string]error{"payment.submitted": &sarama.TopicError{Err: sarama.ErrInvalidReplicationFactor}},
	}
	assert.Error(t, EnsureTopics(admin, testTopics, logger.NewNop()))
}
