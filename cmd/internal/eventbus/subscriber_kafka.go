package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"sitecms/cmd/internal/logger"
)

const pollTimeout = 100 * time.Millisecond

// KafkaSubscriber 는 수동 커밋 컨슈머로 토픽을 읽는다. 실패한 이벤트는 Publisher 로 재시도/DLQ 토픽에 보낸다.
type KafkaSubscriber struct {
	Brokers string
	Policy  RetryPolicy
	Pub     Publisher
}

func (s *KafkaSubscriber) newConsumer(groupID string, topics ...string) (*kafka.Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":             s.Brokers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false,
		"partition.assignment.strategy": "range",
	})
	if err != nil {
		return nil, fmt.Errorf("kafka Consumer 생성 실패: %w", err)
	}
	if err := c.SubscribeTopics(topics, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("토픽 구독 실패 %v: %w", topics, err)
	}
	return c, nil
}

// read 는 메시지 하나를 기다린다. 타임아웃이면 (nil, nil).
func read(c *kafka.Consumer) (*kafka.Message, error) {
	msg, err := c.ReadMessage(pollTimeout)
	if err == nil {
		return msg, nil
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		if kerr.Code() == kafka.ErrTimedOut {
			return nil, nil
		}
		if kerr.IsFatal() {
			return nil, err
		}
	}
	logger.ErrorWithFields("kafka read failed", logger.Fields{"error": err.Error()})
	return nil, nil
}

func decode(c *kafka.Consumer, msg *kafka.Message) (Event, bool) {
	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		logger.ErrorWithFields("malformed event skipped", logger.Fields{"topic": *msg.TopicPartition.Topic, "error": err.Error()})
		_, _ = c.CommitMessage(msg)
		return Event{}, false
	}
	return evt, true
}

// Subscribe 는 기본 토픽을 구독하고 ctx 가 끝날 때까지 handler 를 실행한다.
func (s *KafkaSubscriber) Subscribe(ctx context.Context, groupID string, topic Topic, handler Handler) error {
	c, err := s.newConsumer(groupID, topic.Base())
	if err != nil {
		return err
	}
	defer c.Close()
	logger.InfoWithFields("consumer started", logger.Fields{"group": groupID, "topic": topic.Base()})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := read(c)
		if err != nil {
			return fmt.Errorf("컨슈머 치명적 오류: %w", err)
		}
		if msg == nil {
			continue
		}
		evt, ok := decode(c, msg)
		if !ok {
			continue
		}

		if err := Dispatch(ctx, s.Pub, topic, s.Policy, handler, evt); err != nil {
			logger.ErrorWithFields("retry publish failed, offset not committed", logger.Fields{"event_id": evt.ID, "error": err.Error()})
			if err := seekBack(c, msg); err != nil {
				return err
			}
			continue
		}
		if _, err := c.CommitMessage(msg); err != nil {
			logger.ErrorWithFields("offset commit failed", logger.Fields{"error": err.Error()})
		}
	}
}

// Reinject 는 재시도 토픽의 메시지를 Policy.Delay 가 지난 뒤 기본 토픽으로 되돌린다.
func (s *KafkaSubscriber) Reinject(ctx context.Context, groupID string, topic Topic) error {
	c, err := s.newConsumer(groupID, topic.Retry())
	if err != nil {
		return err
	}
	defer c.Close()
	logger.InfoWithFields("retry reinjector started", logger.Fields{"group": groupID, "topic": topic.Retry()})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := read(c)
		if err != nil {
			return fmt.Errorf("재주입 컨슈머 치명적 오류: %w", err)
		}
		if msg == nil {
			continue
		}

		if wait := s.Policy.ReadyIn(msg.Timestamp, time.Now()); wait > 0 {
			// 파티션 순서를 지키기 위해 이 메시지가 준비될 때까지 기다린다.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		evt, ok := decode(c, msg)
		if !ok {
			continue
		}
		if err := s.Pub.Publish(ctx, topic.Base(), evt); err != nil {
			logger.ErrorWithFields("reinject failed, offset not committed", logger.Fields{"event_id": evt.ID, "error": err.Error()})
			if err := seekBack(c, msg); err != nil {
				return err
			}
			continue
		}
		logger.InfoWithFields("event reinjected", logger.Fields{"event_id": evt.ID, "attempt": evt.Attempt, "topic": topic.Base()})
		if _, err := c.CommitMessage(msg); err != nil {
			logger.ErrorWithFields("offset commit failed", logger.Fields{"error": err.Error()})
		}
	}
}

// seekBack 는 커밋하지 않은 msg 를 다음 poll 에서 다시 읽도록 되감는다.
func seekBack(c *kafka.Consumer, msg *kafka.Message) error {
	tp := msg.TopicPartition
	if err := c.Seek(tp, int(pollTimeout/time.Millisecond)); err != nil {
		return fmt.Errorf("오프셋 되감기 실패: %w", err)
	}
	return nil
}

// EnsureTopics 는 기본, 재시도, DLQ 토픽을 만든다. 이미 있는 토픽은 성공으로 본다.
func EnsureTopics(ctx context.Context, brokers string, topic Topic, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return fmt.Errorf("AdminClient 생성 실패: %w", err)
	}
	defer admin.Close()

	specs := []kafka.TopicSpecification{
		{Topic: topic.Base(), NumPartitions: partitions, ReplicationFactor: 1},
		{Topic: topic.Retry(), NumPartitions: partitions, ReplicationFactor: 1},
		{Topic: topic.DLQ(), NumPartitions: 1, ReplicationFactor: 1},
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("토픽 생성 요청 실패: %w", err)
	}
	for _, r := range results {
		if code := r.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("토픽 %s 생성 실패: %v", r.Topic, r.Error)
		}
	}
	return nil
}
