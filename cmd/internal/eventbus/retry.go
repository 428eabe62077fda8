package eventbus

import (
	"context"
	"fmt"
	"time"

	"sitecms/cmd/internal/logger"
)

// Handler 는 구독한 이벤트 하나를 처리한다. 에러를 돌려주면 재시도 토픽으로 보낸다.
type Handler func(ctx context.Context, evt Event) error

// Topic 은 기본 토픽과 그 재시도/DLQ 토픽 이름을 묶는다.
type Topic string

func (t Topic) Base() string  { return string(t) }
func (t Topic) Retry() string { return string(t) + ".retry" }
func (t Topic) DLQ() string   { return string(t) + ".dlq" }

// RetryPolicy 는 실패한 이벤트의 재시도 횟수와 재주입 지연을 정한다.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Next 는 실패한 이벤트가 다음에 갈 토픽을 결정한다.
func (p RetryPolicy) Next(topic Topic, evt Event, cause error) (string, Event) {
	evt.LastError = cause.Error()
	if evt.Attempt+1 >= p.MaxAttempts {
		return topic.DLQ(), evt
	}
	evt.Attempt++
	return topic.Retry(), evt
}

// ReadyIn 은 produced 시각에 재시도 토픽에 쓰인 메시지를 재주입하기까지 남은 시간이다.
func (p RetryPolicy) ReadyIn(produced, now time.Time) time.Duration {
	if wait := produced.Add(p.Delay).Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Dispatch 는 handler 를 실행하고 실패하면 재시도 또는 DLQ 토픽에 발행한다.
// nil 을 돌려주면 오프셋을 커밋해도 된다.
func Dispatch(ctx context.Context, pub Publisher, topic Topic, policy RetryPolicy, handler Handler, evt Event) error {
	err := handler(ctx, evt)
	if err == nil {
		return nil
	}

	next, failed := policy.Next(topic, evt, err)
	fields := logger.Fields{"event_id": evt.ID, "type": evt.Type, "attempt": failed.Attempt, "topic": next, "error": err.Error()}
	if next == topic.DLQ() {
		logger.ErrorWithFields("event exhausted retries, sending to dlq", fields)
	} else {
		logger.WarnWithFields("event handling failed, scheduling retry", fields)
	}

	if perr := pub.Publish(ctx, next, failed); perr != nil {
		return fmt.Errorf("%s 발행 실패: %w", next, perr)
	}
	return nil
}
