// Package notify 提供值班事件广播
//
// 预约认领、换班审批等事件发布到 Redis 频道，供排班看板和
// 消息推送服务订阅。发布失败只记日志，不影响主流程。
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhiban/zhiban/internal/config"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
)

// 事件类型
const (
	EventShiftAssigned        = "shift_assigned"
	EventSwapRequested        = "swap_requested"
	EventSwapDecided          = "swap_decided"
	EventReservationClaimed   = "reservation_claimed"
	EventReservationCancelled = "reservation_cancelled"
)

// Event 值班事件
type Event struct {
	Type      string      `json:"type"`
	Hospital  string      `json:"hospital"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// RedisPublisher 基于 Redis PUB/SUB 的事件发布器
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher 创建 Redis 发布器并测试连通性
func NewRedisPublisher(cfg *config.RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("channel", cfg.Channel).
		Msg("Redis 事件通道就绪")

	return &RedisPublisher{client: client, channel: cfg.Channel}, nil
}

// Publish 发布事件，序列化或发送失败只记日志
func (p *RedisPublisher) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.WithError(err).Str("type", event.Type).Msg("事件序列化失败")
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.client.Publish(pubCtx, p.channel, data).Err(); err != nil {
		logger.WithError(err).Str("type", event.Type).Msg("事件发布失败")
	}
}

// Close 关闭 Redis 连接
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher 空发布器，未启用 Redis 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) {}
func (NopPublisher) Close() error                             { return nil }

// EventNotifier 把发布器适配成预约/换班模块的通知接口
type EventNotifier struct {
	publisher Publisher
}

// NewEventNotifier 创建事件通知适配器
func NewEventNotifier(publisher Publisher) *EventNotifier {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &EventNotifier{publisher: publisher}
}

// ReservationClaimed 预约认领事件
func (n *EventNotifier) ReservationClaimed(ctx context.Context, r *model.Reservation) {
	n.publisher.Publish(ctx, Event{
		Type:     EventReservationClaimed,
		Hospital: r.Hospital,
		Payload:  r,
	})
}

// ReservationCancelled 预约取消事件
func (n *EventNotifier) ReservationCancelled(ctx context.Context, r *model.Reservation) {
	n.publisher.Publish(ctx, Event{
		Type:     EventReservationCancelled,
		Hospital: r.Hospital,
		Payload:  r,
	})
}

// SwapRequested 换班申请事件
func (n *EventNotifier) SwapRequested(ctx context.Context, sw *model.SwapRequest) {
	n.publisher.Publish(ctx, Event{
		Type:     EventSwapRequested,
		Hospital: sw.Hospital,
		Payload:  sw,
	})
}

// SwapDecided 换班审批事件
func (n *EventNotifier) SwapDecided(ctx context.Context, sw *model.SwapRequest) {
	n.publisher.Publish(ctx, Event{
		Type:     EventSwapDecided,
		Hospital: sw.Hospital,
		Payload:  sw,
	})
}

// ShiftsAssigned 值班表生成事件，逐月广播一次
func (n *EventNotifier) ShiftsAssigned(ctx context.Context, hospital string, shifts []*model.Shift) {
	if len(shifts) == 0 {
		return
	}
	n.publisher.Publish(ctx, Event{
		Type:     EventShiftAssigned,
		Hospital: hospital,
		Payload:  map[string]interface{}{"count": len(shifts), "shifts": shifts},
	})
}
