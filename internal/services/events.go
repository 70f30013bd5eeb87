package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digichef/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusChangedMessage — событие смены статуса статьи, публикуется в RabbitMQ
// после каждой успешной операции жизненного цикла.
type StatusChangedMessage struct {
	Event     string               `json:"event"`
	Timestamp time.Time            `json:"timestamp"`
	ArticleID int64                `json:"article_id"`
	From      models.ArticleStatus `json:"from"`
	To        models.ArticleStatus `json:"to"`
	Score     *int                 `json:"score,omitempty"`
}

type RabbitPublisher struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

var _ StatusNotifier = (*RabbitPublisher)(nil)

func NewRabbitPublisher(uri, exchange, routingKey string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: ошибка подключения: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: ошибка создания канала: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: ошибка объявления exchange: %w", err)
	}

	return &RabbitPublisher{
		conn:       conn,
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *RabbitPublisher) PublishStatusChanged(ctx context.Context, a *models.Article, from models.ArticleStatus) error {
	body, err := json.Marshal(StatusChangedMessage{
		Event:     "article.status_changed",
		Timestamp: time.Now().UTC(),
		ArticleID: a.ID,
		From:      from,
		To:        a.Status,
		Score:     a.Score,
	})
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
}
