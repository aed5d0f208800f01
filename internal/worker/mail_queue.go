package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serviceinfo/serviceinfo/internal/mail"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/metrics"
)

var (
	// ErrQueueFull is returned when the mail queue cannot accept more messages
	ErrQueueFull = errors.New("mail queue is full")
	// ErrQueueClosed is returned after Stop
	ErrQueueClosed = errors.New("mail queue is closed")
)

// MailQueue delivers mail in the background so requests never wait on SMTP
type MailQueue struct {
	sender  mail.Sender
	queue   chan mail.Message
	timeout time.Duration
	logger  *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMailQueue creates a new mail queue worker
func NewMailQueue(sender mail.Sender, size int, log *logger.Logger) *MailQueue {
	if size <= 0 {
		size = 100
	}
	return &MailQueue{
		sender:  sender,
		queue:   make(chan mail.Message, size),
		timeout: 30 * time.Second,
		logger:  log,
	}
}

// Start begins delivering queued mail until Stop is called
func (q *MailQueue) Start(ctx context.Context) {
	q.logger.Info("Starting mail queue worker")

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for msg := range q.queue {
			q.deliver(ctx, msg)
		}
		q.logger.Info("Mail queue worker stopped")
	}()
}

// Enqueue schedules msg for delivery without blocking
func (q *MailQueue) Enqueue(msg mail.Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.queue <- msg:
		return nil
	default:
		metrics.RecordMail(msg.Kind, ErrQueueFull)
		return ErrQueueFull
	}
}

// Stop stops accepting mail and waits until the queued messages are delivered
func (q *MailQueue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.queue)
	}
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *MailQueue) deliver(ctx context.Context, msg mail.Message) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout)
	defer cancel()

	err := q.sender.Send(sendCtx, msg)
	metrics.RecordMail(msg.Kind, err)

	fields := map[string]interface{}{
		"to":   msg.To,
		"kind": msg.Kind,
	}
	if err != nil {
		q.logger.WithFields(fields).ErrorWithErr(err, "Failed to deliver mail")
		return
	}
	q.logger.WithFields(fields).Debug("Mail delivered")
}
