package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"equipment-tracker-backend/internal/store"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending equipment down alerts.
type WorkerPool struct {
	size    int
	jobs    chan int
	store   store.Store
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int, size), // Buffered channel
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case equipmentID := <-wp.jobs:
			log.Printf("Worker %d processing equipment %d", id, equipmentID)
			wp.sendAlertsForEquipment(ctx, equipmentID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job for the worker pool. When the queue is full the job
// is dropped; the state-change write path is never gated on alert delivery.
func (wp *WorkerPool) Dispatch(equipmentID int) {
	select {
	case wp.jobs <- equipmentID:
	default:
		log.Printf("Alert queue full, dropping alert for equipment %d", equipmentID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int {
	return wp.jobs
}

// sendAlertsForEquipment fetches subscriptions and sends alerts for a given
// equipment unit.
func (wp *WorkerPool) sendAlertsForEquipment(ctx context.Context, equipmentID int) {
	subscriptions, err := wp.store.SubscriptionsForEquipment(ctx, equipmentID)
	if err != nil {
		log.Printf("Error fetching subscriptions for equipment %d: %v", equipmentID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d alerts for equipment %d", len(subscriptions), equipmentID)

	label := fmt.Sprintf("%d", equipmentID)
	if equipment, err := wp.store.GetEquipment(ctx, equipmentID); err != nil {
		log.Printf("Error fetching equipment %d: %v", equipmentID, err)
	} else if equipment.Name != "" {
		label = equipment.Name
	}

	message := fmt.Sprintf("Equipment %s is down and needs attention", label)
	for _, sub := range subscriptions {
		wp.sendAlert(ctx, sub.Endpoint, sub.P256DH, sub.Auth, []byte(message))
	}
}

// sendAlert sends a single web push notification.
func (wp *WorkerPool) sendAlert(ctx context.Context, endpoint, p256dh, auth string, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending alert to %s: %v", endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", endpoint)
		if err := wp.store.DeleteSubscription(ctx, endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", endpoint, err)
		}
	}
}
