// services/notifier.go - Notification outbox and live event fan-out
package services

import (
	"log"
	"sync"

	"gorm.io/gorm"

	"civicsync/models"
)

// NotificationStore persists user-visible notifications so they survive agent
// restarts.
type NotificationStore interface {
	Save(n *models.Notification) error
	Recent(limit int) ([]models.Notification, error)
	MarkRead(id uint) error
}

// Notifier persists notifications and fans them out to connected WebSocket
// clients. A slow or gone subscriber never blocks an award step; its frame is
// dropped.
type Notifier struct {
	store NotificationStore

	mu     sync.Mutex
	nextID int
	subs   map[int]chan models.Notification
}

// NewNotifier creates a notifier over the given store.
func NewNotifier(store NotificationStore) *Notifier {
	return &Notifier{
		store: store,
		subs:  make(map[int]chan models.Notification),
	}
}

// Publish persists the notification and pushes it to all subscribers.
func (n *Notifier) Publish(notification models.Notification) {
	if err := n.store.Save(&notification); err != nil {
		log.Printf("❌ Failed to persist notification: %v", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- notification:
		default:
		}
	}
}

// Subscribe registers a live listener and returns its id and channel.
func (n *Notifier) Subscribe() (int, <-chan models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	ch := make(chan models.Notification, 16)
	n.subs[n.nextID] = ch
	return n.nextID, ch
}

// Unsubscribe removes a listener.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.subs[id]; ok {
		delete(n.subs, id)
		close(ch)
	}
}

// Recent returns the latest persisted notifications, newest first.
func (n *Notifier) Recent(limit int) ([]models.Notification, error) {
	return n.store.Recent(limit)
}

// MarkRead flags one notification as seen.
func (n *Notifier) MarkRead(id uint) error {
	return n.store.MarkRead(id)
}

// gormNotificationStore is the production NotificationStore.
type gormNotificationStore struct {
	db *gorm.DB
}

// NewGormNotificationStore wraps a GORM handle as a NotificationStore.
func NewGormNotificationStore(db *gorm.DB) NotificationStore {
	return &gormNotificationStore{db: db}
}

func (s *gormNotificationStore) Save(n *models.Notification) error {
	return s.db.Create(n).Error
}

func (s *gormNotificationStore) Recent(limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *gormNotificationStore) MarkRead(id uint) error {
	return s.db.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}
