package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/possync/internal/models"
)

// Kind тип события шины.
type Kind string

const (
	// KindDataUpdated локальная копия ресурса изменилась
	KindDataUpdated Kind = "data_updated"
	// KindDataCreated появилась новая локальная запись
	KindDataCreated Kind = "data_created"
	// KindDataDeleted локальная запись удалена
	KindDataDeleted Kind = "data_deleted"
	// KindSyncCompleted цикл синхронизации завершился
	KindSyncCompleted Kind = "sync_completed"
	// KindRefreshRequested запрошено немедленное обновление данных
	KindRefreshRequested Kind = "refresh_requested"
)

// Message событие, разосланное всем подписчикам шины.
type Message struct {
	Kind     Kind
	Resource models.ResourceType
	// EntityID id затронутой записи, "" для событий уровня ресурса
	EntityID string
	// Result итоги цикла, заполняется для KindSyncCompleted
	Result *models.SyncResult
	// At момент публикации, проставляется шиной
	At time.Time
}

// Bus рассылает события об изменении данных всем активным подписчикам.
// Публикация никогда не блокируется: подписчик, не успевающий читать,
// теряет события, а не тормозит отправителя. Подписчики обязаны уметь
// восстановить состояние перечитыванием хранилища.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Message
	closed bool
}

const subscriberBuffer = 16

// NewBus creates a new broadcast bus
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[int]chan Message),
	}
}

// Subscribe регистрирует подписчика. Канал закрывается при отмене ctx
// или закрытии шины.
func (b *Bus) Subscribe(ctx context.Context) <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	go func() {
		<-ctx.Done()
		b.unsubscribe(id)
	}()

	return ch
}

// Publish рассылает событие всем подписчикам без блокировки.
func (b *Bus) Publish(msg Message) {
	if msg.At.IsZero() {
		msg.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			// Переполненный подписчик пропускает событие
			b.logger.Debug("broadcast subscriber overflow, message dropped",
				"subscriber", id,
				"kind", msg.Kind)
		}
	}
}

// Close закрывает шину и каналы всех подписчиков.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}
