package netstatus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// Prober проверяет фактическую достижимость backend'а.
type Prober interface {
	Health(ctx context.Context) error
}

// минимальный интервал между пробами: локальный сигнал может дергаться
// часто, реальные запросы к health endpoint'у - нет
const probeMinInterval = 10 * time.Second

// Monitor отслеживает доступность сети. Локальный сигнал ОС о появлении
// сети считается подсказкой, а не фактом: переход в online подтверждается
// пробой health endpoint'а. Переход в offline принимается немедленно -
// лишний пессимизм дешевле ложного оптимизма.
type Monitor struct {
	prober Prober
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	online    bool
	lastProbe time.Time
	nextID    int
	subs      map[int]chan bool
}

// NewMonitor creates a new network status monitor.
// Начальное состояние - offline до первой успешной пробы.
func NewMonitor(prober Prober, logger *slog.Logger) *Monitor {
	return &Monitor{
		prober: prober,
		logger: logger,
		now:    time.Now,
		subs:   make(map[int]chan bool),
	}
}

// Online возвращает последнее известное состояние сети.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetLocalSignal принимает сигнал локального сетевого интерфейса.
// Потеря сети применяется сразу; появление сети только запускает пробу.
func (m *Monitor) SetLocalSignal(ctx context.Context, online bool) {
	if !online {
		m.transition(false)
		return
	}
	// Сигнал "сеть есть" не доказывает достижимость сервера
	m.Probe(ctx, false)
}

// ReportSuccess фиксирует успешный запрос к серверу: сеть точно есть.
func (m *Monitor) ReportSuccess() {
	m.transition(true)
}

// ReportConnectivityFailure фиксирует ошибку связности реального запроса.
func (m *Monitor) ReportConnectivityFailure() {
	m.transition(false)
}

// Probe выполняет пробу достижимости и возвращает итоговое состояние.
// Без force повторные пробы чаще probeMinInterval пропускаются.
func (m *Monitor) Probe(ctx context.Context, force bool) bool {
	m.mu.Lock()
	if !force && m.now().Sub(m.lastProbe) < probeMinInterval {
		online := m.online
		m.mu.Unlock()
		return online
	}
	m.lastProbe = m.now()
	m.mu.Unlock()

	// Одна быстрая повторная попытка сглаживает мигание сети
	backoff := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.prober.Health(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		m.logger.Debug("health probe failed", "error", err)
		m.transition(false)
		return false
	}

	m.transition(true)
	return true
}

// Subscribe возвращает канал переходов состояния сети (true - online).
// Доставка без блокировки: медленный подписчик теряет переходы.
func (m *Monitor) Subscribe(ctx context.Context) <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan bool, 4)
	id := m.nextID
	m.nextID++
	m.subs[id] = ch

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			close(sub)
			delete(m.subs, id)
		}
	}()

	return ch
}

// transition применяет новое состояние и оповещает подписчиков при смене
func (m *Monitor) transition(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	m.logger.Info("network status changed", "online", online)

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
		}
	}
}
