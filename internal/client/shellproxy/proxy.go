package shellproxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/cache"
	"github.com/iudanet/possync/internal/client/netstatus"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/models"
)

// SyncTrigger запускает внеочередной цикл синхронизации.
type SyncTrigger interface {
	Trigger()
}

// Upstream источник ассетов оболочки (обычно тот же backend).
type Upstream interface {
	Get(ctx context.Context, path string, params map[string]string) ([]byte, error)
}

// assetExtensions расширения статики оболочки, обслуживаемой cache-first
var assetExtensions = map[string]bool{
	".js":    true,
	".css":   true,
	".html":  true,
	".png":   true,
	".jpg":   true,
	".svg":   true,
	".ico":   true,
	".woff":  true,
	".woff2": true,
}

// cacheFirstPaths API пути, для которых свежесть не критична:
// закэшированный ответ отдается сразу, сеть не ждется
var cacheFirstPaths = []string{
	"/api/menu-items",
	"/api/categories",
	"/api/customers/search",
	"/api/tables/availability",
}

// Proxy локальная HTTP прослойка между оболочкой кассы и сетью.
// Статика и некритичные списки обслуживаются cache-first, остальные
// чтения - network-first с кэш-фоллбеком (его дает перехватчик).
// Мутация, не дошедшая до сервера из-за связности, превращается
// в отложенную операцию. Восстановление сети дергает синхронизацию.
type Proxy struct {
	interceptor *api.Interceptor
	cache       *cache.Service
	queue       *queue.Service
	records     storage.RecordStorage
	upstream    Upstream
	monitor     *netstatus.Monitor
	sync        SyncTrigger
	logger      *slog.Logger

	mu            sync.RWMutex
	activeVersion string
	// assets версия -> путь -> содержимое
	assets map[string]map[string][]byte
}

// New creates a new shell proxy
func New(interceptor *api.Interceptor, cacheService *cache.Service, queueService *queue.Service, records storage.RecordStorage, upstream Upstream, monitor *netstatus.Monitor, syncTrigger SyncTrigger, logger *slog.Logger) *Proxy {
	return &Proxy{
		interceptor: interceptor,
		cache:       cacheService,
		queue:       queueService,
		records:     records,
		upstream:    upstream,
		monitor:     monitor,
		sync:        syncTrigger,
		logger:      logger,
		assets:      make(map[string]map[string][]byte),
	}
}

// Handler возвращает маршрутизатор прокси.
func (p *Proxy) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /control/activate", p.handleActivate)
	mux.HandleFunc("POST /control/precache", p.handlePrecache)
	mux.HandleFunc("POST /control/purge", p.handlePurge)
	mux.HandleFunc("POST /control/sync", p.handleSyncTrigger)
	mux.HandleFunc("GET /control/status", p.handleStatus)
	mux.HandleFunc("/", p.handleRequest)
	return mux
}

// WatchNetwork дергает синхронизацию при восстановлении сети.
// Блокируется до отмены контекста.
func (p *Proxy) WatchNetwork(ctx context.Context) {
	transitions := p.monitor.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-transitions:
			if !ok {
				return
			}
			if online {
				p.logger.Info("connectivity restored, requesting sync")
				p.sync.Trigger()
			}
		}
	}
}

// handleRequest обслуживает обычный трафик оболочки
func (p *Proxy) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && isAsset(r.URL.Path) {
		p.serveAsset(w, r)
		return
	}

	if r.Method == http.MethodGet {
		p.serveRead(w, r)
		return
	}

	p.serveMutation(w, r)
}

// serveAsset отдает статику из активной версии кэша, при промахе
// тянет с upstream и кэширует
func (p *Proxy) serveAsset(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	version := p.activeVersion
	content, ok := p.assets[version][r.URL.Path]
	p.mu.RUnlock()

	if ok {
		w.Header().Set("X-Served-By", "asset-cache")
		writeBody(w, http.StatusOK, content)
		return
	}

	payload, err := p.upstream.Get(r.Context(), r.URL.Path, nil)
	if err != nil {
		p.logger.Warn("asset fetch failed", "path", r.URL.Path, "error", err)
		http.Error(w, "asset unavailable", http.StatusServiceUnavailable)
		return
	}

	p.storeAsset(version, r.URL.Path, payload)
	writeBody(w, http.StatusOK, payload)
}

// serveRead обслуживает GET к API. Допускающие устаревание списки
// обслуживаются cache-first, остальное - network-first (кэш-фоллбек
// при этом дает перехватчик).
func (p *Proxy) serveRead(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}

	if isCacheFirst(r.URL.Path) {
		if cached, err := p.cache.Get(r.Context(), http.MethodGet, r.URL.Path, params); err == nil {
			w.Header().Set("X-Served-By", "cache")
			w.Header().Set("Content-Type", "application/json")
			writeBody(w, http.StatusOK, cached)
			return
		}
	}

	result, err := p.interceptor.Get(r.Context(), r.URL.Path, params)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	if result.FromCache {
		w.Header().Set("X-Served-By", "cache")
	}
	w.Header().Set("Content-Type", "application/json")
	writeBody(w, http.StatusOK, result.Payload)
}

// serveMutation пропускает мутацию насквозь. Ошибки сервера уходят
// вызывающему как есть; чистая ошибка связности откладывает мутацию
// в очередь операций.
func (p *Proxy) serveMutation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	payload, err := p.interceptor.Do(r.Context(), r.Method, r.URL.Path, body)
	if err != nil {
		if api.IsConnectivity(err) {
			p.queueMutation(w, r, body)
			return
		}
		writeAPIError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeBody(w, http.StatusOK, payload)
}

// queueMutation откладывает мутацию до восстановления связи и отвечает
// локальным подтверждением. Создание заказа сразу получает локальную
// запись под временным id, чтобы оболочка показала заказ немедленно.
func (p *Proxy) queueMutation(w http.ResponseWriter, r *http.Request, body []byte) {
	op, ok := queue.Plan(r.Method, r.URL.Path, body)
	if !ok {
		// Нераспознанную мутацию безопасно не повторить
		http.Error(w, "backend unreachable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()

	if op.Type == models.OpTypeCreateOrder {
		localID := models.LocalIDPrefix + uuid.NewString()
		order, err := models.NewLocalOrder(localID, body, time.Now().UTC())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := p.records.SaveOrder(ctx, order); err != nil {
			p.logger.Error("failed to save offline order", "error", err)
			http.Error(w, "failed to save order locally", http.StatusInternalServerError)
			return
		}
		op.EntityID = localID
	} else {
		p.applyLocalEffect(ctx, op, body)
	}

	queued, err := p.queue.Enqueue(ctx, op)
	if err != nil {
		p.logger.Error("failed to enqueue offline operation", "error", err)
		http.Error(w, "failed to queue operation", http.StatusInternalServerError)
		return
	}

	p.logger.Info("mutation queued for sync",
		"type", queued.Type,
		"entity", queued.EntityID,
		"endpoint", queued.Endpoint)

	response := map[string]any{
		"queued": true,
		"synced": false,
	}
	if op.EntityID != "" {
		response["id"] = op.EntityID
	}

	w.Header().Set("X-Served-By", "queue")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(response)
}

// applyLocalEffect применяет отложенную мутацию к локальному снимку
// заказа. Флаг переопределения защищает результат от refresh, пока
// операция не подтверждена сервером.
func (p *Proxy) applyLocalEffect(ctx context.Context, op *models.PendingOperation, body []byte) {
	if op.EntityID == "" {
		return
	}

	order, err := p.records.GetOrder(ctx, op.EntityID)
	if err != nil {
		return
	}

	switch op.Type {
	case models.OpTypeUpdateOrderStatus:
		var req struct {
			Status models.OrderStatus `json:"status"`
		}
		if err := json.Unmarshal(body, &req); err != nil || req.Status == "" {
			return
		}
		order.Status = req.Status

	case models.OpTypeCancelOrder:
		order.Status = models.OrderStatusCancelled

	case models.OpTypeMarkAsPaid:
		order.PaymentStatus = models.PaymentStatusCompleted
		if order.Status != models.OrderStatusCancelled {
			order.Status = models.OrderStatusCompleted
		}

	default:
		return
	}

	order.LocallyOverridden = true
	order.UpdatedAt = time.Now().UTC()
	if err := p.records.SaveOrder(ctx, order); err != nil {
		p.logger.Warn("failed to apply local mutation", "order", op.EntityID, "error", err)
	}
}

type activateRequest struct {
	Version string `json:"version"`
}

// handleActivate переключает активную версию кэша ассетов
// и выбрасывает все прочие версии
func (p *Proxy) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Version == "" {
		http.Error(w, "version is required", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.activeVersion = req.Version
	for version := range p.assets {
		if version != req.Version {
			delete(p.assets, version)
		}
	}
	if p.assets[req.Version] == nil {
		p.assets[req.Version] = make(map[string][]byte)
	}
	p.mu.Unlock()

	p.logger.Info("asset cache version activated", "version", req.Version)
	w.WriteHeader(http.StatusNoContent)
}

type precacheRequest struct {
	Version string   `json:"version"`
	Paths   []string `json:"paths"`
}

// handlePrecache наполняет версию кэша ассетами оболочки заранее
func (p *Proxy) handlePrecache(w http.ResponseWriter, r *http.Request) {
	var req precacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Version == "" {
		http.Error(w, "version is required", http.StatusBadRequest)
		return
	}

	fetched := 0
	for _, assetPath := range req.Paths {
		payload, err := p.upstream.Get(r.Context(), assetPath, nil)
		if err != nil {
			p.logger.Warn("precache fetch failed", "path", assetPath, "error", err)
			continue
		}
		p.storeAsset(req.Version, assetPath, payload)
		fetched++
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"cached": fetched})
}

// handlePurge выбрасывает все версии кэша ассетов
func (p *Proxy) handlePurge(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.assets = make(map[string]map[string][]byte)
	p.mu.Unlock()

	p.logger.Info("asset cache purged")
	w.WriteHeader(http.StatusNoContent)
}

// handleSyncTrigger запускает внеочередную синхронизацию
func (p *Proxy) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	p.sync.Trigger()
	w.WriteHeader(http.StatusAccepted)
}

// handleStatus отдает состояние прокси
func (p *Proxy) handleStatus(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	version := p.activeVersion
	cached := len(p.assets[version])
	p.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"online":        p.monitor.Online(),
		"asset_version": version,
		"cached_assets": cached,
	})
}

func (p *Proxy) storeAsset(version, assetPath string, content []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.assets[version] == nil {
		p.assets[version] = make(map[string][]byte)
	}
	p.assets[version][assetPath] = content
}

// writeAPIError транслирует ошибку перехватчика в HTTP ответ
func writeAPIError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
		return
	}
	if api.IsConnectivity(err) {
		http.Error(w, "backend unreachable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func isAsset(requestPath string) bool {
	return assetExtensions[strings.ToLower(path.Ext(requestPath))]
}

func isCacheFirst(requestPath string) bool {
	for _, prefix := range cacheFirstPaths {
		if requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/") {
			return true
		}
	}
	return false
}
