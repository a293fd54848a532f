package models

// SyncResult итоги одного цикла синхронизации.
type SyncResult struct {
	// LeaseSkipped цикл пропущен: синхронизацию ведет другой процесс
	LeaseSkipped bool
	// ReferenceRefreshed справочные данные (меню, категории) обновлены
	ReferenceRefreshed bool

	DrainedOperations  int // операций очереди подтверждено сервером
	FailedOperations   int // операций получило отказ в этом цикле
	RefreshedOrders    int // заказов обновлено с сервера
	RefreshedCustomers int // клиентов обновлено с сервера
	Conflicts          int // заказов прошло через разрешение конфликтов
}
