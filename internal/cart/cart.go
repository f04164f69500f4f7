// Package cart реализует корзину покупателя и реестр корзин сессий.
package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/boostmart/internal/model"
)

// Cart хранит выбранные покупателем услуги. Для каждой услуги в корзине не более одной позиции.
type Cart struct {
	mu    sync.Mutex
	items []model.CartItem
	now   func() time.Time
}

// New создаёт пустую корзину.
func New() *Cart {
	return &Cart{now: time.Now}
}

// AddItem добавляет услугу в корзину. Если услуга уже есть, увеличивает количество.
// Количество меньше единицы приводится к единице.
func (c *Cart) AddItem(service model.ServiceSnapshot, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(service.ID); i >= 0 {
		c.items[i].Quantity += quantity
		return
	}

	c.items = append(c.items, model.CartItem{
		ID:       uuid.NewString(),
		Service:  service,
		Quantity: quantity,
		AddedAt:  c.now().UTC(),
	})
}

// RemoveItem удаляет позицию услуги. Отсутствие позиции не является ошибкой.
func (c *Cart) RemoveItem(serviceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(serviceID)
}

// UpdateQuantity заменяет количество услуги. Неположительное количество удаляет позицию,
// а для услуги, которой нет в корзине, вызов ничего не делает.
func (c *Cart) UpdateQuantity(serviceID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity <= 0 {
		c.remove(serviceID)
		return
	}

	if i := c.indexOf(serviceID); i >= 0 {
		c.items[i].Quantity = quantity
	}
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
}

// Settle убирает из корзины оформленные позиции. Количество, добавленное после снятия
// снимка, остаётся в корзине. Без параллельных изменений результат совпадает с Clear.
func (c *Cart) Settle(lines []model.LineItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, li := range lines {
		i := c.indexOf(li.ServiceID)
		if i < 0 {
			continue
		}
		if c.items[i].Quantity <= li.Quantity {
			c.remove(li.ServiceID)
			continue
		}
		c.items[i].Quantity -= li.Quantity
	}
}

// Items возвращает копию позиций корзины в порядке добавления.
func (c *Cart) Items() []model.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]model.CartItem(nil), c.items...)
}

// Total возвращает сумму цен позиций с учётом количества.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemCount возвращает общее количество единиц услуг.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// IsEmpty сообщает, что корзина пуста.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items) == 0
}

// Snapshot копирует позиции корзины в позиции заказа.
func (c *Cart) Snapshot() []model.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]model.LineItem, 0, len(c.items))
	for _, it := range c.items {
		res = append(res, model.LineItem{
			ServiceID: it.Service.ID,
			Name:      it.Service.Title,
			Price:     it.Service.Price,
			Quantity:  it.Quantity,
		})
	}
	return res
}

func (c *Cart) indexOf(serviceID string) int {
	for i, it := range c.items {
		if it.Service.ID == serviceID {
			return i
		}
	}
	return -1
}

func (c *Cart) remove(serviceID string) {
	if i := c.indexOf(serviceID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}
