package cart

import "sync"

// Registry хранит корзины по идентификатору сессии.
type Registry struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewRegistry создаёт пустой реестр корзин.
func NewRegistry() *Registry {
	return &Registry{carts: make(map[string]*Cart)}
}

// Get возвращает корзину сессии, создавая пустую при первом обращении.
func (r *Registry) Get(sessionID string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[sessionID]
	if !ok {
		c = New()
		r.carts[sessionID] = c
	}
	return c
}

// Drop удаляет корзину сессии.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, sessionID)
}
