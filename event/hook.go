package event

// SequentialHook passes a value through every listener in registration order; each listener receives the result of
// the previous one.
type SequentialHook[T any] struct {
	s subscribable[func(T) T]
}

// Subscribe registers a transformation under the given token.
func (h *SequentialHook[T]) Subscribe(token any, listener func(data T) T) {
	h.s.subscribe(token, listener)
}

// Unsubscribe removes every transformation registered under the given token.
func (h *SequentialHook[T]) Unsubscribe(token any) {
	h.s.unsubscribe(token)
}

// Execute runs the chain. With no listeners the data is returned unchanged.
func (h *SequentialHook[T]) Execute(data T) T {
	for _, listener := range h.s.listeners() {
		data = listener(data)
	}
	return data
}

// Attach makes the listeners of this hook part of the chain of source, after the own listeners of source.
func (h *SequentialHook[T]) Attach(source *SequentialHook[T]) {
	source.s.attachTo(&h.s)
}

// Detach reverses Attach.
func (h *SequentialHook[T]) Detach(source *SequentialHook[T]) {
	source.s.detachFrom(&h.s)
}

// ParallelHook runs every listener against the same input and collects all results.
type ParallelHook[T any, R any] struct {
	s subscribable[func(T) R]
}

// Subscribe registers a listener under the given token.
func (h *ParallelHook[T, R]) Subscribe(token any, listener func(data T) R) {
	h.s.subscribe(token, listener)
}

// Unsubscribe removes every listener registered under the given token.
func (h *ParallelHook[T, R]) Unsubscribe(token any) {
	h.s.unsubscribe(token)
}

// Execute returns the result of every listener in registration order.
func (h *ParallelHook[T, R]) Execute(data T) []R {
	listeners := h.s.listeners()
	results := make([]R, len(listeners))
	for i, listener := range listeners {
		results[i] = listener(data)
	}
	return results
}

// Attach makes the listeners of this hook run whenever source is executed.
func (h *ParallelHook[T, R]) Attach(source *ParallelHook[T, R]) {
	source.s.attachTo(&h.s)
}

// Detach reverses Attach.
func (h *ParallelHook[T, R]) Detach(source *ParallelHook[T, R]) {
	source.s.detachFrom(&h.s)
}
