package event

// BaseEvent notifies every listener with the emitted data. The zero value is ready to use.
type BaseEvent[T any] struct {
	s subscribable[func(T)]
}

// Subscribe registers a listener under the given token.
func (e *BaseEvent[T]) Subscribe(token any, listener func(data T)) {
	e.s.subscribe(token, listener)
}

// Unsubscribe removes every listener registered under the given token.
func (e *BaseEvent[T]) Unsubscribe(token any) {
	e.s.unsubscribe(token)
}

// Subscribed returns true if a listener is registered under the token.
func (e *BaseEvent[T]) Subscribed(token any) bool {
	return e.s.subscribed(token)
}

// Emit calls every listener, including the listeners of attached proxies.
func (e *BaseEvent[T]) Emit(data T) {
	for _, listener := range e.s.listeners() {
		listener(data)
	}
}

// Attach makes the listeners of this event run whenever source is emitted.
func (e *BaseEvent[T]) Attach(source *BaseEvent[T]) {
	source.s.attachTo(&e.s)
}

// Detach reverses Attach.
func (e *BaseEvent[T]) Detach(source *BaseEvent[T]) {
	source.s.detachFrom(&e.s)
}

// PreventableEvent lets any listener veto the action the event announces. Listeners receive a prevent function; the
// first listener calling it stops the emission.
type PreventableEvent[T any] struct {
	s subscribable[func(T, func())]
}

// Subscribe registers a listener under the given token.
func (e *PreventableEvent[T]) Subscribe(token any, listener func(data T, prevent func())) {
	e.s.subscribe(token, listener)
}

// Unsubscribe removes every listener registered under the given token.
func (e *PreventableEvent[T]) Unsubscribe(token any) {
	e.s.unsubscribe(token)
}

// Subscribed returns true if a listener is registered under the token.
func (e *PreventableEvent[T]) Subscribed(token any) bool {
	return e.s.subscribed(token)
}

// Emit calls the listeners in order and returns true if one of them prevented the action.
func (e *PreventableEvent[T]) Emit(data T) (prevented bool) {
	prevent := func() {
		prevented = true
	}
	for _, listener := range e.s.listeners() {
		listener(data, prevent)
		if prevented {
			return true
		}
	}
	return false
}

// Attach makes the listeners of this event run whenever source is emitted.
func (e *PreventableEvent[T]) Attach(source *PreventableEvent[T]) {
	source.s.attachTo(&e.s)
}

// Detach reverses Attach.
func (e *PreventableEvent[T]) Detach(source *PreventableEvent[T]) {
	source.s.detachFrom(&e.s)
}
