// Package event provides the publish/subscribe primitives the graph model uses to announce structural changes, to let
// listeners veto them, and to let listeners transform values in registration order.
//
// Every emitter can also act as a proxy: attaching a source emitter to a proxy makes the listeners of the proxy run
// whenever the source fires. The proxy does not subscribe to the source; instead the source collects the listeners of
// every attached proxy at the time it fires. This lets a higher-level owner (such as the editor) observe the events of
// many graphs and nodes without holding references to them, and lets attach and detach stay O(1) registrations.
//
// Tokens identify a subscription for later removal. They must be comparable values (pointers, strings, ...).
package event

type entry[F any] struct {
	token    any
	listener F
}

type subscribable[F any] struct {
	entries []entry[F]
	proxies []*subscribable[F]
}

func (s *subscribable[F]) subscribe(token any, listener F) {
	s.entries = append(s.entries, entry[F]{token, listener})
}

func (s *subscribable[F]) unsubscribe(token any) {
	entries := make([]entry[F], 0, len(s.entries))
	for _, e := range s.entries {
		if e.token != token {
			entries = append(entries, e)
		}
	}
	s.entries = entries
}

func (s *subscribable[F]) subscribed(token any) bool {
	for _, e := range s.entries {
		if e.token == token {
			return true
		}
	}
	return false
}

// listeners returns the own listeners followed by the listeners of every attached proxy, in attach order.
func (s *subscribable[F]) listeners() []F {
	result := make([]F, 0, len(s.entries))
	for _, e := range s.entries {
		result = append(result, e.listener)
	}
	for _, p := range s.proxies {
		result = append(result, p.listeners()...)
	}
	return result
}

func (s *subscribable[F]) attachTo(proxy *subscribable[F]) {
	if proxy == s {
		return
	}
	for _, p := range s.proxies {
		if p == proxy {
			return
		}
	}
	s.proxies = append(s.proxies, proxy)
}

func (s *subscribable[F]) detachFrom(proxy *subscribable[F]) {
	for i, p := range s.proxies {
		if p == proxy {
			s.proxies = append(s.proxies[:i:i], s.proxies[i+1:]...)
			return
		}
	}
}
