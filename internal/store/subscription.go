package store

import (
	"context"
	"sync"
)

// Subscription живой запрос: первый снимок сразу, далее после каждого изменения коллекции.
// Снимки, которые никто не успел прочитать, схлопываются в последний.
type Subscription struct {
	ch     chan []Document
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// C канал снимков; закрывается после Close или ошибки запроса
func (s *Subscription) C() <-chan []Document {
	return s.ch
}

// Close отменяет подписку и ждёт завершения её горутины
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Err ошибка, из-за которой подписка завершилась сама
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type fetchFunc func(ctx context.Context) ([]Document, error)

func startSubscription(ctx context.Context, signals <-chan struct{}, unsubscribe func(), fetch fetchFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ch:     make(chan []Document, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer close(sub.ch)
		defer unsubscribe()

		for {
			docs, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					sub.setErr(err)
				}
				return
			}
			sub.deliver(docs)

			select {
			case <-signals:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub
}

// deliver заменяет непрочитанный снимок свежим
func (s *Subscription) deliver(docs []Document) {
	for {
		select {
		case s.ch <- docs:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// hub раздаёт сигналы об изменениях коллекций подписчикам
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan struct{}]struct{})}
}

func (h *hub) subscribe(collection string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[chan struct{}]struct{})
	}
	h.subs[collection][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.subs[collection], ch)
		if len(h.subs[collection]) == 0 {
			delete(h.subs, collection)
		}
		h.mu.Unlock()
	}
}

func (h *hub) publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[collection] {
		signal(ch)
	}
}

func (h *hub) publishAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.subs {
		for ch := range subs {
			signal(ch)
		}
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
