package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkordes/claimtrack/internal/domain"
)

// ClaimsIndex is the index name claims are mirrored under.
const ClaimsIndex = "claims"

// Document is anything the syncer can upsert: it has an ID and a JSON form.
type Document interface {
	ID() string
}

// Syncer upserts documents into one named index in the background.
type Syncer struct {
	idx     Index
	name    string
	log     *slog.Logger
	timeout time.Duration
	puts    *prometheus.CounterVec

	wg sync.WaitGroup
}

// NewSyncer returns a Syncer writing to idx under name. Put counters are
// registered with reg when it is non-nil; a collector already registered by
// another Syncer is reused.
func NewSyncer(idx Index, name string, log *slog.Logger, reg prometheus.Registerer) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	puts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "claimtrack_remote_puts_total",
		Help: "Remote index document writes by index and result.",
	}, []string{"index", "result"})
	if reg != nil {
		if err := reg.Register(puts); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				puts = are.ExistingCollector.(*prometheus.CounterVec)
			} else {
				log.Warn("registering remote metrics failed", "error", err)
			}
		}
	}
	return &Syncer{idx: idx, name: name, log: log, timeout: 30 * time.Second, puts: puts}
}

// SaveAll upserts every item on its own goroutine and returns immediately.
// Each item is written to "<index>/<id>.json". Failures are logged and
// counted, never returned.
func (s *Syncer) SaveAll(items []Document) {
	if len(items) == 0 {
		return
	}
	docs := make(map[string][]byte, len(items))
	for _, it := range items {
		body, err := json.Marshal(it)
		if err != nil {
			s.log.Error("encoding remote document failed", "index", s.name, "id", it.ID(), "error", err)
			s.puts.WithLabelValues(s.name, "error").Inc()
			continue
		}
		docs[DocumentKey(s.name, it.ID())] = body
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		for key, body := range docs {
			if err := s.idx.Put(ctx, key, body); err != nil {
				s.log.Error("remote put failed", "index", s.name, "key", key, "error", err)
				s.puts.WithLabelValues(s.name, "error").Inc()
				continue
			}
			s.puts.WithLabelValues(s.name, "ok").Inc()
		}
	}()
}

// SaveClaims mirrors claims into the index.
func (s *Syncer) SaveClaims(claims []domain.Claim) {
	items := make([]Document, len(claims))
	for i, c := range claims {
		items[i] = c
	}
	s.SaveAll(items)
}

// Wait blocks until every dispatched SaveAll call has finished.
func (s *Syncer) Wait() { s.wg.Wait() }

// ReadAll loads up to limit documents from index name, in key order, decoding
// each into T. The limit bounds the listing itself. Documents that cannot be
// fetched or decoded are skipped with a warning on log. A limit of zero or
// less means no limit.
func ReadAll[T any](ctx context.Context, idx Index, name string, limit int, log *slog.Logger) ([]T, error) {
	if log == nil {
		log = slog.Default()
	}
	keys, err := idx.List(ctx, name+"/", limit)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(keys))
	for _, key := range keys {
		body, err := idx.Get(ctx, key)
		if err != nil {
			log.WarnContext(ctx, "skipping unreadable remote document", "key", key, "error", err)
			continue
		}
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			log.WarnContext(ctx, "skipping undecodable remote document", "key", key, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
