// Package badgerstore persists conversation transcripts in BadgerDB.
//
// Each event is stored under "transcript:{len}:{conversation}:{seq}" with the
// sequence number zero padded to 20 digits, so a prefix scan returns a
// conversation's events in append order. The id length keeps conversation
// prefixes disjoint for ids containing ':'. Values are JSON encoded
// core.Event.
//
// The highest sequence number handed out is kept under "transcript-seq:{len}:
// {conversation}" so it survives Clear. Several conversations may share one
// *badger.DB.
package badgerstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/transcript"
)

// Interface compliance (compile-time assertion)
var _ core.TranscriptStore = (*Store)(nil)

const (
	keyPrefix = "transcript:"
	seqPrefix = "transcript-seq:"
)

// Store is a durable core.TranscriptStore for one conversation.
type Store struct {
	db             *badger.DB
	conversationID string
	prefix         []byte
	seqKey         []byte
	log            logging.Logger

	mu  sync.Mutex
	seq uint64
	bus *transcript.Broadcaster
}

// Options configures a Store.
type Options struct {
	Logger           logging.Logger
	SubscriberBuffer int
}

// Open opens (or creates) a Badger database at path. An empty path opens an
// in-memory database.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// New binds a store to conversationID inside db. The sequence counter resumes
// after the highest stored event.
func New(db *badger.DB, conversationID string, optFns ...func(o *Options)) (*Store, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("badgerstore: conversation id is required")
	}
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	s := &Store{
		db:             db,
		conversationID: conversationID,
		prefix:         []byte(keyPrefix + scope(conversationID)),
		seqKey:         []byte(seqPrefix + scope(conversationID)),
		log:            logging.OrNoOp(opts.Logger),
		bus:            transcript.NewBroadcaster(opts.SubscriberBuffer),
	}
	seq, err := s.lastSeq()
	if err != nil {
		return nil, err
	}
	s.seq = seq
	return s, nil
}

// scope renders "{len}:{id}:".
func scope(conversationID string) string {
	return strconv.Itoa(len(conversationID)) + ":" + conversationID + ":"
}

func (s *Store) key(seq uint64) []byte {
	return fmt.Appendf(append([]byte(nil), s.prefix...), "%020d", seq)
}

// lastSeq returns the larger of the stored high-water mark and the newest
// event key.
func (s *Store) lastSeq() (uint64, error) {
	var last uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.seqKey)
		switch {
		case err == nil:
			if err := item.Value(func(v []byte) error {
				n, err := strconv.ParseUint(string(v), 10, 64)
				last = n
				return err
			}); err != nil {
				return fmt.Errorf("badgerstore: malformed sequence mark: %w", err)
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past every suffix.
		it.Seek(append(append([]byte(nil), s.prefix...), 0xff))
		if !it.ValidForPrefix(s.prefix) {
			return nil
		}
		suffix := string(it.Item().Key()[len(s.prefix):])
		n, err := strconv.ParseUint(suffix, 10, 64)
		if err != nil {
			return fmt.Errorf("badgerstore: malformed key suffix %q: %w", suffix, err)
		}
		last = max(last, n)
		return nil
	})
	return last, err
}

// Append persists ev with the next sequence number. Write failures are
// reported as core.ErrResourceExhausted.
func (s *Store) Append(ev core.Event) (core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.Seq = s.seq + 1
	if ev.ConversationID == "" {
		ev.ConversationID = s.conversationID
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return core.Event{}, fmt.Errorf("badgerstore: encode event: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.key(ev.Seq), value); err != nil {
			return err
		}
		return txn.Set(s.seqKey, strconv.AppendUint(nil, ev.Seq, 10))
	}); err != nil {
		s.log.Error("transcript append failed", "conversation_id", s.conversationID, "seq", ev.Seq, "error", err)
		return core.Event{}, fmt.Errorf("%w: %w", core.ErrResourceExhausted, err)
	}
	s.seq = ev.Seq
	s.bus.Publish(ev)
	return ev, nil
}

// Snapshot returns all stored events of the conversation in Seq order.
func (s *Store) Snapshot() ([]core.Event, error) {
	var events []core.Event
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(s.prefix); it.ValidForPrefix(s.prefix); it.Next() {
			var ev core.Event
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &ev)
			}); err != nil {
				return err
			}
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerstore: snapshot %s: %w", s.conversationID, err)
	}
	return events, nil
}

// Clear removes every event of the conversation. Sequence numbers keep
// increasing afterwards, also across reopen.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DropPrefix(s.prefix); err != nil {
		return fmt.Errorf("badgerstore: clear %s: %w", s.conversationID, err)
	}
	return nil
}

// Subscribe returns a channel receiving events appended from now on.
func (s *Store) Subscribe() (<-chan core.Event, func()) {
	return s.bus.Subscribe()
}

// Close ends all subscriptions. The database is owned by the caller.
func (s *Store) Close() error {
	s.bus.Close()
	return nil
}
