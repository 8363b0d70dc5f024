package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/turtletrader/engine/pkg/types"
	"go.uber.org/zap"
)

// JSONStore is a file-backed implementation of every repository interface
// in this package, one JSON file per concern. It is meant for single-process
// deployments and tests; a relational store can implement the same
// interfaces without touching any caller.
type JSONStore struct {
	mu      sync.RWMutex
	logger  *zap.Logger
	dataDir string

	nValues   map[string]types.NValue
	trades    map[string]types.Trade
	positions map[string]types.Position
	events    map[string][]types.Event // keyed by RunID
}

// NewJSONStore creates dataDir if needed and loads any previously persisted
// state from it.
func NewJSONStore(logger *zap.Logger, dataDir string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &JSONStore{
		logger:    logger.Named("repo"),
		dataDir:   dataDir,
		nValues:   make(map[string]types.NValue),
		trades:    make(map[string]types.Trade),
		positions: make(map[string]types.Position),
		events:    make(map[string][]types.Event),
	}

	if err := s.load("n_values.json", &s.nValues); err != nil {
		return nil, err
	}
	if err := s.load("trades.json", &s.trades); err != nil {
		return nil, err
	}
	if err := s.load("positions.json", &s.positions); err != nil {
		return nil, err
	}
	if err := s.load("events.json", &s.events); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *JSONStore) load(filename string, dest any) error {
	path := filepath.Join(s.dataDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filename, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	return nil
}

func (s *JSONStore) persist(filename string, src any) error {
	path := filepath.Join(s.dataDir, filename)
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// LatestN returns the most recently saved N for symbol, or nil if none.
func (s *JSONStore) LatestN(ctx context.Context, symbol string) (*types.NValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.nValues[symbol]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// SaveN persists value, keyed by symbol (one N value per symbol is kept).
func (s *JSONStore) SaveN(ctx context.Context, value types.NValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nValues[value.Symbol] = value
	return s.persist("n_values.json", s.nValues)
}

// SaveTrade persists trade keyed by its ID.
func (s *JSONStore) SaveTrade(ctx context.Context, trade types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades[trade.ID] = trade
	return s.persist("trades.json", s.trades)
}

// LastClosedTrade returns the most recently closed trade matching symbol,
// sys, and dir, or nil if there is none.
func (s *JSONStore) LastClosedTrade(ctx context.Context, symbol string, sys types.System, dir types.Direction) (*types.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *types.Trade
	for _, t := range s.trades {
		if t.Symbol != symbol || t.System != sys || t.Direction != dir || !t.IsClosed() {
			continue
		}
		if latest == nil || t.ExitDate.After(*latest.ExitDate) {
			tc := t
			latest = &tc
		}
	}
	return latest, nil
}

// OpenTrade returns the open (unfinalized) trade for symbol, if any.
func (s *JSONStore) OpenTrade(ctx context.Context, symbol string) (*types.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.trades {
		if t.Symbol == symbol && !t.IsClosed() {
			tc := t
			return &tc, nil
		}
	}
	return nil, nil
}

// SavePosition persists pos keyed by its ID.
func (s *JSONStore) SavePosition(ctx context.Context, pos types.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos.Closed {
		delete(s.positions, pos.ID)
	} else {
		s.positions[pos.ID] = pos
	}
	return s.persist("positions.json", s.positions)
}

// LoadOpenPositions returns every persisted open position.
func (s *JSONStore) LoadOpenPositions(ctx context.Context) ([]types.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	return out, nil
}

// DeletePosition removes a persisted position by ID.
func (s *JSONStore) DeletePosition(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, id)
	return s.persist("positions.json", s.positions)
}

// AppendEvent appends event to its run's event log.
func (s *JSONStore) AppendEvent(ctx context.Context, event types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RunID] = append(s.events[event.RunID], event)
	return s.persist("events.json", s.events)
}

// Events returns the full event log for runID, in sequence order.
func (s *JSONStore) Events(ctx context.Context, runID string) ([]types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Event(nil), s.events[runID]...), nil
}
