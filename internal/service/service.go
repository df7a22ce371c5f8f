package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"confnode/internal/domain"
	"confnode/internal/facts"
	"confnode/internal/terminus"
)

var (
	// ErrFactsNotFound is returned when no facts store has a snapshot
	ErrFactsNotFound = errors.New("facts not found")
	// ErrFactsReadOnly is returned when the facts store does not accept uploads
	ErrFactsReadOnly = errors.New("facts store does not accept uploads")
)

// ServerFactsSource supplies the facts the server injects into nodes
type ServerFactsSource interface {
	Facts() map[string]any
}

// TrustedReader exposes the trusted server facts recorded per node
type TrustedReader interface {
	ServerFacts(node string) (map[string]any, bool)
}

// Options carries the optional collaborators of a NodeService
type Options struct {
	Environments domain.EnvironmentRegistry
	ServerFacts  ServerFactsSource
	Trusted      TrustedReader
	Events       *EventBus
	Logger       *slog.Logger
}

// NodeService finds nodes and prepares them for compilation
type NodeService struct {
	terminus terminus.Terminus
	facts    facts.Store
	opts     Options
	logger   *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(term terminus.Terminus, store facts.Store, opts Options) *NodeService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeService{
		terminus: term,
		facts:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Find looks up name, applies the requested environment when the record
// has none, and merges facts and server facts into the node.
func (s *NodeService) Find(ctx context.Context, name, environment string) (*domain.Node, error) {
	termName := s.terminus.Name()

	node, err := s.terminus.Find(ctx, terminus.Request{Name: name, Environment: environment})
	if err != nil {
		NodeLookups.WithLabelValues(termName, resultError).Inc()
		s.lookupFailed(name, err)
		return nil, err
	}
	if node == nil {
		NodeLookups.WithLabelValues(termName, resultNotFound).Inc()
		err := fmt.Errorf("%w: %s", domain.ErrNodeNotFound, name)
		s.lookupFailed(name, err)
		return nil, err
	}
	NodeLookups.WithLabelValues(termName, resultFound).Inc()

	if environment != "" && node.EnvironmentName() == "" {
		if _, ok := node.Parameter(domain.ParamEnvironment); !ok {
			if err := node.SetEnvironmentName(environment); err != nil {
				s.lookupFailed(name, err)
				return nil, err
			}
		}
	}

	if s.facts != nil {
		start := time.Now()
		err := node.FactMerge(ctx, s.facts)
		FactRetrievalSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			FactMerges.WithLabelValues(resultError).Inc()
			s.lookupFailed(name, err)
			return nil, err
		}
		if node.Facts() == nil {
			FactMerges.WithLabelValues(resultAbsent).Inc()
			s.logger.Debug("no facts for node", "node", name)
		} else {
			FactMerges.WithLabelValues(resultMerged).Inc()
		}
	}

	if s.opts.ServerFacts != nil {
		if err := node.AddServerFacts(s.opts.ServerFacts.Facts()); err != nil {
			s.lookupFailed(name, err)
			return nil, err
		}
	}

	s.logger.Info("node found", "node", name, "terminus", termName, "environment", node.EnvironmentName())
	s.opts.Events.Publish(Event{
		Type:    EventNodeFound,
		Payload: map[string]string{"node": name, "environment": node.EnvironmentName()},
	})
	return node, nil
}

// Names returns the candidate names used to match the node
func (s *NodeService) Names(ctx context.Context, name, environment string) ([]string, error) {
	node, err := s.Find(ctx, name, environment)
	if err != nil {
		return nil, err
	}
	return node.Names(), nil
}

// Facts returns the stored facts snapshot for name
func (s *NodeService) Facts(ctx context.Context, name, environment string) (*domain.Facts, error) {
	if s.facts == nil {
		return nil, fmt.Errorf("%w: %s", ErrFactsNotFound, name)
	}
	env, err := s.resolveEnvironment(environment)
	if err != nil {
		return nil, err
	}

	f, err := s.facts.Find(ctx, name, env)
	if err != nil {
		return nil, &domain.FactsRetrievalError{Node: name, Err: err}
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFactsNotFound, name)
	}
	return f, nil
}

// SaveFacts stores an uploaded facts snapshot. A non-empty environment
// must name a known environment and is recorded by stores that keep it.
func (s *NodeService) SaveFacts(ctx context.Context, f *domain.Facts, environment string) error {
	if f == nil || f.Name == "" {
		return fmt.Errorf("%w: facts must carry a node name", domain.ErrInvalidArgument)
	}
	if s.facts == nil {
		return ErrFactsReadOnly
	}
	env, err := s.resolveEnvironment(environment)
	if err != nil {
		return err
	}

	if dropped := f.Sanitize(); len(dropped) > 0 {
		s.logger.Warn("dropped reserved facts", "node", f.Name, "facts", dropped)
	}
	if err := facts.SaveTo(ctx, s.facts, f, env); err != nil {
		return storeWriteError("save", f.Name, err)
	}

	s.logger.Info("facts saved", "node", f.Name, "count", len(f.Values), "environment", environment)
	s.opts.Events.Publish(Event{
		Type:    EventFactsSaved,
		Payload: map[string]string{"node": f.Name, "environment": environment},
	})
	return nil
}

// DeleteFacts drops the stored facts snapshot for name
func (s *NodeService) DeleteFacts(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty node name", domain.ErrInvalidArgument)
	}
	if s.facts == nil {
		return ErrFactsReadOnly
	}
	if err := facts.DeleteFrom(ctx, s.facts, name); err != nil {
		return storeWriteError("delete", name, err)
	}

	s.logger.Info("facts deleted", "node", name)
	s.opts.Events.Publish(Event{
		Type:    EventFactsDeleted,
		Payload: map[string]string{"node": name},
	})
	return nil
}

func (s *NodeService) resolveEnvironment(name string) (*domain.Environment, error) {
	if name == "" {
		return nil, nil
	}
	if s.opts.Environments == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEnvironmentNotFound, name)
	}
	return s.opts.Environments.Get(name)
}

// storeWriteError maps a read-only store onto ErrFactsReadOnly
func storeWriteError(op, name string, err error) error {
	if errors.Is(err, facts.ErrReadOnly) {
		return fmt.Errorf("%w: %v", ErrFactsReadOnly, err)
	}
	return fmt.Errorf("%s facts for %s: %w", op, name, err)
}

// TrustedFacts returns the trusted server facts recorded for name
func (s *NodeService) TrustedFacts(name string) (map[string]any, bool) {
	if s.opts.Trusted == nil {
		return nil, false
	}
	return s.opts.Trusted.ServerFacts(name)
}

// EnvironmentsReloaded announces that cached environments were dropped
func (s *NodeService) EnvironmentsReloaded(path string) {
	s.opts.Events.Publish(Event{
		Type:    EventEnvironmentsReloaded,
		Payload: map[string]string{"path": path},
	})
}

func (s *NodeService) lookupFailed(name string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrNodeNotFound) {
		level = slog.LevelInfo
	}
	s.logger.Log(context.Background(), level, "node lookup failed", "node", name, "error", err)
	s.opts.Events.Publish(Event{
		Type:    EventNodeLookupFailed,
		Payload: map[string]string{"node": name, "error": err.Error()},
	})
}
