package facts

import (
	"context"
	"errors"
	"testing"

	"confnode/internal/domain"
	"confnode/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store used across the package tests
type memStore struct {
	name    string
	facts   map[string]*domain.Facts
	envs    map[string]string
	err     error
	finds   int
	deletes int
}

func newMemStore(name string) *memStore {
	return &memStore{name: name, facts: make(map[string]*domain.Facts), envs: make(map[string]string)}
}

func (m *memStore) Name() string { return m.name }

func (m *memStore) Find(ctx context.Context, name string, env *domain.Environment) (*domain.Facts, error) {
	m.finds++
	if m.err != nil {
		return nil, m.err
	}
	return m.facts[name], nil
}

func (m *memStore) Save(ctx context.Context, facts *domain.Facts) error {
	return m.SaveForEnvironment(ctx, facts, "")
}

func (m *memStore) SaveForEnvironment(ctx context.Context, facts *domain.Facts, environment string) error {
	m.facts[facts.Name] = facts
	m.envs[facts.Name] = environment
	return nil
}

func (m *memStore) Delete(ctx context.Context, name string) error {
	m.deletes++
	delete(m.facts, name)
	return nil
}

// findOnly hides Save, SaveForEnvironment and Delete
type findOnly struct{ *memStore }

func (f findOnly) Save() {}
func (f findOnly) SaveForEnvironment() {}
func (f findOnly) Delete() {}

func TestChainEarlierSourceWins(t *testing.T) {
	first := newMemStore("yaml")
	first.facts["web01"] = domain.NewFacts("web01", map[string]any{"hostname": "web01", "role": "web"})
	second := newMemStore("nmap")
	second.facts["web01"] = domain.NewFacts("web01", map[string]any{"role": "scanned", "open_ports": []any{22}})

	chain := NewChain(logging.NewNop(), first, second)
	assert.Equal(t, "chain(yaml,nmap)", chain.Name())

	facts, err := chain.Find(context.Background(), "web01", nil)
	require.NoError(t, err)
	require.NotNil(t, facts)
	assert.Equal(t, "web", facts.Values["role"])
	assert.Equal(t, []any{22}, facts.Values["open_ports"])
	assert.Equal(t, "web01", facts.Values["hostname"])
}

func TestChainAbsentEverywhere(t *testing.T) {
	chain := NewChain(logging.NewNop(), newMemStore("a"), newMemStore("b"))

	facts, err := chain.Find(context.Background(), "web01", nil)
	require.NoError(t, err)
	assert.Nil(t, facts)
}

func TestChainPropagatesErrors(t *testing.T) {
	broken := newMemStore("sqlite")
	broken.err = errors.New("database is locked")

	_, err := NewChain(logging.NewNop(), newMemStore("yaml"), broken).Find(context.Background(), "web01", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite")
}

func TestChainSave(t *testing.T) {
	target := newMemStore("sqlite")
	chain := NewChain(logging.NewNop(), findOnly{newMemStore("nmap")}, target)

	require.NoError(t, chain.Save(context.Background(), domain.NewFacts("web01", nil)))
	assert.Contains(t, target.facts, "web01")

	readOnly := NewChain(logging.NewNop(), findOnly{newMemStore("nmap")}, findOnly{newMemStore("ssh")})
	assert.ErrorIs(t, readOnly.Save(context.Background(), domain.NewFacts("web01", nil)), ErrReadOnly)
}

func TestChainSaveRecordsEnvironment(t *testing.T) {
	target := newMemStore("sqlite")
	chain := NewChain(logging.NewNop(), findOnly{newMemStore("nmap")}, target)

	err := SaveTo(context.Background(), chain, domain.NewFacts("web01", nil), domain.NewEnvironment("staging"))
	require.NoError(t, err)
	assert.Equal(t, "staging", target.envs["web01"])
}

func TestChainDelete(t *testing.T) {
	first := newMemStore("yaml")
	first.facts["web01"] = domain.NewFacts("web01", nil)
	second := newMemStore("sqlite")
	second.facts["web01"] = domain.NewFacts("web01", nil)

	chain := NewChain(logging.NewNop(), first, findOnly{newMemStore("nmap")}, second)
	require.NoError(t, chain.Delete(context.Background(), "web01"))
	assert.NotContains(t, first.facts, "web01")
	assert.NotContains(t, second.facts, "web01")

	readOnly := NewChain(logging.NewNop(), findOnly{newMemStore("nmap")})
	assert.ErrorIs(t, readOnly.Delete(context.Background(), "web01"), ErrReadOnly)
}

func TestSaveToAndDeleteFromReadOnly(t *testing.T) {
	ctx := context.Background()
	store := findOnly{newMemStore("nmap")}

	assert.ErrorIs(t, SaveTo(ctx, store, domain.NewFacts("web01", nil), nil), ErrReadOnly)
	assert.ErrorIs(t, DeleteFrom(ctx, store, "web01"), ErrReadOnly)
}
