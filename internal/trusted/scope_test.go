package trusted

import (
	"fmt"
	"sync"
	"testing"

	"confnode/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ domain.TrustedSink = (*Scope)(nil)

func TestScopeRecordsCopies(t *testing.T) {
	s := NewScope()
	facts := map[string]any{"servername": "puppet"}

	s.RecordServerFacts("web01", facts)
	facts["servername"] = "mutated"

	got, ok := s.ServerFacts("web01")
	require.True(t, ok)
	assert.Equal(t, "puppet", got["servername"])

	got["servername"] = "mutated"
	again, _ := s.ServerFacts("web01")
	assert.Equal(t, "puppet", again["servername"])
}

func TestScopeMissingAndForget(t *testing.T) {
	s := NewScope()
	_, ok := s.ServerFacts("web01")
	assert.False(t, ok)

	s.RecordServerFacts("web01", map[string]any{})
	s.Forget("web01")
	_, ok = s.ServerFacts("web01")
	assert.False(t, ok)
}

func TestScopeWithNode(t *testing.T) {
	s := NewScope()
	deps := domain.Deps{Settings: domain.Settings{TrustedServerFacts: true}, Trusted: s}
	n, err := domain.NewNode("web01", deps, domain.WithEnvironment(domain.NewEnvironment("production")))
	require.NoError(t, err)

	require.NoError(t, n.AddServerFacts(map[string]any{"serverip": "10.0.0.1"}))

	got, ok := s.ServerFacts("web01")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", got["serverip"])
}

func TestScopeConcurrent(t *testing.T) {
	s := NewScope()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("node%d", i%4)
			s.RecordServerFacts(name, map[string]any{"i": i})
			s.ServerFacts(name)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		_, ok := s.ServerFacts(fmt.Sprintf("node%d", i))
		assert.True(t, ok)
	}
}
