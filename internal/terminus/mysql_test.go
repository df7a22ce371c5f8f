package terminus

import (
	"testing"

	"confnode/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRecordToData(t *testing.T) {
	rec := NodeRecord{
		Name:        "web01",
		Environment: "staging",
		Classes:     `["base","nginx"]`,
		Parameters:  `{"role":"web","weight":3}`,
		IPAddress:   "10.0.0.5",
	}

	data, err := rec.toData()
	require.NoError(t, err)

	node, err := fromRecord(Request{Name: "web01"}, data, "mysql", testDeps())
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "nginx"}, node.Classes())
	assert.Equal(t, "web", node.Parameters()["role"])
	assert.Equal(t, float64(3), node.Parameters()["weight"])
	assert.Equal(t, "staging", node.EnvironmentName())
	assert.Equal(t, "10.0.0.5", node.IPAddress)
	assert.Equal(t, "mysql", node.Source)
}

func TestNodeRecordToDataCorrupt(t *testing.T) {
	_, err := NodeRecord{Name: "web01", Classes: "[oops"}.toData()
	assert.Error(t, err)

	_, err = NodeRecord{Name: "web01", Parameters: "{"}.toData()
	assert.Error(t, err)
}

func TestRecordFromNode(t *testing.T) {
	node, err := domain.NewNode("web01", testDeps(),
		domain.WithClasses("base"),
		domain.WithParameters(map[string]any{"role": "web"}),
		domain.WithIPAddress("10.0.0.5"),
		domain.WithEnvironmentName("production"))
	require.NoError(t, err)

	rec, err := recordFromNode(node)
	require.NoError(t, err)
	assert.Equal(t, "web01", rec.Name)
	assert.Equal(t, "production", rec.Environment)
	assert.Equal(t, `["base"]`, rec.Classes)
	assert.JSONEq(t, `{"role":"web"}`, rec.Parameters)
	assert.Equal(t, "10.0.0.5", rec.IPAddress)

	bare, err := domain.NewNode("bare", testDeps())
	require.NoError(t, err)
	rec, err = recordFromNode(bare)
	require.NoError(t, err)
	assert.Empty(t, rec.Classes)
	assert.Empty(t, rec.Parameters)
}

func TestNewMySQLUnreachable(t *testing.T) {
	_, err := NewMySQL("confnode:secret@tcp(127.0.0.1:1)/confnode?parseTime=true&timeout=1s", testDeps())
	assert.Error(t, err)
}
