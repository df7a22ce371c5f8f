package terminus

import (
	"context"
	"encoding/json"
	"fmt"

	"confnode/internal/config"
	"confnode/internal/domain"

	consulapi "github.com/hashicorp/consul/api"
)

// Consul reads node records from the Consul KV store.
// Each record is a JSON data hash under <prefix><name>.
type Consul struct {
	kv     *consulapi.KV
	prefix string
	deps   domain.Deps
}

// NewConsul creates a Consul-backed terminus
func NewConsul(cfg config.ConsulConfig, deps domain.Deps) (*Consul, error) {
	apiCfg := consulapi.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	if cfg.Token != "" {
		apiCfg.Token = cfg.Token
	}

	cli, err := consulapi.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "confnode/nodes/"
	}
	return &Consul{kv: cli.KV(), prefix: prefix, deps: deps}, nil
}

// Name returns the terminus identifier
func (c *Consul) Name() string {
	return "consul"
}

func (c *Consul) key(name string) string {
	return c.prefix + name
}

// Find reads the record for req.Name
func (c *Consul) Find(ctx context.Context, req Request) (*domain.Node, error) {
	if !validName(req.Name) {
		return nil, fmt.Errorf("%w: node name %q", domain.ErrInvalidArgument, req.Name)
	}

	pair, _, err := c.kv.Get(c.key(req.Name), (&consulapi.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul get %s: %w", c.key(req.Name), err)
	}
	if pair == nil {
		return nil, nil
	}

	var record map[string]any
	if err := json.Unmarshal(pair.Value, &record); err != nil {
		return nil, fmt.Errorf("failed to parse node record %s: %w", req.Name, err)
	}

	return fromRecord(req, record, c.Name(), c.deps)
}

// Save stores node's data hash
func (c *Consul) Save(ctx context.Context, node *domain.Node) error {
	data, err := node.ToData()
	if err != nil {
		return err
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = c.kv.Put(&consulapi.KVPair{Key: c.key(node.Name()), Value: b}, (&consulapi.WriteOptions{}).WithContext(ctx))
	return err
}
