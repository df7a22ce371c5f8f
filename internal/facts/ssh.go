package facts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"confnode/internal/config"
	"confnode/internal/domain"

	"golang.org/x/crypto/ssh"
)

const defaultSSHTimeout = 10 * time.Second

// SSHGatherer collects live facts by running commands on the node over SSH.
// The node name is used as the host to connect to.
type SSHGatherer struct {
	user     string
	port     int
	auth     []ssh.AuthMethod
	timeout  time.Duration
	commands []FactCommand
	logger   *slog.Logger
}

// NewSSHGatherer builds a gatherer from cfg. Credentials are read from
// the key and password files at construction.
func NewSSHGatherer(cfg config.SSHConfig, logger *slog.Logger) (*SSHGatherer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("ssh user is required")
	}

	auth, err := buildAuth(cfg)
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port == 0 {
		port = 22
	}

	return &SSHGatherer{
		user:     cfg.User,
		port:     port,
		auth:     auth,
		timeout:  config.DurationOr(cfg.Timeout, defaultSSHTimeout),
		commands: DefaultFactCommands,
		logger:   logger,
	}, nil
}

// Name returns the store identifier
func (g *SSHGatherer) Name() string {
	return "ssh"
}

// buildAuth creates auth methods from the key and password files
func buildAuth(cfg config.SSHConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.KeyPath != nil {
		keyData, err := os.ReadFile(*cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if cfg.PasswordPath != nil {
		data, err := os.ReadFile(*cfg.PasswordPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		password := strings.TrimSpace(string(data))
		if password == "" {
			return nil, fmt.Errorf("password file %s is empty", *cfg.PasswordPath)
		}
		methods = append(methods, ssh.Password(password))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("ssh requires key_path or password_path")
	}
	return methods, nil
}

func (g *SSHGatherer) clientConfig() *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User:            g.user,
		Auth:            g.auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         g.timeout,
	}
}

// Find connects to name and gathers facts. An unreachable host is
// reported as absence, not as an error.
func (g *SSHGatherer) Find(ctx context.Context, name string, env *domain.Environment) (*domain.Facts, error) {
	client, err := g.connect(ctx, name)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			g.logger.Warn("ssh host unreachable", "node", name, "error", err)
			return nil, nil
		}
		return nil, err
	}
	defer client.Close()

	return g.collect(ctx, name, &clientRunner{client: client, timeout: g.timeout})
}

// connect establishes an SSH connection honoring ctx
func (g *SSHGatherer) connect(ctx context.Context, host string) (*ssh.Client, error) {
	addr := net.JoinHostPort(host, fmt.Sprint(g.port))
	dialer := &net.Dialer{Timeout: g.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, g.clientConfig())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// commandRunner runs a single shell command on the node
type commandRunner interface {
	Run(ctx context.Context, cmd string) (string, error)
}

// collect runs every fact command; failing commands are logged and skipped
func (g *SSHGatherer) collect(ctx context.Context, name string, runner commandRunner) (*domain.Facts, error) {
	values := make(map[string]any)

	for _, fc := range g.commands {
		out, err := runner.Run(ctx, fc.Command)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("fact command failed", "node", name, "command", fc.Name, "error", err)
			continue
		}

		parsed, err := fc.Parser(out)
		if err != nil {
			g.logger.Debug("fact command output not parsed", "node", name, "command", fc.Name, "error", err)
			continue
		}
		for k, v := range parsed {
			values[k] = v
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no facts gathered from %s", name)
	}
	return domain.NewFacts(name, values), nil
}

// clientRunner runs commands in fresh sessions of an SSH client
type clientRunner struct {
	client  *ssh.Client
	timeout time.Duration
}

func (r *clientRunner) Run(ctx context.Context, cmd string) (string, error) {
	session, err := r.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	type result struct {
		out []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := session.CombinedOutput(cmd)
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			// A non-zero exit still produced usable output
			var exitErr *ssh.ExitError
			if errors.As(res.err, &exitErr) {
				return string(res.out), nil
			}
			return "", fmt.Errorf("command failed: %w", res.err)
		}
		return string(res.out), nil
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case <-time.After(r.timeout):
		session.Signal(ssh.SIGKILL)
		return "", fmt.Errorf("command timeout")
	}
}
