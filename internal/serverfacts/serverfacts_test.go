package serverfacts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeHost(files map[string]string, env map[string]string) Host {
	return Host{
		ReadFile: func(path string) (string, error) {
			if s, ok := files[path]; ok {
				return s, nil
			}
			return "", errors.New("not found")
		},
		Getenv: func(key string) string { return env[key] },
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		env      map[string]string
		wantType RuntimeType
		wantCtr  ContainerRuntime
	}{
		{
			name:     "bare metal",
			wantType: RuntimeBareMetal,
			wantCtr:  ContainerNone,
		},
		{
			name:     "kubernetes env",
			env:      map[string]string{"KUBERNETES_SERVICE_HOST": "10.0.0.1"},
			wantType: RuntimeContainerized,
			wantCtr:  ContainerKubernetes,
		},
		{
			name:     "docker marker file",
			files:    map[string]string{"/.dockerenv": ""},
			wantType: RuntimeContainerized,
			wantCtr:  ContainerDocker,
		},
		{
			name:     "containerd cgroup",
			files:    map[string]string{"/proc/1/cgroup": "0::/system.slice/containerd-abc.scope"},
			wantType: RuntimeContainerized,
			wantCtr:  ContainerContainerd,
		},
		{
			name:     "kvm guest",
			files:    map[string]string{"/sys/class/dmi/id/product_name": "KVM"},
			wantType: RuntimeVM,
			wantCtr:  ContainerNone,
		},
		{
			name:     "hypervisor cpu flag",
			files:    map[string]string{"/proc/cpuinfo": "flags : fpu hypervisor"},
			wantType: RuntimeVM,
			wantCtr:  ContainerNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fakeHost(tt.files, tt.env).Detect()
			assert.Equal(t, tt.wantType, d.Type)
			assert.Equal(t, tt.wantCtr, d.Container)
			assert.NotEmpty(t, d.Arch)
		})
	}
}

func TestGathererFacts(t *testing.T) {
	g := New("puppet.example.com").WithHost(fakeHost(nil, nil))

	facts := g.Facts()
	assert.Equal(t, "puppet.example.com", facts["servername"])
	assert.Equal(t, Version, facts["serverversion"])

	rt, ok := facts["server_runtime"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(RuntimeBareMetal), rt["type"])

	// Callers get independent copies
	facts["servername"] = "changed"
	assert.Equal(t, "puppet.example.com", g.Facts()["servername"])
}
