package serverfacts

import (
	"os"
	"runtime"
	"strings"
)

// RuntimeType is the broad category of host the server runs on
type RuntimeType string

const (
	RuntimeBareMetal     RuntimeType = "bare_metal"
	RuntimeVM            RuntimeType = "vm"
	RuntimeContainerized RuntimeType = "containerized"
)

// ContainerRuntime names a specific container implementation
type ContainerRuntime string

const (
	ContainerNone       ContainerRuntime = "none"
	ContainerDocker     ContainerRuntime = "docker"
	ContainerKubernetes ContainerRuntime = "kubernetes"
	ContainerPodman     ContainerRuntime = "podman"
	ContainerContainerd ContainerRuntime = "containerd"
	ContainerCRIO       ContainerRuntime = "cri-o"
	ContainerLXC        ContainerRuntime = "lxc"
)

// signature defines detection criteria for a container runtime
type signature struct {
	runtime       ContainerRuntime
	fileExists    []string
	envVars       []string
	cgroupMarkers []string
	mountMarkers  []string
}

// signatures are ordered by specificity, most specific first
var signatures = []signature{
	{
		runtime: ContainerKubernetes,
		fileExists: []string{
			"/var/run/secrets/kubernetes.io/serviceaccount/token",
		},
		envVars: []string{"KUBERNETES_SERVICE_HOST"},
	},
	{
		runtime:       ContainerCRIO,
		cgroupMarkers: []string{"crio-", "/crio/"},
	},
	{
		runtime:       ContainerContainerd,
		cgroupMarkers: []string{"containerd-", "/containerd/"},
		mountMarkers:  []string{"containerd"},
	},
	{
		runtime:       ContainerPodman,
		fileExists:    []string{"/run/.containerenv"},
		cgroupMarkers: []string{"libpod-", "/libpod/"},
	},
	{
		runtime:       ContainerDocker,
		fileExists:    []string{"/.dockerenv"},
		cgroupMarkers: []string{"docker-", "/docker/"},
	},
	{
		runtime:       ContainerLXC,
		cgroupMarkers: []string{"/lxc/", "lxc.payload"},
	},
}

var vmIndicators = []string{
	"virtualbox", "vmware", "qemu", "kvm",
	"hyper-v", "xen", "parallels", "bochs",
}

// Host reads host state. Tests replace its functions.
type Host struct {
	ReadFile func(path string) (string, error)
	Getenv   func(key string) string
}

// RealHost reads the real host
func RealHost() Host {
	return Host{
		ReadFile: func(path string) (string, error) {
			data, err := os.ReadFile(path)
			return string(data), err
		},
		Getenv: os.Getenv,
	}
}

// Detection holds the result of runtime detection
type Detection struct {
	Type      RuntimeType
	Container ContainerRuntime
	Arch      string
}

// Detect classifies the host using the first matching container
// signature, falling back to hypervisor hints.
func (p Host) Detect() Detection {
	d := Detection{Type: RuntimeBareMetal, Container: ContainerNone, Arch: runtime.GOARCH}

	cgroup := p.read("/proc/1/cgroup")
	mounts := p.read("/proc/mounts")

	for _, sig := range signatures {
		if p.matches(sig, cgroup, mounts) {
			d.Type = RuntimeContainerized
			d.Container = sig.runtime
			return d
		}
	}

	if p.isVM() {
		d.Type = RuntimeVM
	}
	return d
}

func (p Host) matches(sig signature, cgroup, mounts string) bool {
	for _, path := range sig.fileExists {
		if _, err := p.ReadFile(path); err == nil {
			return true
		}
	}
	for _, key := range sig.envVars {
		if p.Getenv(key) != "" {
			return true
		}
	}
	for _, marker := range sig.cgroupMarkers {
		if strings.Contains(cgroup, marker) {
			return true
		}
	}
	for _, marker := range sig.mountMarkers {
		if strings.Contains(mounts, marker) {
			return true
		}
	}
	return false
}

func (p Host) isVM() bool {
	if dmi := strings.ToLower(p.read("/sys/class/dmi/id/product_name")); dmi != "" {
		for _, indicator := range vmIndicators {
			if strings.Contains(dmi, indicator) {
				return true
			}
		}
	}
	return strings.Contains(p.read("/proc/cpuinfo"), "hypervisor")
}

func (p Host) read(path string) string {
	s, err := p.ReadFile(path)
	if err != nil {
		return ""
	}
	return s
}
