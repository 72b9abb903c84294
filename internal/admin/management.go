package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/and161185/terraria-exporter/internal/kubectl"
)

const (
	getTimeout      = 120 * time.Second
	listTimeout     = 60 * time.Second
	logTailTimeout  = 90 * time.Second
	logTailLines    = 120
	worldManagerPod = "world-manager"
	listWorldsShell = "ls -1 /config/*.wld 2>/dev/null | sed 's#.*/##' | sort"

	helperReadyTimeout   = 210 * time.Second
	helperCleanupTimeout = 30 * time.Second
)

const helperPodManifest = `apiVersion: v1
kind: Pod
metadata:
  name: %s
  namespace: %s
spec:
  restartPolicy: Never
  containers:
    - name: world-manager
      image: %s
      command: ["sh", "-c", "sleep 240"]
      volumeMounts:
        - name: terraria-config
          mountPath: /config
  volumes:
    - name: terraria-config
      persistentVolumeClaim:
        claimName: %s
`

// Target names the game server objects in the cluster. With ConfigClaim
// set, worlds can still be listed when no pod mounts the volume.
type Target struct {
	Namespace    string
	Deployment   string
	Service      string
	AppLabel     string
	ConfigClaim  string
	ManagerImage string
}

type kubeEnv struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type kubeDeployment struct {
	Spec struct {
		Replicas *int `json:"replicas"`
		Template struct {
			Spec struct {
				Containers []struct {
					Image string    `json:"image"`
					Env   []kubeEnv `json:"env"`
				} `json:"containers"`
			} `json:"spec"`
		} `json:"template"`
	} `json:"spec"`
	Status struct {
		ReadyReplicas      int    `json:"readyReplicas"`
		AvailableReplicas  int    `json:"availableReplicas"`
		ObservedGeneration *int64 `json:"observedGeneration"`
	} `json:"status"`
}

type kubeService struct {
	Spec struct {
		ClusterIP string `json:"clusterIP"`
		Type      string `json:"type"`
		Ports     []struct {
			Name     string `json:"name"`
			Port     int    `json:"port"`
			NodePort int    `json:"nodePort"`
		} `json:"ports"`
	} `json:"spec"`
}

type kubeEndpoints struct {
	Subsets []struct {
		Addresses []struct {
			IP string `json:"ip"`
		} `json:"addresses"`
	} `json:"subsets"`
}

type kubePod struct {
	Metadata struct {
		Name              string `json:"name"`
		CreationTimestamp string `json:"creationTimestamp"`
	} `json:"metadata"`
	Status struct {
		Phase             string `json:"phase"`
		PodIP             string `json:"podIP"`
		NodeName          string `json:"nodeName"`
		ContainerStatuses []struct {
			Ready        bool `json:"ready"`
			RestartCount int  `json:"restartCount"`
		} `json:"containerStatuses"`
	} `json:"status"`
}

type kubePodList struct {
	Items []kubePod `json:"items"`
}

// DeploymentInfo summarises the game server deployment.
type DeploymentInfo struct {
	ReplicasDesired    int    `json:"replicas_desired"`
	ReplicasReady      int    `json:"replicas_ready"`
	ReplicasAvailable  int    `json:"replicas_available"`
	ObservedGeneration *int64 `json:"observed_generation"`
	Image              string `json:"image"`
	World              string `json:"world"`
	WorldPath          string `json:"worldpath"`
}

// ServiceInfo summarises the game server service.
type ServiceInfo struct {
	ClusterIP        string `json:"cluster_ip"`
	Type             string `json:"type"`
	NodePortTerraria *int   `json:"node_port_terraria"`
	NodePortAPI      *int   `json:"node_port_api"`
	PortTerraria     *int   `json:"port_terraria"`
	PortAPI          *int   `json:"port_api"`
}

// EndpointsInfo counts ready service endpoints.
type EndpointsInfo struct {
	Ready int `json:"ready"`
}

// PodRow is one game server pod.
type PodRow struct {
	Name     string  `json:"name"`
	Phase    string  `json:"phase"`
	Ready    string  `json:"ready"`
	Restarts int     `json:"restarts"`
	Age      *string `json:"age"`
	PodIP    string  `json:"pod_ip"`
	Node     string  `json:"node"`
}

// LogTail is the end of the game server log.
type LogTail struct {
	OK   bool   `json:"ok"`
	Tail string `json:"tail"`
}

// Management is the reply of GET /api/management.
type Management struct {
	OK                bool            `json:"ok"`
	Timestamp         string          `json:"timestamp"`
	Namespace         string          `json:"namespace"`
	DeploymentName    string          `json:"deployment_name"`
	ServiceName       string          `json:"service_name"`
	Issues            []string        `json:"issues"`
	Deployment        *DeploymentInfo `json:"deployment"`
	Service           *ServiceInfo    `json:"service"`
	Endpoints         EndpointsInfo   `json:"endpoints"`
	Pods              []PodRow        `json:"pods"`
	Worlds            []string        `json:"worlds"`
	ActiveWorldExists bool            `json:"active_world_exists"`
	Logs              LogTail         `json:"logs"`
	Metrics           ExporterMetrics `json:"metrics"`
}

// Manager reads the state of the game server through the cluster CLI and
// the monitoring backend.
type Manager struct {
	kube    Kubectl
	querier Querier
	target  Target
	now     func() time.Time
}

func NewManager(kube Kubectl, querier Querier, target Target) *Manager {
	return &Manager{kube: kube, querier: querier, target: target, now: time.Now}
}

// Snapshot collects every part of the management page concurrently. Parts
// that fail are reported in Issues; only a missing deployment clears OK.
func (m *Manager) Snapshot(ctx context.Context) Management {
	t := m.target
	snap := Management{
		OK:             true,
		Timestamp:      m.now().UTC().Format(time.RFC3339Nano),
		Namespace:      t.Namespace,
		DeploymentName: t.Deployment,
		ServiceName:    t.Service,
		Issues:         []string{},
		Pods:           []PodRow{},
		Worlds:         []string{},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	issue := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		snap.Issues = append(snap.Issues, fmt.Sprintf(format, args...))
	}

	g.Go(func() error {
		var d kubeDeployment
		if err := m.kube.JSON(ctx, getTimeout, &d, "-n", t.Namespace, "get", "deployment", t.Deployment); err != nil {
			issue("deployment: %v", err)
			mu.Lock()
			snap.OK = false
			mu.Unlock()
			return nil
		}
		snap.Deployment = deploymentInfo(d)
		return nil
	})
	g.Go(func() error {
		var s kubeService
		if err := m.kube.JSON(ctx, getTimeout, &s, "-n", t.Namespace, "get", "service", t.Service); err != nil {
			issue("service: %v", err)
			return nil
		}
		snap.Service = serviceInfo(s)
		return nil
	})
	g.Go(func() error {
		var e kubeEndpoints
		if err := m.kube.JSON(ctx, getTimeout, &e, "-n", t.Namespace, "get", "endpoints", t.Service); err != nil {
			issue("endpoints: %v", err)
			return nil
		}
		for _, s := range e.Subsets {
			snap.Endpoints.Ready += len(s.Addresses)
		}
		return nil
	})
	g.Go(func() error {
		pods := m.pods(ctx)
		now := m.now()
		for _, p := range pods {
			snap.Pods = append(snap.Pods, podRow(p, now))
		}
		snap.Worlds = m.listWorlds(ctx, pods)
		return nil
	})
	g.Go(func() error {
		res := m.kube.Run(ctx, logTailTimeout, "-n", t.Namespace, "logs", "deploy/"+t.Deployment, "--tail="+strconv.Itoa(logTailLines))
		snap.Logs = LogTail{OK: res.OK, Tail: res.Output}
		if snap.Logs.Tail == "" {
			snap.Logs.Tail = "(no logs)"
		}
		return nil
	})
	g.Go(func() error {
		if m.querier != nil {
			snap.Metrics = ScrapeExporterMetrics(ctx, m.querier)
		}
		return nil
	})
	_ = g.Wait()

	if snap.Deployment != nil && snap.Deployment.World != "" {
		for _, w := range snap.Worlds {
			if w == snap.Deployment.World {
				snap.ActiveWorldExists = true
				break
			}
		}
	}
	return snap
}

// Worlds lists the world files on the config volume.
func (m *Manager) Worlds(ctx context.Context) []string {
	return m.listWorlds(ctx, m.pods(ctx))
}

func (m *Manager) pods(ctx context.Context) []kubePod {
	var list kubePodList
	if err := m.kube.JSON(ctx, getTimeout, &list, "-n", m.target.Namespace, "get", "pods", "-l", "app="+m.target.AppLabel); err != nil {
		return nil
	}
	return list.Items
}

// listWorlds runs ls in the first running game pod, any game pod, the world
// manager pod or a throwaway helper pod, in that order of preference.
func (m *Manager) listWorlds(ctx context.Context, pods []kubePod) []string {
	pod := firstRunningPod(pods)
	if pod == "" {
		var probe struct{}
		if err := m.kube.JSON(ctx, getTimeout, &probe, "-n", m.target.Namespace, "get", "pod", worldManagerPod); err == nil {
			pod = worldManagerPod
		}
	}
	if pod == "" {
		return m.helperPodWorlds(ctx)
	}
	return m.lsWorlds(ctx, pod)
}

func (m *Manager) lsWorlds(ctx context.Context, pod string) []string {
	res := m.kube.Run(ctx, listTimeout, "-n", m.target.Namespace, "exec", pod, "--", "sh", "-lc", listWorldsShell)
	worlds := []string{}
	if !res.OK {
		return worlds
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			worlds = append(worlds, line)
		}
	}
	return worlds
}

// helperPodWorlds mounts the config claim in a short-lived pod, lists it and
// deletes the pod again.
func (m *Manager) helperPodWorlds(ctx context.Context) []string {
	t := m.target
	if t.ConfigClaim == "" || t.ManagerImage == "" {
		return []string{}
	}

	name := fmt.Sprintf("world-ui-ls-%d", m.now().UnixMilli())
	manifest := fmt.Sprintf(helperPodManifest, name, t.Namespace, t.ManagerImage, t.ConfigClaim)
	if res := m.kube.Apply(ctx, getTimeout, manifest); !res.OK {
		return []string{}
	}
	defer m.kube.Run(context.WithoutCancel(ctx), helperCleanupTimeout,
		"-n", t.Namespace, "delete", "pod", name, "--ignore-not-found", "--wait=false")

	wait := m.kube.Run(ctx, helperReadyTimeout, "-n", t.Namespace, "wait", "--for=condition=Ready", "pod/"+name, "--timeout=180s")
	if !wait.OK {
		return []string{}
	}
	return m.lsWorlds(ctx, name)
}

func firstRunningPod(pods []kubePod) string {
	for _, p := range pods {
		if p.Status.Phase == "Running" {
			return p.Metadata.Name
		}
	}
	if len(pods) > 0 {
		return pods[0].Metadata.Name
	}
	return ""
}

func deploymentInfo(d kubeDeployment) *DeploymentInfo {
	info := &DeploymentInfo{
		ReplicasReady:      d.Status.ReadyReplicas,
		ReplicasAvailable:  d.Status.AvailableReplicas,
		ObservedGeneration: d.Status.ObservedGeneration,
	}
	if d.Spec.Replicas != nil {
		info.ReplicasDesired = *d.Spec.Replicas
	}
	if cs := d.Spec.Template.Spec.Containers; len(cs) > 0 {
		info.Image = cs[0].Image
		for _, e := range cs[0].Env {
			switch e.Name {
			case "world":
				info.World = e.Value
			case "worldpath":
				info.WorldPath = e.Value
			}
		}
	}
	return info
}

func serviceInfo(s kubeService) *ServiceInfo {
	info := &ServiceInfo{ClusterIP: s.Spec.ClusterIP, Type: s.Spec.Type}
	nonZero := func(v int) *int {
		if v == 0 {
			return nil
		}
		return &v
	}
	for _, p := range s.Spec.Ports {
		switch p.Name {
		case "terraria":
			info.NodePortTerraria, info.PortTerraria = nonZero(p.NodePort), nonZero(p.Port)
		case "terraria-api":
			info.NodePortAPI, info.PortAPI = nonZero(p.NodePort), nonZero(p.Port)
		}
	}
	return info
}

func podRow(p kubePod, now time.Time) PodRow {
	row := PodRow{
		Name:  p.Metadata.Name,
		Phase: p.Status.Phase,
		Ready: "0/0",
		Age:   HumanAge(p.Metadata.CreationTimestamp, now),
		PodIP: p.Status.PodIP,
		Node:  p.Status.NodeName,
	}
	ready := 0
	for _, cs := range p.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
		row.Restarts += cs.RestartCount
	}
	if total := len(p.Status.ContainerStatuses); total > 0 {
		row.Ready = fmt.Sprintf("%d/%d", ready, total)
	}
	return row
}

// HumanAge renders the time since an RFC 3339 timestamp as 42s, 5m, 3h or
// 2d. Unparseable input comes back unchanged; empty input gives nil.
func HumanAge(ts string, now time.Time) *string {
	if ts == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return &ts
	}
	sec := int(now.Sub(t).Seconds())
	var age string
	switch {
	case sec < 60:
		age = strconv.Itoa(sec) + "s"
	case sec < 3600:
		age = strconv.Itoa(sec/60) + "m"
	case sec < 86400:
		age = strconv.Itoa(sec/3600) + "h"
	default:
		age = strconv.Itoa(sec/86400) + "d"
	}
	return &age
}

var _ Kubectl = (*kubectl.Runner)(nil)
