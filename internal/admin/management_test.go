package admin

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/terraria-exporter/internal/kubectl"
	"github.com/and161185/terraria-exporter/internal/sink"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	deploymentJSON = `{
		"spec": {"replicas": 1, "template": {"spec": {"containers": [{
			"image": "ghcr.io/example/terraria:1.4.4",
			"env": [{"name": "world", "value": "Forest.wld"}, {"name": "worldpath", "value": "/config"}]
		}]}}},
		"status": {"readyReplicas": 1, "availableReplicas": 1, "observedGeneration": 7}
	}`
	serviceJSON = `{"spec": {"clusterIP": "10.96.0.12", "type": "NodePort", "ports": [
		{"name": "terraria", "port": 7777, "nodePort": 30777},
		{"name": "terraria-api", "port": 7878}
	]}}`
	endpointsJSON = `{"subsets": [{"addresses": [{"ip": "10.1.0.4"}]}, {"addresses": [{"ip": "10.1.0.5"}]}]}`
	podsJSON      = `{"items": [
		{"metadata": {"name": "tr-old", "creationTimestamp": "2026-02-27T12:00:00Z"}, "status": {"phase": "Pending"}},
		{"metadata": {"name": "tr-abc", "creationTimestamp": "2026-03-01T11:55:00Z"},
		 "status": {"phase": "Running", "podIP": "10.1.0.4", "nodeName": "node-a",
		            "containerStatuses": [{"ready": true, "restartCount": 2}, {"ready": false, "restartCount": 1}]}}
	]}`
)

func newTestManager(kube *fakeKube, q Querier) *Manager {
	m := NewManager(kube, q, Target{Namespace: "ns", Deployment: "tr", Service: "tr-svc", AppLabel: "terraria"})
	m.now = func() time.Time { return testNow }
	return m
}

func lsWorlds(pod string) string {
	return "-n ns exec " + pod + " -- sh -lc " + listWorldsShell
}

func TestSnapshot_Healthy(t *testing.T) {
	kube := &fakeKube{
		json: map[string]string{
			"-n ns get deployment tr":        deploymentJSON,
			"-n ns get service tr-svc":       serviceJSON,
			"-n ns get endpoints tr-svc":     endpointsJSON,
			"-n ns get pods -l app=terraria": podsJSON,
		},
		run: map[string]kubectl.Result{
			lsWorlds("tr-abc"):                {OK: true, Stdout: "Forest.wld\nDesert.wld\n\n"},
			"-n ns logs deploy/tr --tail=120": {OK: true, Output: "Server started"},
		},
	}
	snap := newTestManager(kube, fakeQuerier{"max(" + sink.PlayersOnline + ")": 2}).Snapshot(context.Background())

	require.True(t, snap.OK)
	require.Empty(t, snap.Issues)
	require.Equal(t, "2026-03-01T12:00:00Z", snap.Timestamp)

	require.NotNil(t, snap.Deployment)
	require.Equal(t, 1, snap.Deployment.ReplicasDesired)
	require.Equal(t, "Forest.wld", snap.Deployment.World)
	require.Equal(t, "/config", snap.Deployment.WorldPath)
	require.Equal(t, int64(7), *snap.Deployment.ObservedGeneration)

	require.NotNil(t, snap.Service)
	require.Equal(t, 30777, *snap.Service.NodePortTerraria)
	require.Equal(t, 7878, *snap.Service.PortAPI)
	require.Nil(t, snap.Service.NodePortAPI)

	require.Equal(t, 2, snap.Endpoints.Ready)
	require.Len(t, snap.Pods, 2)
	require.Equal(t, "1/2", snap.Pods[1].Ready)
	require.Equal(t, 3, snap.Pods[1].Restarts)
	require.Equal(t, "5m", *snap.Pods[1].Age)
	require.Equal(t, "0/0", snap.Pods[0].Ready)
	require.Equal(t, "2d", *snap.Pods[0].Age)

	require.Equal(t, []string{"Forest.wld", "Desert.wld"}, snap.Worlds)
	require.True(t, snap.ActiveWorldExists)
	require.Equal(t, LogTail{OK: true, Tail: "Server started"}, snap.Logs)

	require.Equal(t, 2.0, *snap.Metrics.PlayersOnline)
	require.Nil(t, snap.Metrics.SourceUp)
}

func TestSnapshot_MissingDeployment(t *testing.T) {
	snap := newTestManager(&fakeKube{}, nil).Snapshot(context.Background())

	require.False(t, snap.OK)
	require.Nil(t, snap.Deployment)
	require.Nil(t, snap.Service)
	require.Len(t, snap.Issues, 3)
	require.Empty(t, snap.Pods)
	require.Empty(t, snap.Worlds)
	require.False(t, snap.ActiveWorldExists)
	require.Equal(t, "(no logs)", snap.Logs.Tail)
	require.Nil(t, snap.Metrics.PlayersMax)
}

func TestWorlds_WorldManagerFallback(t *testing.T) {
	kube := &fakeKube{
		json: map[string]string{"-n ns get pod world-manager": `{}`},
		run:  map[string]kubectl.Result{lsWorlds("world-manager"): {OK: true, Stdout: "a.wld\n"}},
	}
	require.Equal(t, []string{"a.wld"}, newTestManager(kube, nil).Worlds(context.Background()))
}

func TestWorlds_ListFails(t *testing.T) {
	kube := &fakeKube{json: map[string]string{"-n ns get pods -l app=terraria": podsJSON}}
	require.Empty(t, newTestManager(kube, nil).Worlds(context.Background()))
}

func TestHumanAge(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want *string
	}{
		{"empty", "", nil},
		{"garbage", "yesterday", ptr("yesterday")},
		{"seconds", "2026-03-01T11:59:18Z", ptr("42s")},
		{"minutes", "2026-03-01T11:00:01Z", ptr("59m")},
		{"hours", "2026-03-01T09:00:00Z", ptr("3h")},
		{"days", "2026-02-20T12:00:00Z", ptr("9d")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HumanAge(tt.ts, testNow))
		})
	}
}

func ptr(s string) *string { return &s }

func TestWorlds_HelperPod(t *testing.T) {
	helper := "world-ui-ls-" + strconv.FormatInt(testNow.UnixMilli(), 10)
	kube := &fakeKube{
		apply: kubectl.Result{OK: true},
		run: map[string]kubectl.Result{
			"-n ns wait --for=condition=Ready pod/" + helper + " --timeout=180s": {OK: true},
			lsWorlds(helper): {OK: true, Stdout: "b.wld\n"},
		},
	}
	m := NewManager(kube, nil, Target{Namespace: "ns", AppLabel: "terraria", ConfigClaim: "tr-config", ManagerImage: "busybox"})
	m.now = func() time.Time { return testNow }

	require.Equal(t, []string{"b.wld"}, m.Worlds(context.Background()))
	require.Len(t, kube.manifests, 1)
	require.Contains(t, kube.manifests[0], "claimName: tr-config")
	require.Contains(t, kube.manifests[0], "name: "+helper)
	require.Equal(t, "-n ns delete pod "+helper+" --ignore-not-found --wait=false", kube.calls[len(kube.calls)-1])
}

func TestWorlds_HelperPodNotReady(t *testing.T) {
	kube := &fakeKube{apply: kubectl.Result{OK: true}}
	m := NewManager(kube, nil, Target{Namespace: "ns", ConfigClaim: "tr-config", ManagerImage: "busybox"})

	require.Empty(t, m.Worlds(context.Background()))
	require.Contains(t, kube.calls[len(kube.calls)-1], "delete pod world-ui-ls-", "helper is cleaned up")
}
