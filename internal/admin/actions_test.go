package admin

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/and161185/terraria-exporter/internal/kubectl"
)

func actionRequest(t *testing.T, body string) ActionRequest {
	t.Helper()
	var req ActionRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestActionCommands(t *testing.T) {
	restart := []string{"-n", "ns", "rollout", "restart", "deployment/tr"}
	tests := []struct {
		name    string
		body    string
		want    [][]string
		wantErr bool
	}{
		{"start", `{"action":"start"}`, [][]string{{"-n", "ns", "scale", "deployment/tr", "--replicas=1"}}, false},
		{"stop", `{"action":" STOP "}`, [][]string{{"-n", "ns", "scale", "deployment/tr", "--replicas=0"}}, false},
		{"restart", `{"action":"restart"}`, [][]string{restart}, false},
		{"set world", `{"action":"set_world","world_name":"Forest"}`, [][]string{
			{"-n", "ns", "set", "env", "deployment/tr", "world=Forest.wld", "worldpath=/config"},
			restart,
		}, false},
		{"set world no restart", `{"action":"set_world","world_name":"a.wld","restart":"no"}`, [][]string{
			{"-n", "ns", "set", "env", "deployment/tr", "world=a.wld", "worldpath=/config"},
		}, false},
		{"set world null restart", `{"action":"set_world","world_name":"a.wld","restart":null}`, [][]string{
			{"-n", "ns", "set", "env", "deployment/tr", "world=a.wld", "worldpath=/config"},
			restart,
		}, false},
		{"set world without name", `{"action":"set_world"}`, nil, true},
		{"unknown", `{"action":"explode"}`, nil, true},
		{"missing", `{}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ActionCommands("ns", "tr", actionRequest(t, tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestActionCommands_Unsupported(t *testing.T) {
	_, err := ActionCommands("ns", "tr", actionRequest(t, `{"action":"delete"}`))
	require.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestRunAction_StopsAtFirstFailure(t *testing.T) {
	kube := &fakeKube{run: map[string]kubectl.Result{}}
	res := RunAction(context.Background(), kube, "kubectl", "ns", "tr",
		actionRequest(t, `{"action":"set_world","world_name":"a"}`))

	require.False(t, res.OK)
	require.Equal(t, "set_world", res.Action)
	require.Len(t, res.Results, 1, "restart is not attempted")
	require.Equal(t, []string{"kubectl", "-n", "ns", "set", "env", "deployment/tr", "world=a.wld", "worldpath=/config"},
		res.Results[0].Command)
	require.Len(t, kube.calls, 1)
}

func TestRunAction_Success(t *testing.T) {
	kube := &fakeKube{run: map[string]kubectl.Result{
		"-n ns rollout restart deployment/tr": {OK: true, Stdout: "restarted"},
	}}
	res := RunAction(context.Background(), kube, "kubectl", "ns", "tr", actionRequest(t, `{"action":"restart"}`))

	require.True(t, res.OK)
	require.Len(t, res.Results, 1)
	require.Equal(t, "restarted", res.Results[0].Stdout)
}

func TestRunAction_InvalidRequest(t *testing.T) {
	kube := &fakeKube{}
	res := RunAction(context.Background(), kube, "kubectl", "ns", "tr", actionRequest(t, `{"action":"nope"}`))
	require.False(t, res.OK)
	require.Contains(t, res.Error, "unsupported action")
	require.Empty(t, kube.calls)
}
