package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/terraria-exporter/internal/kubectl"
)

const actionTimeout = 120 * time.Second

// ErrUnsupportedAction is returned for an action name the UI does not offer.
var ErrUnsupportedAction = errors.New("unsupported action")

// Kubectl runs the cluster CLI. *kubectl.Runner implements it.
type Kubectl interface {
	Run(ctx context.Context, timeout time.Duration, args ...string) kubectl.Result
	JSON(ctx context.Context, timeout time.Duration, into any, args ...string) error
	Apply(ctx context.Context, timeout time.Duration, manifest string) kubectl.Result
	Exec(ctx context.Context, c kubectl.Command) kubectl.Result
}

// CommandResult is one executed command.
type CommandResult struct {
	Command []string `json:"command"`
	kubectl.Result
}

// ActionResult is the reply of POST /api/server-action.
type ActionResult struct {
	OK      bool            `json:"ok"`
	Action  string          `json:"action,omitempty"`
	Error   string          `json:"error,omitempty"`
	Results []CommandResult `json:"results,omitempty"`
}

// ActionCommands returns the CLI argument lists that implement action.
func ActionCommands(namespace, deployment string, req ActionRequest) ([][]string, error) {
	target := "deployment/" + deployment
	restart := []string{"-n", namespace, "rollout", "restart", target}

	switch action := strings.ToLower(strings.TrimSpace(req.Action.or(""))); action {
	case "start":
		return [][]string{{"-n", namespace, "scale", target, "--replicas=1"}}, nil
	case "stop":
		return [][]string{{"-n", namespace, "scale", target, "--replicas=0"}}, nil
	case "restart":
		return [][]string{restart}, nil
	case "set_world":
		name := strings.TrimSpace(req.WorldName.or(""))
		if name == "" {
			return nil, errors.New("world_name is required for set_world")
		}
		cmds := [][]string{{"-n", namespace, "set", "env", target, "world=" + withWorldSuffix(name), "worldpath=/config"}}
		if req.Restart.or(true) {
			cmds = append(cmds, restart)
		}
		return cmds, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}
}

// RunAction executes the commands of an action in order and stops at the
// first failure.
func RunAction(ctx context.Context, kube Kubectl, bin, namespace, deployment string, req ActionRequest) ActionResult {
	cmds, err := ActionCommands(namespace, deployment, req)
	if err != nil {
		return ActionResult{Error: err.Error()}
	}

	res := ActionResult{OK: true, Action: strings.ToLower(strings.TrimSpace(req.Action.or("")))}
	for _, args := range cmds {
		r := kube.Run(ctx, actionTimeout, args...)
		res.Results = append(res.Results, CommandResult{Command: append([]string{bin}, args...), Result: r})
		if !r.OK {
			res.OK = false
			break
		}
	}
	return res
}
