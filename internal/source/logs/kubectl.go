package logs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/and161185/terraria-exporter/internal/kubectl"
	"github.com/and161185/terraria-exporter/internal/source"
)

// KubectlSource reads the deployment log through the cluster CLI, for
// exporters running outside the cluster.
type KubectlSource struct {
	Runner     *kubectl.Runner
	Namespace  string
	Deployment string
	Container  string
}

func (k KubectlSource) Tail(ctx context.Context, lines int) (Chunk, error) {
	target := "deployment/" + k.Deployment
	args := []string{"-n", k.Namespace, "logs", target, "--tail=" + strconv.Itoa(lines)}
	if k.Container != "" {
		args = append(args, "-c", k.Container)
	}

	// The caller's context carries the deadline.
	res := k.Runner.Run(ctx, 0, args...)
	if !res.OK {
		return Chunk{Pod: target}, fmt.Errorf("%w: kubectl logs exited %d: %s", source.ErrSourceUnavailable, res.ExitCode, res.Output)
	}
	return Chunk{Pod: target, Text: []byte(res.Stdout)}, nil
}
