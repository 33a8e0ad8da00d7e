package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// GroupingLabel is the Pushgateway grouping key holding the task name.
const GroupingLabel = "sentinel_task"

// Push sends everything in g to a Pushgateway under job, grouped by task.
// One-shot CI runs use this since nothing would be around to be scraped.
// The grouping key is GroupingLabel because pushed series already carry a
// "task" label and the Pushgateway rejects duplicates.
func Push(ctx context.Context, gatewayURL, job, task string, g prometheus.Gatherer) error {
	pusher := push.New(gatewayURL, job).Gatherer(g)
	if task != "" {
		pusher = pusher.Grouping(GroupingLabel, task)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
