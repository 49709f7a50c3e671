package flow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowrun/flowrun/sandbox"
	"github.com/flowrun/flowrun/status"
)

// cachedResult is the JSON shape a JobResult is serialized to/from when it
// is written into or recovered from a sandbox snapshot.
type cachedResult struct {
	Status   status.Status `json:"status"`
	OriginID string        `json:"origin_id"`
	Value    any           `json:"value,omitempty"`
}

func cacheResult(ctx context.Context, root *Root, sb sandbox.Sandbox, fp string, result *JobResult) error {
	data, err := json.Marshal(cachedResult{Status: result.Status, OriginID: result.OriginID, Value: result.Value})
	if err != nil {
		return fmt.Errorf("flow: marshal job result: %w", err)
	}
	if err := root.Manager.SetJobResultToSandbox(ctx, sb, data); err != nil {
		return err
	}
	return root.Manager.TakeSnapshot(ctx, sb, fp)
}

func loadCachedResult(ctx context.Context, root *Root, fp string) (*JobResult, error) {
	data, err := root.Manager.GetJobResultFromSnapshot(ctx, fp)
	if err != nil {
		return nil, err
	}
	var cr cachedResult
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("flow: unmarshal cached job result: %w", err)
	}
	return &JobResult{Status: cr.Status, OriginID: cr.OriginID, Value: cr.Value}, nil
}
