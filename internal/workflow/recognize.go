package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/brplates/controller/internal/activity"
	"github.com/brplates/controller/internal/model"
)

// TaskQueue is the Temporal task queue recognition jobs run on.
const TaskQueue = "plate-recognition"

// RecognizePlateWorkflow executes one recognition pipeline run. The
// pipeline is a single unit of work: the activity is not retried, since
// the detector contract is a single attempt and a re-run would repeat the
// whole remote round trip.
func RecognizePlateWorkflow(ctx workflow.Context, params activity.ProcessPlateParams) (model.RecognitionResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 3 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var result model.RecognitionResult
	if err := workflow.ExecuteActivity(ctx, "ProcessPlateImage", params).Get(ctx, &result); err != nil {
		return model.RecognitionResult{}, err
	}
	return result, nil
}
