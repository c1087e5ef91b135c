package jobs

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/brplates/controller/internal/activity"
	"github.com/brplates/controller/internal/model"
	"github.com/brplates/controller/internal/platform"
	"github.com/brplates/controller/internal/workflow"
)

// Tracker runs recognition jobs through the worker pool and translates
// execution state into the public four-state job view. It is the sole
// authority for that translation.
type Tracker struct {
	tc temporalclient.Client
}

func NewTracker(tc temporalclient.Client) *Tracker {
	return &Tracker{tc: tc}
}

// Enqueue hands the image to the worker pool and returns a fresh opaque
// task ID without waiting for execution.
func (t *Tracker) Enqueue(ctx context.Context, image []byte, filename, contentType string) (string, error) {
	taskID := "plate-" + platform.NewID()

	_, err := t.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        taskID,
		TaskQueue: workflow.TaskQueue,
	}, workflow.RecognizePlateWorkflow, activity.ProcessPlateParams{
		Image:       image,
		Filename:    filename,
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("enqueue recognition job: %w", err)
	}

	return taskID, nil
}

// Status reports the current state of a job. Unknown task IDs are
// indistinguishable from not-yet-started jobs and report pending; the
// worker pool conflates the two and this layer does not resolve it.
// A failed job carries no cause.
func (t *Tracker) Status(ctx context.Context, taskID string) (model.JobView, error) {
	view := model.JobView{TaskID: taskID, Status: model.JobPending}

	desc, err := t.tc.DescribeWorkflowExecution(ctx, taskID, "")
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return view, nil
		}
		return model.JobView{}, fmt.Errorf("describe job %s: %w", taskID, err)
	}

	switch status := desc.GetWorkflowExecutionInfo().GetStatus(); status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		view.Status = model.JobStarted
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var result model.RecognitionResult
		if err := t.tc.GetWorkflow(ctx, taskID, "").Get(ctx, &result); err != nil {
			return model.JobView{}, fmt.Errorf("fetch job result %s: %w", taskID, err)
		}
		view = successView(taskID, result)
	default:
		// Failed, terminated, canceled, or timed out.
		view.Status = model.JobFailure
	}

	return view, nil
}

// successView projects a recognition result into the client-facing shape:
// the primary plate plus alternatives with the primary filtered out.
func successView(taskID string, result model.RecognitionResult) model.JobView {
	view := model.JobView{TaskID: taskID, Status: model.JobSuccess}
	if result.Empty() {
		return view
	}
	plate, alternatives := result.Projection()
	view.Plate = &plate
	view.Alternatives = alternatives
	return view
}
