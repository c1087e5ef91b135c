package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/brplates/controller/internal/activity"
	"github.com/brplates/controller/internal/model"
)

func newTestEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(RecognizePlateWorkflow)
	env.RegisterActivity(activity.NewPlate(nil))
	return env
}

func TestRecognizePlateWorkflow_Success(t *testing.T) {
	env := newTestEnv(t)

	plate := "ABC1234"
	expected := model.RecognitionResult{
		Plate:   &plate,
		Results: []model.ResultEntry{{Plate: plate}},
	}
	env.OnActivity("ProcessPlateImage", mock.Anything, mock.Anything).Return(expected, nil)

	env.ExecuteWorkflow(RecognizePlateWorkflow, activity.ProcessPlateParams{
		Image:       []byte("image"),
		Filename:    "input.jpg",
		ContentType: "image/jpeg",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result model.RecognitionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.NotNil(t, result.Plate)
	assert.Equal(t, "ABC1234", *result.Plate)
}

func TestRecognizePlateWorkflow_EmptyResultCompletes(t *testing.T) {
	env := newTestEnv(t)

	env.OnActivity("ProcessPlateImage", mock.Anything, mock.Anything).
		Return(model.RecognitionResult{}, nil)

	env.ExecuteWorkflow(RecognizePlateWorkflow, activity.ProcessPlateParams{Image: []byte("image")})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result model.RecognitionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Empty())
}

func TestRecognizePlateWorkflow_ActivityFailure(t *testing.T) {
	env := newTestEnv(t)

	env.OnActivity("ProcessPlateImage", mock.Anything, mock.Anything).
		Return(model.RecognitionResult{}, errors.New("plate detection failed"))

	env.ExecuteWorkflow(RecognizePlateWorkflow, activity.ProcessPlateParams{Image: []byte("image")})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plate detection failed")
}
