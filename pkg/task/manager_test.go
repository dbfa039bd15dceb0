package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingTask(name string, events *[]string, startErr error) *FuncTask {
	return &FuncTask{
		TaskName: name,
		StartFunc: func(ctx context.Context) error {
			if startErr != nil {
				return startErr
			}
			*events = append(*events, "start:"+name)
			return nil
		},
		StopFunc: func() error {
			*events = append(*events, "stop:"+name)
			return nil
		},
	}
}

func TestManager_StartStopOrder(t *testing.T) {
	var events []string
	m := NewManager()
	m.Register(recordingTask("a", &events, nil))
	m.Register(recordingTask("b", &events, nil))

	require.NoError(t, m.StartAll(context.Background()))
	require.NoError(t, m.StartAll(context.Background()))
	m.StopAll()

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
}

func TestManager_RollbackOnFailure(t *testing.T) {
	var events []string
	m := NewManager()
	m.Register(recordingTask("a", &events, nil))
	m.Register(recordingTask("b", &events, errors.New("boom")))

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, []string{"start:a", "stop:a"}, events)
}
