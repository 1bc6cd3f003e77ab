package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScan_Local(t *testing.T) {
	page := &stubPage{heading: "Demo App", images: images("https://cdn.example.com/1.png", "https://cdn.example.com/2.png")}
	a, _ := newTestAgent(t, page, 0)

	meta, resp, err := RunScan(context.Background(), LocalClient{Agent: a}, time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, "Demo App", meta.Name)
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, 2, resp.Count)
}

func TestRunScan_TimeoutAborts(t *testing.T) {
	page := &stubPage{
		heading: "Demo App",
		images:  images("https://cdn.example.com/1.png"),
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	a, st := newTestAgent(t, page, 0)

	_, _, err := RunScan(context.Background(), LocalClient{Agent: a}, 50*time.Millisecond, nil)
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeTimeout))

	close(page.gate)
	assert.Eventually(t, func() bool { return a.State() == StateIdle }, 5*time.Second, 10*time.Millisecond)

	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRunScan_ErrorResponse(t *testing.T) {
	a, _ := newTestAgent(t, &stubPage{heading: "Demo App"}, 0)

	_, resp, err := RunScan(context.Background(), LocalClient{Agent: a}, time.Minute, nil)
	require.Error(t, err)
	assert.Equal(t, models.StatusError, resp.Status)
	assert.True(t, engine.HasCode(err, engine.ErrCodeNoScreens))
}

type failingClient struct{}

func (failingClient) Send(ctx context.Context, msg models.Message) (models.Response, error) {
	return models.Response{}, communicationError(errors.New("connection refused"))
}

func TestRunScan_Unreachable(t *testing.T) {
	_, _, err := RunScan(context.Background(), failingClient{}, time.Minute, nil)
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeCommunication))
	assert.Equal(t, engine.MsgCommunication, engine.MessageOf(err))
}

func TestRemoteClient_Unreachable(t *testing.T) {
	c := NewRemoteClient("127.0.0.1:1", nil)
	_, err := c.Send(context.Background(), models.Message{Action: models.ActionPing})
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeCommunication))
}
