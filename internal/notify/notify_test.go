package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	ctx := context.Background()

	Success(ctx, c, "request R1 approved")
	Error(ctx, c, "request failed with status 409")
	Warning(ctx, c, "quantity exceeds stock")

	assert.Equal(t,
		"✔ request R1 approved\n✖ request failed with status 409\n! quantity exceeds stock\n",
		buf.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	assert.Equal(t, Notification{}, r.Last())
	Success(ctx, &r, "a")
	Error(ctx, &r, "b")

	assert.Len(t, r.All(), 2)
	assert.Equal(t, Notification{Level: LevelError, Message: "b"}, r.Last())
}
