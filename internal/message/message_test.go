package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingEnvelope struct {
	destroyCount int
}

func (ce *countingEnvelope) Destroy() {
	ce.destroyCount++
}

func Test_Message_Destroy(t *testing.T) {
	assert := assert.New(t)

	env := &countingEnvelope{}
	msg := NewMessage(env)

	assert.False(msg.IsDestroyed())
	assert.True(msg.Destroy())
	assert.False(msg.Destroy())

	assert.True(msg.IsDestroyed())
	assert.Equal(1, env.destroyCount)
}

func Test_Message_Metadata(t *testing.T) {
	assert := assert.New(t)

	env := &countingEnvelope{}
	msg := NewMessage(env)

	now := time.Now()
	msg.SetReceiveTime(now)
	msg.SetTimestamp(now.Add(time.Second))
	msg.SetSequenceNumber(7)

	assert.Equal(now, msg.GetReceiveTime())
	assert.Equal(now.Add(time.Second), msg.GetTimestamp())
	assert.Equal(uint64(7), msg.GetSequenceNumber())
	assert.Same(env, msg.GetEnvelope())
}
