package eventstest

import (
	"context"
	"testing"

	"github.com/raushankrgupta/tailor-connect/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderKeepsOrderAndCopies(t *testing.T) {
	var r Recorder
	var p events.Publisher = &r

	require.NoError(t, p.Publish(context.Background(), events.Envelope{Subject: events.SubjectSignedIn, UID: "u1"}))
	require.NoError(t, p.Publish(context.Background(), events.Envelope{Subject: events.SubjectSignedOut, UID: "u1"}))

	got := r.Events()
	require.Len(t, got, 2)
	assert.Equal(t, events.SubjectSignedIn, got[0].Subject)
	assert.Equal(t, events.SubjectSignedOut, got[1].Subject)

	got[0].UID = "changed"
	assert.Equal(t, "u1", r.Events()[0].UID)

	assert.False(t, r.Closed())
	require.NoError(t, p.Close())
	assert.True(t, r.Closed())
}
