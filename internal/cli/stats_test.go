package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pose-feedback/internal/database"
)

type fakeCounter map[string]*database.SessionCounts

func (f fakeCounter) GetSessionCounts(_ context.Context, sessionID string) (*database.SessionCounts, error) {
	counts, ok := f[sessionID]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return counts, nil
}

func TestPrintStats(t *testing.T) {
	db := fakeCounter{
		"s1":    {Total: 8, Correct: 6, Incorrect: 2},
		"empty": {},
	}

	var out bytes.Buffer
	require.NoError(t, printStats(context.Background(), db, []string{"s1", "empty"}, &out))
	assert.Equal(t,
		"session s1: 8 events, 6 correct, 2 incorrect (75.0% correct)\n"+
			"session empty: 0 events, 0 correct, 0 incorrect (0.0% correct)\n",
		out.String())

	err := printStats(context.Background(), db, []string{"s1", "down"}, &out)
	assert.ErrorContains(t, err, "session down")
}
