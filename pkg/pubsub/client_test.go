package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/retailpos-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/orders", topicResourceName("p1", "orders"))
	assert.Equal(t, "projects/other/topics/x", topicResourceName("p1", "projects/other/topics/x"))
	assert.Equal(t, "", topicResourceName("p1", "  "))
	assert.Equal(t, "", topicResourceName("", "orders"))
}

func TestCleanNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, cleanNames([]string{" a ", "", "b"}))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, []string{"orders"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
