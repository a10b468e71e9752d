package inject

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/olt-alarms/internal/api/grpc/simulator"
)

// TestDetectOperator ensures the user@host form is produced.
func TestDetectOperator(t *testing.T) {
	t.Parallel()

	operator, err := DetectOperator()
	require.NoError(t, err)

	user, host, found := strings.Cut(operator, "@")
	require.True(t, found)
	require.NotEmpty(t, user)
	require.NotEmpty(t, host)
}

// TestClient_callContextCarriesOperator attaches the operator as outgoing metadata.
func TestClient_callContextCarriesOperator(t *testing.T) {
	t.Parallel()

	c := new(Client)
	WithOperator("noc@olt-lab")(c)

	ctx, cancel := c.callContext(context.Background())
	defer cancel()

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	require.Equal(t, []string{"noc@olt-lab"}, md.Get(api.OperatorMetadataKey))

	// Without an operator nothing is attached.
	ctx, cancel = new(Client).callContext(context.Background())
	defer cancel()

	_, ok = metadata.FromOutgoingContext(ctx)
	require.False(t, ok)
}
