package action

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptionNameMissing(t *testing.T) {
	t.Parallel()

	d := NewDescription(Pair{Key: "other", Value: "x"})
	_, err := d.Name()
	require.Error(t, err)
}

func TestDescriptionNamePresent(t *testing.T) {
	t.Parallel()

	d := NewDescription(Pair{Key: "name", Value: "TestActionBasic"})
	name, err := d.Name()
	require.NoError(t, err)
	require.Equal(t, "TestActionBasic", name)
}

func TestDescriptionDuplicateKeyKeepsLastValue(t *testing.T) {
	t.Parallel()

	d := NewDescription(
		Pair{Key: "shard_id", Value: "1"},
		Pair{Key: "shard_id", Value: "2"},
	)
	v, ok := d.Get("shard_id")
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestDescriptionHashOrderIndependent(t *testing.T) {
	t.Parallel()

	a := NewDescription(Pair{Key: "name", Value: "X"}, Pair{Key: "shard_id", Value: "1"})
	b := NewDescription(Pair{Key: "shard_id", Value: "1"}, Pair{Key: "name", Value: "X"})

	require.Equal(t, a.Hash(), b.Hash())
	require.True(t, a.Equals(b))
}

func TestDescriptionHashDiffersOnValue(t *testing.T) {
	t.Parallel()

	a := NewDescription(Pair{Key: "name", Value: "X"})
	b := NewDescription(Pair{Key: "name", Value: "Y"})

	require.NotEqual(t, a.Hash(), b.Hash())
	require.False(t, a.Equals(b))
}

func TestNewDescriptionFromMapIsOrderIndependent(t *testing.T) {
	t.Parallel()

	m := map[string]string{"name": "X", "shard_id": "1", "target_node": "n2"}
	a := NewDescriptionFromMap(m)
	b := NewDescription(
		Pair{Key: "target_node", Value: "n2"},
		Pair{Key: "name", Value: "X"},
		Pair{Key: "shard_id", Value: "1"},
	)

	require.Equal(t, a.Hash(), b.Hash())
}
