package raftnode

import (
	"testing"

	"github.com/avolokh/apply-core/api"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandToEntry(t *testing.T) {
	t.Run("put carries key and value", func(t *testing.T) {
		cmd := command{ID: uuid.New(), Kind: cmdPut, Key: []byte("k"), Value: []byte("v")}

		entry, err := cmd.toEntry(3, 17)
		require.NoError(t, err)
		assert.Equal(t, api.EntryNormal, entry.Kind)
		assert.Equal(t, api.OpPut, entry.Op)
		assert.Equal(t, uint64(3), entry.Term)
		assert.Equal(t, uint64(17), entry.Index)
		assert.Equal(t, []byte("k"), entry.Key)
		assert.Equal(t, []byte("v"), entry.Value)
	})

	t.Run("admin keeps its command", func(t *testing.T) {
		cmd := command{
			ID:   uuid.New(),
			Kind: cmdAdmin,
			Admin: &api.AdminCommand{
				Kind:         api.AdminCompactLog,
				CompactIndex: 9,
				CompactTerm:  2,
			},
		}

		entry, err := cmd.toEntry(2, 10)
		require.NoError(t, err)
		assert.Equal(t, api.EntryAdmin, entry.Kind)
		require.NotNil(t, entry.Admin)
		assert.Equal(t, uint64(9), entry.Admin.CompactIndex)
	})

	t.Run("admin without payload", func(t *testing.T) {
		_, err := command{ID: uuid.New(), Kind: cmdAdmin}.toEntry(1, 1)
		require.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := command{ID: uuid.New(), Kind: "mystery"}.toEntry(1, 1)
		require.Error(t, err)
	})
}

func TestCommandWireRoundtrip(t *testing.T) {
	in := command{ID: uuid.New(), Kind: cmdDelete, Key: []byte("gone")}

	data, err := encodeCommand(in)
	require.NoError(t, err)

	out, err := decodeCommand(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeCommand([]byte("{not json"))
	require.Error(t, err)
}
