package state_test

import (
	"os"
	"path/filepath"
	"testing"

	logmocks "github.com/JulianoL13/tube-summary-engine/internal/logs/mocks"
	"github.com/JulianoL13/tube-summary-engine/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping(t *testing.T) {
	t.Run("enqueue skips seen videos", func(t *testing.T) {
		m := &state.Mapping{
			Processed:   []string{"done1"},
			Unprocessed: []string{"queued1"},
		}

		assert.True(t, m.Enqueue("fresh"))
		assert.False(t, m.Enqueue("fresh"))
		assert.False(t, m.Enqueue("done1"))
		assert.False(t, m.Enqueue("queued1"))
		assert.Equal(t, []string{"queued1", "fresh"}, m.Unprocessed)
	})

	t.Run("mark processed moves from queue", func(t *testing.T) {
		m := &state.Mapping{Unprocessed: []string{"a", "b", "c"}}

		m.MarkProcessed("b")

		assert.Equal(t, []string{"a", "c"}, m.Unprocessed)
		assert.Equal(t, []string{"b"}, m.Processed)
	})

	t.Run("mark processed on unqueued video records it", func(t *testing.T) {
		m := &state.Mapping{}

		m.MarkProcessed("short1")
		m.MarkProcessed("short1")

		assert.Equal(t, []string{"short1"}, m.Processed)
		assert.Empty(t, m.Unprocessed)
	})
}

func TestFileStore(t *testing.T) {
	newStore := func(t *testing.T) (*state.FileStore, string) {
		t.Helper()
		path := filepath.Join(t.TempDir(), "data.json")
		return state.NewFileStore(path, logmocks.LoggerMock{}), path
	}

	t.Run("round trip", func(t *testing.T) {
		store, _ := newStore(t)

		mappings := []*state.Mapping{
			{
				YouTubeChannelID:  "UCabc",
				TelegramChannelID: "@techdigest",
				Prompt: state.Prompt{
					System: "You summarize tech talks.",
					User:   "Summarize this: {transcript}",
				},
				Processed:   []string{"v1"},
				Unprocessed: []string{"v2", "v3"},
			},
		}
		require.NoError(t, store.Save(mappings))

		loaded := store.Load()
		require.Len(t, loaded, 1)
		assert.Equal(t, "UCabc", loaded[0].YouTubeChannelID)
		assert.Equal(t, "@techdigest", loaded[0].TelegramChannelID)
		assert.Equal(t, "Summarize this: {transcript}", loaded[0].Prompt.User)
		assert.Equal(t, []string{"v1"}, loaded[0].Processed)
		assert.Equal(t, []string{"v2", "v3"}, loaded[0].Unprocessed)
	})

	t.Run("missing file loads empty", func(t *testing.T) {
		store, _ := newStore(t)
		assert.Empty(t, store.Load())
	})

	t.Run("corrupt file loads empty", func(t *testing.T) {
		store, path := newStore(t)
		require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
		assert.Empty(t, store.Load())
	})

	t.Run("nil queues load as empty slices", func(t *testing.T) {
		store, path := newStore(t)
		doc := `{"channel_mappings":[{"youtube_channel_id":"UCx","telegram_channel_id":"@x","prompt":{"system":"s","user":"u"}}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		loaded := store.Load()
		require.Len(t, loaded, 1)
		assert.NotNil(t, loaded[0].Processed)
		assert.NotNil(t, loaded[0].Unprocessed)
	})
}
