package objectid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObjectID_New(t *testing.T) {
	t.Run("shape", func(t *testing.T) {
		id := New()

		require.Len(t, id.String(), Length)
		require.True(t, IsValid(id.String()), "generated id must pass own validation")
		require.Regexp(t, "^[0-9a-f]{24}$", id.String(), "generated id must be lowercase hex")
	})

	t.Run("timestamp encoded", func(t *testing.T) {
		at := time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC)
		id := NewAt(at)

		got, err := id.Timestamp()

		require.NoError(t, err)
		require.True(t, at.Equal(got), "timestamp should be %v, got %v", at, got)
	})

	t.Run("unique in concurrent calls", func(t *testing.T) {
		const workers, perWorker = 8, 500

		var mu sync.Mutex
		seen := make(map[ID]struct{}, workers*perWorker)

		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perWorker {
					id := New()
					mu.Lock()
					seen[id] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Len(t, seen, workers*perWorker, "all generated ids should be unique")
	})
}

func TestObjectID_Parse(t *testing.T) {
	t.Run("valid value", func(t *testing.T) {
		tests := []struct {
			name     string
			input    string
			expected ID
		}{
			{"zeros", "000000000000000000000000", "000000000000000000000000"},
			{"lowercase", "5f1d7a3b9c0e4d2a1b3c4d5e", "5f1d7a3b9c0e4d2a1b3c4d5e"},
			{"uppercase normalized", "AAAAAAAAAAAAAAAAAAAAAAAA", "aaaaaaaaaaaaaaaaaaaaaaaa"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := Parse(tt.input)

				require.NoError(t, err)
				require.Equal(t, tt.expected, got)
			})
		}
	})

	t.Run("not valid", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"empty", ""},
			{"too short", "00000000000000000000000"},
			{"too long", "0000000000000000000000000"},
			{"not hex", "zzzzzzzzzzzzzzzzzzzzzzzz"},
			{"uuid", "123e4567-e89b-12d3-a456-426614174000"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Parse(tt.input)

				require.ErrorIs(t, err, ErrInvalidID)
			})
		}
	})
}
