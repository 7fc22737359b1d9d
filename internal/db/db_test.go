package db

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partygames/internal/events"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() {
		database.conn.Exec("DELETE FROM game_players")
		database.conn.Exec("DELETE FROM games")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	assert.NoError(t, database.Ping())
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	// running twice is harmless
	require.NoError(t, database.Migrate())

	for _, table := range []string{"games", "game_players"} {
		var exists bool
		err := database.conn.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)
		`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s does not exist", table)
	}
}

func TestCreateAndEndGame(t *testing.T) {
	database := getTestDB(t)
	id := uuid.New()
	started := time.Now().Add(-time.Minute).Truncate(time.Millisecond)

	require.NoError(t, database.CreateGame(id, 4321, "guess_word", started))
	// a duplicate start is ignored
	require.NoError(t, database.CreateGame(id, 4321, "guess_word", started))

	g, err := database.GetGame(id)
	require.NoError(t, err)
	assert.Equal(t, 4321, g.RoomID)
	assert.Equal(t, "guess_word", g.GameType)
	assert.Nil(t, g.EndedAt)

	require.NoError(t, database.EndGame(id, 4321, "guess_word", true, time.Now()))
	g, err = database.GetGame(id)
	require.NoError(t, err)
	require.NotNil(t, g.EndedAt)
	assert.True(t, g.Forced)
	assert.True(t, g.StartedAt.Equal(started))
}

func TestEndGame_WithoutStart(t *testing.T) {
	database := getTestDB(t)
	id := uuid.New()

	require.NoError(t, database.EndGame(id, 7, "arrange_number", false, time.Now()))
	g, err := database.GetGame(id)
	require.NoError(t, err)
	assert.NotNil(t, g.EndedAt)
}

func TestGetGame_NotFound(t *testing.T) {
	database := getTestDB(t)
	_, err := database.GetGame(uuid.New())
	assert.Error(t, err)
}

func TestAddGamePlayer(t *testing.T) {
	database := getTestDB(t)
	id := uuid.New()
	require.NoError(t, database.CreateGame(id, 1, "guess_word", time.Now()))

	require.NoError(t, database.AddGamePlayer(id, 3, "Carol", 2))
	// upsert
	require.NoError(t, database.AddGamePlayer(id, 3, "Carol", 4))

	players, err := database.GetGamePlayers(id)
	require.NoError(t, err)
	assert.Equal(t, []GamePlayer{{UID: 3, Name: "Carol", Score: 4}}, players)
}

func TestBatchRecordEvents(t *testing.T) {
	database := getTestDB(t)
	id := uuid.New()
	now := time.Now()

	err := database.BatchRecordEvents([]events.Event{
		{Kind: events.GameStarted, GameID: id, RoomID: 55, GameType: "arrange_number", At: now},
		{Kind: events.GameEnded, GameID: id, RoomID: 55, GameType: "arrange_number", At: now.Add(time.Minute),
			Players: []events.Participant{{UID: 1, Name: "Alice", Score: 0}, {UID: 2, Name: "Bob", Score: 3}}},
	})
	require.NoError(t, err)

	g, err := database.GetGame(id)
	require.NoError(t, err)
	assert.NotNil(t, g.EndedAt)
	assert.False(t, g.Forced)

	players, err := database.GetGamePlayers(id)
	require.NoError(t, err)
	assert.Len(t, players, 2)
}
