package protocol

import "fmt"

// GameVersion must match the version a client reports before it may name
// itself or enter a room.
const GameVersion uint32 = 3

// CountdownSecs is the delay between a start request and the game starting.
const CountdownSecs = 5

// ClientOp is the first byte of every frame a client sends.
type ClientOp uint8

const (
	ClientName ClientOp = iota
	ClientJoinGame
	ClientLeaveGame
	ClientStart
	ClientCancelStart
	ClientQuestion
	ClientGuess
	ClientVote
	ClientChat
	ClientGiveUp
	ClientVersion
	ClientCreateRoom
	ClientJoinRoom
	ClientLeaveRoom
	ClientSetMaxNumber
	ClientSetNumberGroupCount
	ClientSetNumberPerPlayer
	ClientPoseNumber
	ClientSetUrgent
)

var clientOpNames = [...]string{
	"NAME", "JOIN_GAME", "LEAVE_GAME", "START", "CANCEL_START", "QUESTION",
	"GUESS", "VOTE", "CHAT", "GIVE_UP", "VERSION", "CREATE_ROOM", "JOIN_ROOM",
	"LEAVE_ROOM", "SET_MAX_NUMBER", "SET_NUMBER_GROUP_COUNT",
	"SET_NUMBER_PER_PLAYER", "POSE_NUMBER", "SET_URGENT",
}

func (op ClientOp) String() string {
	if int(op) < len(clientOpNames) {
		return clientOpNames[op]
	}
	return fmt.Sprintf("CLIENT_OP(%d)", uint8(op))
}

// ServerOp is the first byte of every frame the server sends.
type ServerOp uint8

const (
	ServerInit ServerOp = iota
	ServerConnect
	ServerDisconnect
	ServerName
	ServerJoinGame
	ServerLeaveGame
	ServerStartCountdown
	ServerStart
	ServerGameState
	ServerPlayerOrder
	ServerQuestion
	ServerSuccess
	ServerGuess
	ServerVote
	ServerGuessAgain
	ServerGuessRecord
	ServerEnd
	ServerChat
	ServerSkipGuess
	ServerVersion
	ServerRoomID
	ServerSettings
	ServerUID
	ServerPlayerNumbers
	ServerPoseNumber
	ServerUrgentPlayer
)

var serverOpNames = [...]string{
	"INIT", "CONNECT", "DISCONNECT", "NAME", "JOIN_GAME", "LEAVE_GAME",
	"START_COUNTDOWN", "START", "GAMESTATE", "PLAYER_ORDER", "QUESTION",
	"SUCCESS", "GUESS", "VOTE", "GUESS_AGAIN", "GUESS_RECORD", "END", "CHAT",
	"SKIP_GUESS", "VERSION", "ROOM_ID", "SETTINGS", "UID", "PLAYER_NUMBERS",
	"POSE_NUMBER", "URGENT_PLAYER",
}

func (op ServerOp) String() string {
	if int(op) < len(serverOpNames) {
		return serverOpNames[op]
	}
	return fmt.Sprintf("SERVER_OP(%d)", uint8(op))
}

// GameType selects which game a room hosts.
type GameType uint8

const (
	GuessWord     GameType = 1
	ArrangeNumber GameType = 2
)

func (g GameType) String() string {
	switch g {
	case GuessWord:
		return "guess_word"
	case ArrangeNumber:
		return "arrange_number"
	}
	return fmt.Sprintf("game_type(%d)", uint8(g))
}

// Room id replies other than a real id.
const (
	RoomCreateFailed int32 = -1
	RoomNotFound     int32 = -2
)
