package room

// PlayerState is the stored playback state of a room. A room that was
// never written reads back as the zero value.
type PlayerState struct {
	CurrentTime float64 `redis:"current_time" json:"current_time"`
	IsPlaying   bool    `redis:"is_playing" json:"is_playing"`
	UpdatedAt   int64   `redis:"updated_at" json:"updated_at"`
}

type SetPlayerStateParams struct {
	CurrentTime float64
	IsPlaying   bool
	UpdatedAt   int64
	RoomId      string
}

type AddMemberParams struct {
	ConnId string
	RoomId string
}

type RemoveMemberParams struct {
	ConnId string
	RoomId string
}
