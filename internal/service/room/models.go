package room

type PlayerState struct {
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
}

type Participant struct {
	ConnId string `json:"connection_id"`
	IsHost bool   `json:"is_host"`
}

type ChatMessage struct {
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
