package overlay

// Status describes what the popup body currently shows.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

const loadingBody = `<div class="loading">Looking up...</div>`

// View is a fully rendered popup state.
type View struct {
	Header     string `json:"header"`
	Body       string `json:"body"`
	PitchColor string `json:"pitchColor"`
	Index      int    `json:"index"`
	Count      int    `json:"count"`
	Status     Status `json:"status"`
}
