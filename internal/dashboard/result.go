package dashboard

// Source says where widget data came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)

// rank orders sources from best to worst.
func (s Source) rank() int {
	switch s {
	case SourceLive:
		return 0
	case SourceCached:
		return 1
	default:
		return 2
	}
}

// Result is widget data labelled with its origin. Reason is set whenever
// Source is not live.
type Result[T any] struct {
	Provider string `json:"provider"`
	Source   Source `json:"source"`
	Reason   string `json:"reason,omitempty"`
	Data     T      `json:"data"`
}

// OverviewItem is one provider's entry in the overview. Error carries a
// user-facing message when the provider could not be read at all.
type OverviewItem struct {
	Provider string `json:"provider"`
	AppType  string `json:"appType"`
	Source   Source `json:"source,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
	Data     any    `json:"data,omitempty"`
}

type Overview struct {
	Widgets []OverviewItem `json:"widgets"`
}

// Counts is the overview payload for list-shaped widgets.
type Counts struct {
	Total int `json:"total"`
}
