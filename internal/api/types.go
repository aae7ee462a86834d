package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DaemonStatus summarizes daemon runtime state.
type DaemonStatus struct {
	Running       bool          `json:"running"`
	PID           int           `json:"pid"`
	StartedAt     string        `json:"startedAt,omitempty"`
	UptimeSeconds int64         `json:"uptimeSeconds"`
	WaitSeconds   int           `json:"waitSeconds"`
	Workers       int           `json:"workers"`
	Pending       int           `json:"pending"`
	InFlight      int           `json:"inFlight"`
	PollOffset    int64         `json:"pollOffset"`
	StoreDriver   string        `json:"storeDriver"`
	StoreTarget   string        `json:"storeTarget"`
	LockFilePath  string        `json:"lockFilePath"`
	Catalog       CatalogTotals `json:"catalog"`
}

// CatalogTotals mirrors catalog.Stats.
type CatalogTotals struct {
	Movies    int `json:"movies"`
	Qualities int `json:"qualities"`
	Posted    int `json:"posted"`
}

// Movie describes a catalog record in a transport-friendly format.
type Movie struct {
	Key              string    `json:"key"`
	Title            string    `json:"title"`
	Year             uint16    `json:"year,omitempty"`
	GroupID          string    `json:"groupId"`
	DeepLink         string    `json:"deepLink"`
	PosterRef        string    `json:"posterRef,omitempty"`
	DownstreamPostID string    `json:"downstreamPostId,omitempty"`
	Posted           bool      `json:"posted"`
	Caption          string    `json:"caption,omitempty"`
	Qualities        []Quality `json:"qualities"`
	CreatedAt        string    `json:"createdAt,omitempty"`
	UpdatedAt        string    `json:"updatedAt,omitempty"`
}

// Quality is one file of a movie record.
type Quality struct {
	FileName     string   `json:"fileName"`
	FileUniqueID string   `json:"fileUniqueId"`
	FileRef      string   `json:"fileRef,omitempty"`
	SizeBytes    uint64   `json:"sizeBytes"`
	Quality      string   `json:"quality,omitempty"`
	Resolution   string   `json:"resolution,omitempty"`
	Codec        string   `json:"codec,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	AudioFormat  string   `json:"audioFormat,omitempty"`
	AudioBitrate string   `json:"audioBitrate,omitempty"`
	HasSubtitles bool     `json:"hasSubtitles"`
}

// MovieListResponse wraps GET /api/movies.
type MovieListResponse struct {
	Movies []Movie `json:"movies"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
