package models

// AssetRequest addresses one asset by path, e.g. /api/scores/btc.
type AssetRequest struct {
	Asset string `param:"asset" validate:"required,alphanum,max=16"`
}

// HistoryRequest carries /api/scores/:asset/history parameters.
// From and To accept YYYY-MM-DD, RFC3339 or unix seconds.
type HistoryRequest struct {
	Asset string `param:"asset" validate:"required,alphanum,max=16"`
	From  string `query:"from"`
	To    string `query:"to"`
	Limit int    `query:"limit" default:"1000" validate:"gte=1"`
}

type RunResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Store      string `json:"store"`
	Running    bool   `json:"running"`
	LastReport string `json:"last_report,omitempty"`
}
