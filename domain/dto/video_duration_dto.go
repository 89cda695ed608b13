package dto

// Res is the generic error envelope.
type Res struct {
	ResponseCode    string      `json:"responseCode"`
	ResponseMessage string      `json:"responseMessage"`
	Data            interface{} `json:"data,omitempty"`
}

type ResolveDurationRequest struct {
	Content string `json:"content" binding:"required"`
	// BypassCache forces the strategy chain even when a cached value exists.
	BypassCache bool `json:"bypassCache,omitempty"`
}

type ResolveDurationResponse struct {
	ExternalID string `json:"externalId,omitempty"`
	Seconds    int    `json:"seconds"`
	Source     string `json:"source"`
	ResolvedAt string `json:"resolvedAt"`
	FromCache  bool   `json:"fromCache"`
}
