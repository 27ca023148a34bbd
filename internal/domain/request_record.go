package domain

import "time"

// RequestRecord is one playground HTTP request and the response it received.
type RequestRecord struct {
	ID             string            `json:"id"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	RequestHeaders map[string]string `json:"requestHeaders"`
	RequestBody    string            `json:"requestBody,omitempty"`
	StatusCode     int               `json:"statusCode"`
	ResponseBody   string            `json:"responseBody,omitempty"`
	DurationMs     int64             `json:"durationMs"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Succeeded reports whether the request completed with a 2xx status.
func (r *RequestRecord) Succeeded() bool {
	return r.Error == "" && r.StatusCode >= 200 && r.StatusCode < 300
}
