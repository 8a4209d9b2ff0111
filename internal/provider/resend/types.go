package resend

// sendRequest is the request body for the POST /emails endpoint.
type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// sendResponse is the success response of the POST /emails endpoint.
type sendResponse struct {
	ID string `json:"id"`
}

// errorResponse is the error payload returned with non-2xx statuses.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}
