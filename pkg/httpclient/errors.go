package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// RemoteErrorResponse mirrors the error body returned by the commerce API.
// Message is either a string or, for field validation failures, a list of
// strings.
type RemoteErrorResponse struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// text returns the server message, joining list messages with "; ".
func (r RemoteErrorResponse) text() string {
	if len(r.Message) == 0 {
		return r.Error
	}
	var single string
	if json.Unmarshal(r.Message, &single) == nil {
		return single
	}
	var list []string
	if json.Unmarshal(r.Message, &list) == nil {
		return strings.Join(list, "; ")
	}
	return r.Error
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into a RemoteRejected AppError carrying the server's message verbatim.
// When the body carries no usable message, fallback is used instead.
//
// The caller should only invoke this when resp.StatusCode indicates an error
// (i.e., not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, fallback string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return apperrors.RemoteUnreachable(err)
	}

	var remote RemoteErrorResponse
	if json.Unmarshal(bodyBytes, &remote) == nil {
		if msg := strings.TrimSpace(remote.text()); msg != "" {
			return apperrors.RemoteRejected(resp.StatusCode, msg)
		}
	}

	return apperrors.RemoteRejected(resp.StatusCode, fallback)
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

// IsSuccess returns true for 2xx status codes.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
