package lambda

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// Content types applied by default per body kind. A caller-declared
// Content-Type always wins.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeBinary  = "application/octet-stream"
	ContentTypeProblem = "application/problem+json"
)

// Serialize converts a typed Response into the wire Envelope. The body kind
// picks the encoding and defaults: structured values are JSON-encoded with
// status 200 and Content-Type application/json, byte slices are base64-encoded
// with status 200 and Content-Type application/octet-stream, and a nil body
// yields status 204 with a null body and no default headers. Declared status
// and headers override the defaults; a declared header with an empty value is
// dropped from the envelope. Identical responses serialize to identical
// envelopes.
func Serialize(resp *Response) (Envelope, error) {
	if resp == nil {
		resp = &Response{}
	}

	env := Envelope{Headers: make(map[string]string)}
	defaults := make(map[string]string)

	switch body := resp.Body.(type) {
	case nil:
		env.StatusCode = http.StatusNoContent
	case []byte:
		encoded := base64.StdEncoding.EncodeToString(body)
		env.Body = &encoded
		env.IsBase64Encoded = true
		env.StatusCode = http.StatusOK
		defaults["Content-Type"] = ContentTypeBinary
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal response body: %w", err)
		}
		text := string(raw)
		env.Body = &text
		env.StatusCode = http.StatusOK
		defaults["Content-Type"] = ContentTypeJSON
	}

	if resp.StatusCode != 0 {
		env.StatusCode = resp.StatusCode
	}

	for k, v := range defaults {
		env.Headers[k] = v
	}
	for k, v := range resp.Headers {
		if v == "" {
			delete(env.Headers, k)
			continue
		}
		env.Headers[k] = v
	}

	return env, nil
}
