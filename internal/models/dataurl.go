package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const defaultMIMEType = "application/octet-stream"

// EncodeDataURL returns a data: URL embedding data as base64 with the given
// MIME type. An empty mimeType falls back to application/octet-stream.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = defaultMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL parses a base64 data: URL and returns its MIME type and raw
// bytes. Only the base64 form produced by EncodeDataURL is accepted.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL: missing payload")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL: not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL payload: %w", err)
	}
	if mimeType == "" {
		mimeType = defaultMIMEType
	}
	return mimeType, data, nil
}
