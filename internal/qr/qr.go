// Package qr renders check-in tokens as PNG QR codes.
package qr

import (
	"encoding/base64"
	"errors"

	"github.com/skip2/go-qrcode"
)

// Width is the edge length, in pixels, of every rendered code.
const Width = 400

const dataURLPrefix = "data:image/png;base64,"

// PNG encodes content as a Width x Width PNG at medium error correction.
// go-qrcode only knows its standard four-module quiet zone or none at all;
// the standard one is kept so phone scanners lock on reliably.
func PNG(content string) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr: empty content")
	}
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return q.PNG(Width)
}

// DataURL wraps png bytes in a data URI.
func DataURL(png []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png)
}

// Encode renders content and returns both the raw PNG and its data URI.
func Encode(content string) ([]byte, string, error) {
	png, err := PNG(content)
	if err != nil {
		return nil, "", err
	}
	return png, DataURL(png), nil
}
