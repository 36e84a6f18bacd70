package auth

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Segment helpers only; claim validation in jwt.Parser is never used.
var (
	segmentToken  = new(jwt.Token)
	segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())
)

// EncodeSegment applies URL-safe base64 with padding stripped.
func EncodeSegment(data []byte) string {
	return segmentToken.EncodeSegment(data)
}

// DecodeSegment reverses EncodeSegment. Trailing padding is tolerated.
func DecodeSegment(seg string) ([]byte, error) {
	data, err := segmentParser.DecodeSegment(seg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return data, nil
}

func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return EncodeSegment(raw), nil
}

func decodeJSON(seg string, v any) error {
	raw, err := DecodeSegment(seg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return nil
}
