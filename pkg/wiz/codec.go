package wiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Response is a decoded success envelope.
type Response[T any] struct {
	Method string `json:"method"`
	Env    string `json:"env"`
	Result T      `json:"result"`
}

type errorEnvelope struct {
	Method string `json:"method"`
	Env    string `json:"env"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type successEnvelope struct {
	Method string          `json:"method"`
	Env    string          `json:"env"`
	Result json.RawMessage `json:"result"`
}

// validator is implemented by result types with required fields.
type validator interface {
	validate() error
}

// Encode serializes a request to its wire form.
func Encode(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("wiz: encode %s: %w", req.Method, err)
	}
	return data, nil
}

// DecodeResponse decodes a device reply.
//
// The error envelope is tried first: a reply carrying an "error" object is
// always a *ProtocolError. Otherwise the reply must carry a "result" that
// decodes into T, or an *UnrecognizedResponseError holding the raw text is
// returned.
func DecodeResponse[T any](data []byte) (*Response[T], error) {
	if !utf8.Valid(data) {
		return nil, ErrEncoding
	}
	text := string(data)

	var errEnv errorEnvelope
	if err := json.Unmarshal(data, &errEnv); err == nil && errEnv.Error != nil {
		return nil, &ProtocolError{
			Method:  errEnv.Method,
			Code:    errEnv.Error.Code,
			Message: errEnv.Error.Message,
		}
	}

	var env successEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &UnrecognizedResponseError{Raw: text, Err: err}
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, &UnrecognizedResponseError{Raw: text, Err: errors.New("missing result")}
	}

	var result T
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, &UnrecognizedResponseError{Raw: text, Err: err}
	}
	if v, ok := any(&result).(validator); ok {
		if err := v.validate(); err != nil {
			return nil, &UnrecognizedResponseError{Raw: text, Err: err}
		}
	}

	return &Response[T]{Method: env.Method, Env: env.Env, Result: result}, nil
}
