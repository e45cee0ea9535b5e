// Codec defines how session values and metadata (like creation time)
// are serialized to and from bytes, allowing them to be stored or transmitted.
// The package includes a gob implementation (the default) and a JSON one
// for stores that are shared with processes written in other languages.
package session

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"time"
)

// Codec is an interface for serializing and deserializing session data.
type Codec interface {
	// Decode decodes byte slice into the session creation time and values.
	Decode(data []byte) (createdAt time.Time, values map[string]any, err error)

	// Encode encodes the creation time and session values into a byte slice.
	Encode(createdAt time.Time, values map[string]any) (data []byte, err error)
}

var (
	_ Codec = GobCodec{}
	_ Codec = JSONCodec{}
)

// GobCodec is a Codec implementation using Go's encoding/gob. Values of
// custom types must be registered with gob.Register before use.
type GobCodec struct{}

type codecData struct {
	CreatedAt time.Time      `json:"created_at"`
	Values    map[string]any `json:"values"`
}

// Encode serializes the creation time and session values into a byte slice
// using gob encoding.
func (GobCodec) Encode(createdAt time.Time, values map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	err := encoder.Encode(&codecData{CreatedAt: createdAt, Values: values})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode deserializes the data into a creation time and session values
// using gob decoding.
func (GobCodec) Decode(data []byte) (time.Time, map[string]any, error) {
	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)

	var d codecData
	err := decoder.Decode(&d)
	if d.Values == nil {
		d.Values = make(map[string]any)
	}
	return d.CreatedAt, d.Values, err
}

// JSONCodec stores sessions as JSON documents. Numbers come back as float64
// and times as RFC 3339 strings, so typed getters only work for strings and
// bools after a round trip.
type JSONCodec struct{}

func (JSONCodec) Encode(createdAt time.Time, values map[string]any) ([]byte, error) {
	return json.Marshal(&codecData{CreatedAt: createdAt, Values: values})
}

func (JSONCodec) Decode(data []byte) (time.Time, map[string]any, error) {
	var d codecData
	if err := json.Unmarshal(data, &d); err != nil {
		return time.Time{}, nil, err
	}
	if d.Values == nil {
		d.Values = make(map[string]any)
	}
	return d.CreatedAt, d.Values, nil
}
