package core

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON keeps numbers as json.Number so 64-bit ids such as room_id
// survive decoding without a float64 round trip.
func (p *Payload) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*p = m
	return nil
}
