package packet

import "encoding/json"

// Encode marshals a server message. Messages are plain structs with JSON
// tags, so encoding cannot fail short of a programming error, which panics
// into the registry's recovery.
func Encode(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
