// Package cbor wraps github.com/fxamacker/cbor with the encoding profile used
// for stored credential records: RFC 8949 Core Deterministic Encoding, with
// duplicate map keys rejected on decode. Deterministic encoding keeps the
// stored bytes for a record stable across writes, and the decode-side sanity
// bounds cap the damage a corrupt database file can do.
package cbor

import (
	"github.com/fxamacker/cbor/v2"
)

const maxArrayElements = 1024 * 256
const maxMapPairs = 1024 * 256

var (
	encOptions = cbor.EncOptions{
		InfConvert:    cbor.InfConvertFloat16,
		IndefLength:   cbor.IndefLengthForbidden,
		NaNConvert:    cbor.NaNConvert7e00,
		ShortestFloat: cbor.ShortestFloat16,
		Sort:          cbor.SortCoreDeterministic,

		// Records are plain maps of strings; tags would defeat determinism.
		TagsMd: cbor.TagsForbidden,
	}

	decOptions = cbor.DecOptions{
		IndefLength: cbor.IndefLengthForbidden,

		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: maxArrayElements,
		MaxMapPairs:      maxMapPairs,

		TagsMd:  cbor.TagsForbidden,
		TimeTag: cbor.DecTagIgnored,

		// Unknown fields are tolerated so older binaries can read records
		// written by newer ones.
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}

	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = encOptions.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = decOptions.DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes src deterministically.
func Marshal(src interface{}) ([]byte, error) {
	return encMode.Marshal(src)
}

// Unmarshal decodes CBOR in data into dst.
func Unmarshal(data []byte, dst interface{}) error {
	return decMode.Unmarshal(data, dst)
}
