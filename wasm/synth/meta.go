package synth

import "encoding/binary"

// EnvMetaSectionName is the custom section carrying environment metadata.
const EnvMetaSectionName = "contractenvmetav0"

// DefaultInterfaceVersion is written by builders created without WithMetadata.
const DefaultInterfaceVersion uint64 = 20 << 32

// envMetaInterfaceVersion is the XDR discriminant of the interface version entry.
const envMetaInterfaceVersion int32 = 0

// EnvMetaInterfaceVersion returns the XDR encoding of an interface version
// metadata entry: a big-endian int32 discriminant followed by a big-endian
// uint64 version.
func EnvMetaInterfaceVersion(v uint64) []byte {
	out := make([]byte, 12)
	binary.BigEndian.PutUint32(out[0:4], uint32(envMetaInterfaceVersion))
	binary.BigEndian.PutUint64(out[4:12], v)
	return out
}

// ParseEnvMetaInterfaceVersion decodes a payload produced by
// EnvMetaInterfaceVersion.
func ParseEnvMetaInterfaceVersion(data []byte) (uint64, bool) {
	if len(data) != 12 {
		return 0, false
	}
	if int32(binary.BigEndian.Uint32(data[0:4])) != envMetaInterfaceVersion {
		return 0, false
	}
	return binary.BigEndian.Uint64(data[4:12]), true
}
