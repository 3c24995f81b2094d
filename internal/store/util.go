package store

import (
	"encoding/binary"
	"github.com/vmihailenco/msgpack/v4"
)

func uint64ToBytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func msgpackMarshalPanic(val interface{}) []byte {
	b, err := msgpack.Marshal(val)
	if err != nil {
		panic(err)
	}
	return b
}

func msgpackUnmarshal(data []byte, val interface{}) error {
	return msgpack.Unmarshal(data, val)
}
