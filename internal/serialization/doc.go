// Package serialization saves and loads named float64 tensors, such as the
// trained parameters of a network, in the SafeTensors format:
//
//	[8 bytes: header size N (uint64 LE)]
//	[N bytes: JSON header]
//	[tensor data: raw little-endian float64 values]
//
// The JSON header maps each tensor name to its dtype ("F64"), shape and
// [begin, end) byte offsets in the data section. The optional "__metadata__"
// entry holds string metadata; files written by this package record the
// SHA-256 of the data section there and readers verify it.
//
// Example usage:
//
//	params := map[string]*tensor.Tensor{"l1.weight": w, "l1.bias": b}
//	if err := serialization.WriteSafeTensors("params.safetensors", params, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	params, metadata, err := serialization.ReadSafeTensors("params.safetensors")
package serialization
