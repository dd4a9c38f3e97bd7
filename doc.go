// Package jpegli implements a pure Go JPEG encoder with perceptually
// tuned quality control.
//
// This package encodes 8-bit, 16-bit, and float32 raster images into
// baseline or progressive JPEG bitstreams (ITU-T T.81). Quality is
// controlled by a single "distance" parameter modelled after the JPEG XL
// project's butteraugli distance: 0 is near-lossless, larger is worse.
// The encoder derives an adaptive quantization field from local image
// content, optimizes Huffman tables per scan, and can optionally encode
// in the XYB color space with an embedded ICC profile.
//
// Encoding an image.Image:
//
//	err := jpegli.Encode(writer, img, &jpegli.EncodingOptions{Distance: 1.0})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Streaming raw interleaved samples through a session:
//
//	enc, err := jpegli.NewEncoder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for rows := range source {
//	    enc.WriteScanlines(rows)
//	}
//	err = enc.Finish(jpegli.NewWriterDestination(w))
package jpegli
