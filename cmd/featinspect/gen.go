package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wippyai/featuredecode/example"
	"github.com/wippyai/featuredecode/internal/tfrecord"
)

var sampleLabels = []string{"cat", "dog", "horse", "goldfish"}

// sampleExample returns the i-th generated record.
func sampleExample(i int) []byte {
	tags := make([]string, 0, 1+i%3)
	for j := 0; j <= i%3; j++ {
		tags = append(tags, sampleLabels[(i+j)%len(sampleLabels)])
	}
	weights := make([]float32, 1+i%4)
	for j := range weights {
		weights[j] = float32(i+j) / 4
	}
	return example.NewBuilder().
		Int64("id", int64(i)).
		Int64("shape", 2, int64(i%5+1)).
		Float("weights", weights...).
		String("tags", tags...).
		Bytes("raw", []byte{byte(i), 0, byte(i >> 8)}).
		Marshal()
}

func generate(path string, c tfrecord.Compression, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := writeSamples(f, c, n); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSamples(w io.Writer, c tfrecord.Compression, n int) error {
	tw, err := tfrecord.NewWriter(w, c)
	if err != nil {
		return err
	}
	for i := range n {
		if err := tw.Write(sampleExample(i)); err != nil {
			tw.Close()
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return tw.Close()
}
