package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/featuredecode/array"
	"github.com/wippyai/featuredecode/decoder"
	"github.com/wippyai/featuredecode/internal/tfrecord"
	"github.com/wippyai/featuredecode/resource"
)

const previewValues = 4

// loadRecords returns the serialized examples named by cfg.
func loadRecords(cfg config) ([][]byte, error) {
	if cfg.file != "" {
		data, err := os.ReadFile(cfg.file)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return [][]byte{data}, nil
	}

	f, err := os.Open(cfg.records)
	if err != nil {
		return nil, fmt.Errorf("open tfrecord: %w", err)
	}
	defer f.Close()

	return readRecords(f, cfg.compression, cfg.limit)
}

func readRecords(r io.Reader, c tfrecord.Compression, limit int) ([][]byte, error) {
	rd, err := tfrecord.NewReader(r, c)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	var out [][]byte
	for limit <= 0 || len(out) < limit {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func newDecoder(cfg config, table *resource.Table) *decoder.Decoder {
	opts := decoder.DefaultOptions()
	opts.Table = table
	opts.EmptyBytesAsEmptyArray = cfg.emptyBytes
	return decoder.New(opts)
}

func decodeSelected(dec *decoder.Decoder, data []byte, features []string) (decoder.Result, error) {
	if len(features) > 0 {
		return dec.DecodeFeatures(data, features...)
	}
	return dec.Decode(data)
}

type featureSummary struct {
	name    string
	dtype   string
	length  int
	preview string
}

// recordSummary is what the CLI shows for one record. It holds no arrays.
type recordSummary struct {
	err      error
	features []featureSummary
	index    int
	size     int
}

func summarize(index int, data []byte, res decoder.Result) recordSummary {
	s := recordSummary{index: index, size: len(data)}
	for _, name := range res.Names() {
		a := res[name]
		s.features = append(s.features, featureSummary{
			name:    name,
			dtype:   a.DType().String(),
			length:  a.Len(),
			preview: preview(a),
		})
	}
	return s
}

// decodeAll decodes every record with at most workers in flight. A record
// that fails to decode is reported in its summary; the other records are
// still decoded.
func decodeAll(ctx context.Context, dec *decoder.Decoder, data [][]byte, features []string, workers int) ([]recordSummary, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]recordSummary, len(data))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range data {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := decodeSelected(dec, rec, features)
			if err != nil {
				out[i] = recordSummary{index: i, size: len(rec), err: err}
				return nil
			}
			out[i] = summarize(i, rec, res)
			res.Release()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func preview(a *array.Array) string {
	n := min(a.Len(), previewValues)
	parts := make([]string, 0, n+1)

	switch a.DType().Kind {
	case array.KindInt64:
		for _, v := range a.Int64s()[:n] {
			parts = append(parts, strconv.FormatInt(v, 10))
		}
	case array.KindFloat32:
		for _, v := range a.Float32s()[:n] {
			parts = append(parts, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
	case array.KindFixedBytes:
		for i := range n {
			v, err := a.Value(i)
			if err != nil {
				break
			}
			parts = append(parts, strconv.Quote(string(bytes.TrimRight(v, "\x00"))))
		}
	}
	if a.Len() > n {
		parts = append(parts, "...")
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// render formats s as text, styled when color is set.
func (s recordSummary) render(color bool) string {
	style := func(st interface{ Render(...string) string }, v string) string {
		if !color {
			return v
		}
		return st.Render(v)
	}

	var b strings.Builder
	b.WriteString(style(titleStyle, fmt.Sprintf("Record %d", s.index)))
	b.WriteString(fmt.Sprintf(" (%d bytes)\n", s.size))
	if s.err != nil {
		b.WriteString("  ")
		b.WriteString(style(errorStyle, "Error: "+s.err.Error()))
		b.WriteString("\n")
		return b.String()
	}
	for _, f := range s.features {
		b.WriteString(fmt.Sprintf("  %s %s len=%d %s\n",
			style(featureStyle, fmt.Sprintf("%-24s", f.name)),
			style(dtypeStyle, fmt.Sprintf("%-8s", f.dtype)),
			f.length,
			f.preview))
	}
	return b.String()
}
