package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/featuredecode/array"
	"github.com/wippyai/featuredecode/arrowhost"
	"github.com/wippyai/featuredecode/decoder"
	"github.com/wippyai/featuredecode/internal/tfrecord"
	"github.com/wippyai/featuredecode/resource"
	"github.com/wippyai/featuredecode/wasmhost"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to a single serialized example")
		records     = flag.String("tfrecord", "", "Path to a TFRecord file of serialized examples")
		compression = flag.String("compression", "", "TFRecord compression: none, gzip, zlib, zstd, lz4 (default: from extension)")
		features    = flag.String("features", "", "Decode only these features (comma-separated)")
		limit       = flag.Int("limit", 0, "Stop after this many records (0 = all)")
		workers     = flag.Int("workers", runtime.GOMAXPROCS(0), "Records decoded in parallel")
		emptyBytes  = flag.Bool("empty-bytes", false, "Decode empty bytes features as empty arrays")
		showArrow   = flag.Bool("arrow", false, "Print the Arrow schema of the first record")
		showWasm    = flag.Bool("wasm", false, "Export the first record into guest memory and print descriptors")
		gen         = flag.String("gen", "", "Write a sample TFRecord file and exit")
		genCount    = flag.Int("n", 8, "Number of records written by -gen")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync() //nolint:errcheck
		decoder.SetLogger(log)
		wasmhost.SetLogger(log)
	}

	if *gen != "" {
		c, err := compressionFor(*gen, *compression)
		if err == nil {
			err = generate(*gen, c, *genCount)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d records to %s (%s)\n", *genCount, *gen, c)
		return
	}

	if (*file == "") == (*records == "") {
		fmt.Fprintln(os.Stderr, "Usage: featinspect -file <example.pb> [-features a,b] [-arrow] [-wasm]")
		fmt.Fprintln(os.Stderr, "       featinspect -tfrecord <data.tfrecord> [-compression gzip] [-limit n] [-workers n]")
		fmt.Fprintln(os.Stderr, "       featinspect -tfrecord <data.tfrecord> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       featinspect -gen <out.tfrecord> [-n count]")
		os.Exit(1)
	}

	cfg := config{
		file:       *file,
		records:    *records,
		limit:      *limit,
		workers:    *workers,
		emptyBytes: *emptyBytes,
		showArrow:  *showArrow,
		showWasm:   *showWasm,
	}
	if *features != "" {
		cfg.features = strings.Split(*features, ",")
	}
	if *records != "" {
		c, err := compressionFor(*records, *compression)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.compression = c
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// config is the parsed command line.
type config struct {
	file        string
	records     string
	compression tfrecord.Compression
	features    []string
	limit       int
	workers     int
	emptyBytes  bool
	showArrow   bool
	showWasm    bool
}

func compressionFor(path, flagValue string) (tfrecord.Compression, error) {
	if flagValue == "" {
		return tfrecord.ForPath(path), nil
	}
	return tfrecord.ParseCompression(flagValue)
}

func run(cfg config) error {
	ctx := context.Background()

	data, err := loadRecords(cfg)
	if err != nil {
		return err
	}
	source := cfg.file
	if source == "" {
		source = cfg.records
	}
	fmt.Printf("Source: %s\n", source)
	fmt.Printf("Records: %d\n", len(data))

	table := resource.NewTable()
	counter := &resource.Counter{}
	table.Subscribe(counter)

	dec := newDecoder(cfg, table)
	summaries, err := decodeAll(ctx, dec, data, cfg.features, cfg.workers)
	if err != nil {
		return err
	}

	color := term.IsTerminal(int(os.Stdout.Fd()))
	for _, s := range summaries {
		fmt.Println()
		fmt.Print(s.render(color))
	}

	if len(data) > 0 && (cfg.showArrow || cfg.showWasm) {
		if err := exportFirst(ctx, dec, data[0], cfg); err != nil {
			return err
		}
	}

	fmt.Printf("\nArrays: %d created, %d released, %d bytes live\n",
		counter.Created(), counter.Dropped(), counter.Bytes())
	table.Each(func(_ resource.Handle, class resource.Class, size int, v any) bool {
		if info, ok := v.(array.StorageInfo); ok {
			fmt.Printf("  leaked %s %s len=%d (%s, %d bytes)\n", info.Name, info.DType, info.Len, class, size)
		}
		return true
	})
	if err := table.Close(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return nil
}

// exportFirst decodes data again and hands it to the Arrow and WebAssembly
// hosts.
func exportFirst(ctx context.Context, dec *decoder.Decoder, data []byte, cfg config) error {
	res, err := decodeSelected(dec, data, cfg.features)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	defer res.Release()

	if cfg.showArrow {
		schema, err := arrowhost.Schema(res)
		if err != nil {
			return fmt.Errorf("arrow schema: %w", err)
		}
		fmt.Printf("\n--- arrow ---\n%s\n", schema)
	}

	if cfg.showWasm {
		host, err := wasmhost.New(ctx, wasmhost.Options{})
		if err != nil {
			return fmt.Errorf("create host: %w", err)
		}
		defer host.Close(ctx)

		out, err := host.Export(ctx, res)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("\n--- wasm ---\nlist<feature-array> at 0x%x, %d records\n", out.Ptr, out.Len)
		for _, d := range out.Arrays {
			fmt.Printf("  0x%06x %-24s %-8s len=%d data=0x%x\n", d.Addr, d.Name, d.DType, d.Length, d.Data)
		}
	}
	return nil
}
