package wasmhost

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/featuredecode"
	"github.com/wippyai/featuredecode/array"
	"github.com/wippyai/featuredecode/decoder"
	fderrors "github.com/wippyai/featuredecode/errors"
	"github.com/wippyai/featuredecode/wasmhost/internal/memory"
)

// memoryOnlyModule exports a single one-page memory named "memory".
var memoryOnlyModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: min 1 page
	0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, // export "memory"
}

// Options configures a Host.
type Options struct {
	// Guest is a core module binary exporting "memory". If it also exports
	// cabi_realloc, arrays are allocated through it. Empty selects a
	// memory-only module.
	Guest []byte
	// Logger overrides the package logger.
	Logger *zap.Logger
}

// Host exports decoded arrays into a WebAssembly guest's linear memory.
// Thread-safe.
type Host struct {
	runtime wazero.Runtime
	module  api.Module
	mem     *memory.Wrapper
	realloc api.Function
	bump    *memory.BumpAllocator
	log     *zap.Logger
	mu      sync.Mutex
}

// Descriptor locates one exported array in guest memory.
type Descriptor struct {
	Name   string
	DType  array.DType
	Length uint32
	// Data is the guest address of the element bytes.
	Data uint32
	// Addr is the guest address of the feature-array record.
	Addr uint32
}

// Exported is the result of one Export: a list<feature-array> at Ptr with
// Len records.
type Exported struct {
	Arrays []Descriptor
	Ptr    uint32
	Len    uint32
}

// New instantiates the guest and prepares it to receive arrays.
func New(ctx context.Context, opts Options) (*Host, error) {
	guest := opts.Guest
	if len(guest) == 0 {
		guest = memoryOnlyModule
	}
	log := opts.Logger
	if log == nil {
		log = Logger()
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	mod, err := rt.Instantiate(ctx, guest)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fderrors.Wrap(fderrors.PhaseExport, fderrors.KindInvalidInput, err, "instantiate guest")
	}

	mem := memory.WrapMemory(mod.ExportedMemory("memory"))
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, fderrors.InvalidInput(fderrors.PhaseExport, "guest does not export memory")
	}

	h := &Host{
		runtime: rt,
		module:  mod,
		mem:     mem,
		realloc: mod.ExportedFunction("cabi_realloc"),
		log:     log,
	}
	if h.realloc == nil {
		h.bump = memory.NewBumpAllocator(mem.Mem, mem.Size())
	}

	log.Debug("guest instantiated",
		zap.Uint32("memory", mem.Size()),
		zap.Bool("guest_allocator", h.realloc != nil))
	return h, nil
}

// Memory returns the guest's linear memory.
func (h *Host) Memory() featuredecode.Memory {
	return h.mem
}

func (h *Host) allocator(ctx context.Context) featuredecode.Allocator {
	if h.realloc != nil {
		return memory.WrapAllocator(ctx, h.realloc)
	}
	return h.bump
}

// Export copies every array of res into guest memory, followed by one
// feature-array record per array, in name order.
func (h *Host) Export(ctx context.Context, res decoder.Result) (*Exported, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	alloc := h.allocator(ctx)
	names := res.Names()
	n := uint32(len(names))

	base, err := alloc.Alloc(n*recordLayout.Size, recordLayout.Align)
	if err != nil {
		return nil, fderrors.Wrap(fderrors.PhaseExport, fderrors.KindAllocation, err, "allocate records")
	}

	out := &Exported{Ptr: base, Len: n, Arrays: make([]Descriptor, 0, n)}
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := h.exportArray(alloc, base+uint32(i)*recordLayout.Size, name, res[name])
		if err != nil {
			return nil, fderrors.WithField(err, name)
		}
		out.Arrays = append(out.Arrays, d)
	}

	h.log.Debug("exported example",
		zap.Uint32("ptr", base),
		zap.Uint32("arrays", n))
	return out, nil
}

func (h *Host) exportArray(alloc featuredecode.Allocator, rec uint32, name string, a *array.Array) (Descriptor, error) {
	if a.Released() {
		return Descriptor{}, fderrors.Released(fderrors.PhaseExport, "array")
	}

	namePtr, err := h.place(alloc, []byte(name), 1)
	if err != nil {
		return Descriptor{}, err
	}
	data := a.Bytes()
	dataPtr, err := h.place(alloc, data, uint32(max(a.Stride(), 1)))
	if err != nil {
		return Descriptor{}, err
	}

	offs := recordLayout.FieldOffs
	writes := []error{
		h.mem.WriteU32(rec+offs["name"], namePtr),
		h.mem.WriteU32(rec+offs["name"]+4, uint32(len(name))),
		h.mem.WriteU8(rec+offs["dtype"], dtypeTag(a.DType())),
		h.mem.WriteU32(rec+offs["width"], uint32(a.Stride())),
		h.mem.WriteU32(rec+offs["length"], uint32(a.Len())),
		h.mem.WriteU32(rec+offs["data"], dataPtr),
		h.mem.WriteU32(rec+offs["data"]+4, uint32(len(data))),
	}
	for _, err := range writes {
		if err != nil {
			return Descriptor{}, fderrors.Wrap(fderrors.PhaseExport, fderrors.KindOutOfBounds, err, "write record")
		}
	}

	return Descriptor{
		Name:   name,
		DType:  a.DType(),
		Length: uint32(a.Len()),
		Data:   dataPtr,
		Addr:   rec,
	}, nil
}

// place allocates room for b in guest memory and copies it there.
func (h *Host) place(alloc featuredecode.Allocator, b []byte, align uint32) (uint32, error) {
	ptr, err := alloc.Alloc(uint32(len(b)), align)
	if err != nil {
		return 0, fderrors.Wrap(fderrors.PhaseExport, fderrors.KindAllocation, err, "allocate data")
	}
	if err := h.mem.Write(ptr, b); err != nil {
		return 0, fderrors.Wrap(fderrors.PhaseExport, fderrors.KindOutOfBounds, err, "write data")
	}
	return ptr, nil
}

// Read returns the element bytes of an exported array. The result aliases
// guest memory.
func (h *Host) Read(d Descriptor) ([]byte, error) {
	return h.mem.Read(d.Data, d.Length*uint32(d.DType.Width))
}

// Descriptors reads n feature-array records starting at ptr, as a guest
// would see them.
func (h *Host) Descriptors(ptr, n uint32) ([]Descriptor, error) {
	offs := recordLayout.FieldOffs
	out := make([]Descriptor, 0, n)
	for i := uint32(0); i < n; i++ {
		rec := ptr + i*recordLayout.Size

		namePtr, err := h.mem.ReadU32(rec + offs["name"])
		if err != nil {
			return nil, err
		}
		nameLen, err := h.mem.ReadU32(rec + offs["name"] + 4)
		if err != nil {
			return nil, err
		}
		name, err := h.mem.Read(namePtr, nameLen)
		if err != nil {
			return nil, err
		}
		tag, err := h.mem.ReadU8(rec + offs["dtype"])
		if err != nil {
			return nil, err
		}
		width, err := h.mem.ReadU32(rec + offs["width"])
		if err != nil {
			return nil, err
		}
		length, err := h.mem.ReadU32(rec + offs["length"])
		if err != nil {
			return nil, err
		}
		data, err := h.mem.ReadU32(rec + offs["data"])
		if err != nil {
			return nil, err
		}

		dtype, ok := dtypeFromTag(tag, width)
		if !ok {
			return nil, fderrors.New(fderrors.PhaseExport, fderrors.KindInvalidInput).
				Value(tag).
				Detail("unknown dtype tag %d", tag).
				Build()
		}
		out = append(out, Descriptor{
			Name:   string(name),
			DType:  dtype,
			Length: length,
			Data:   data,
			Addr:   rec,
		})
	}
	return out, nil
}

// Reset discards every export when the host owns allocation. With a guest
// allocator it does nothing; the guest manages its own memory.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bump != nil {
		h.bump.Reset()
	}
}

// Close releases the guest and its runtime.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}
