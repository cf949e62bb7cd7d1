package cheatengine

import (
	"github.com/xyproto/memscan/internal/numeric"
	"github.com/xyproto/memscan/internal/procrw"
	"github.com/xyproto/memscan/internal/scanner"
)

// scannerFace is the Kind-erased view over a scanner.Scanner[T] that lets
// Engine swap T at runtime when the operator issues "type", without
// proliferating a non-generic entry point per command: one switch, then a
// monomorphic path.
type scannerFace interface {
	Kind() numeric.Kind

	SetEndian(numeric.Endian)
	Endian() numeric.Endian
	SetScanLevel(numeric.ScanLevel)
	ScanLevel() numeric.ScanLevel

	FirstScanDone() bool
	MatchCount() int
	List(max int, fn func(addr numeric.Addr, bits uint64))
	Reset()

	FirstScan(op numeric.Operator, rhsBits uint64, onRegions func(int)) (int, error)
	NextScan(op numeric.Operator, rhsBits uint64, hasRHS bool) (int, error)
	Update() (int, error)
	WriteToMatches(bits uint64) (succeeded, failed int)
}

type typedScanner[T numeric.Numeric] struct {
	s *scanner.Scanner[T]
}

func newTypedScanner[T numeric.Numeric](pid int, rw *procrw.RW, chunkSize int, warn scanner.Warnf) *typedScanner[T] {
	return &typedScanner[T]{s: scanner.New[T](pid, rw, chunkSize, warn)}
}

func (t *typedScanner[T]) Kind() numeric.Kind { return numeric.KindOf[T]() }

func (t *typedScanner[T]) SetEndian(e numeric.Endian)       { t.s.SetEndian(e) }
func (t *typedScanner[T]) Endian() numeric.Endian           { return t.s.Endian() }
func (t *typedScanner[T]) SetScanLevel(l numeric.ScanLevel) { t.s.SetScanLevel(l) }
func (t *typedScanner[T]) ScanLevel() numeric.ScanLevel     { return t.s.ScanLevel() }

func (t *typedScanner[T]) FirstScanDone() bool { return t.s.FirstScanDone() }
func (t *typedScanner[T]) MatchCount() int     { return t.s.MatchCount() }

func (t *typedScanner[T]) List(max int, fn func(addr numeric.Addr, bits uint64)) {
	t.s.List(max, func(addr numeric.Addr, v T) {
		fn(addr, numeric.BitsOf(v))
	})
}

func (t *typedScanner[T]) Reset() { t.s.Reset() }

func (t *typedScanner[T]) FirstScan(op numeric.Operator, rhsBits uint64, onRegions func(int)) (int, error) {
	return t.s.FirstScan(op, numeric.ValueFromBits[T](rhsBits), onRegions)
}

func (t *typedScanner[T]) NextScan(op numeric.Operator, rhsBits uint64, hasRHS bool) (int, error) {
	return t.s.NextScan(op, numeric.ValueFromBits[T](rhsBits), hasRHS)
}

func (t *typedScanner[T]) Update() (int, error) { return t.s.Update() }

func (t *typedScanner[T]) WriteToMatches(bits uint64) (int, int) {
	return t.s.WriteToMatches(numeric.ValueFromBits[T](bits))
}

// newScannerFace builds the monomorphic Scanner[T] matching kind and
// returns it behind the Kind-erased facade.
func newScannerFace(kind numeric.Kind, pid int, rw *procrw.RW, chunkSize int, warn scanner.Warnf) scannerFace {
	switch kind {
	case numeric.I8:
		return newTypedScanner[int8](pid, rw, chunkSize, warn)
	case numeric.U8:
		return newTypedScanner[uint8](pid, rw, chunkSize, warn)
	case numeric.I16:
		return newTypedScanner[int16](pid, rw, chunkSize, warn)
	case numeric.U16:
		return newTypedScanner[uint16](pid, rw, chunkSize, warn)
	case numeric.I32:
		return newTypedScanner[int32](pid, rw, chunkSize, warn)
	case numeric.U32:
		return newTypedScanner[uint32](pid, rw, chunkSize, warn)
	case numeric.I64:
		return newTypedScanner[int64](pid, rw, chunkSize, warn)
	case numeric.U64:
		return newTypedScanner[uint64](pid, rw, chunkSize, warn)
	case numeric.F32:
		return newTypedScanner[float32](pid, rw, chunkSize, warn)
	case numeric.F64:
		return newTypedScanner[float64](pid, rw, chunkSize, warn)
	default:
		return newTypedScanner[int32](pid, rw, chunkSize, warn)
	}
}
