package word2vec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

const (
	modelMagic   = "W2VM"
	modelVersion = 1

	// maxConfigSize bounds the YAML config block of a model file
	maxConfigSize = 1 << 20
)

// EncodeVector encodes float32 values as a little-endian sequence without a length prefix
func EncodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeVector decodes a blob produced by EncodeVector
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: vector blob length %d is not a multiple of 4", ErrInvalidModelFormat, len(b))
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}

// EncodePoints encodes Huffman points as little-endian uint32 values
func EncodePoints(points []int) []byte {
	b := make([]byte, len(points)*4)
	for i, p := range points {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(p)) //nolint:gosec
	}
	return b
}

// DecodePoints decodes a blob produced by EncodePoints
func DecodePoints(b []byte) ([]int, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: points blob length %d is not a multiple of 4", ErrInvalidModelFormat, len(b))
	}
	points := make([]int, len(b)/4)
	for i := range points {
		points[i] = int(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return points, nil
}

// EncodeCode encodes Huffman branch bits, one byte per bit
func EncodeCode(code []int8) []byte {
	b := make([]byte, len(code))
	for i, c := range code {
		b[i] = byte(c)
	}
	return b
}

// DecodeCode decodes a blob produced by EncodeCode
func DecodeCode(b []byte) []int8 {
	code := make([]int8, len(b))
	for i, c := range b {
		code[i] = int8(c)
	}
	return code
}

// MarshalStore stores: dim(uint32), n(uint32), then for each word:
// wordLen(uint32), word bytes, frequency(uint64), pathLen(uint32), code[pathLen],
// points(uint32[pathLen]); followed by syn0 (float32[n*dim]) and syn1 (float32[(n-1)*dim]).
func MarshalStore(store *VocabularyStore) ([]byte, error) {
	if store == nil {
		return nil, ErrModelNotInitialized
	}

	size := 8 + (len(store.InputVectors())+len(store.NodeVectors()))*4
	for _, w := range store.Words() {
		size += 16 + len(w.Word) + len(w.Code)*5
	}

	b := make([]byte, 0, size)
	b = binary.LittleEndian.AppendUint32(b, uint32(store.LayerSize())) //nolint:gosec
	b = binary.LittleEndian.AppendUint32(b, uint32(store.Size()))      //nolint:gosec
	for _, w := range store.Words() {
		b = binary.LittleEndian.AppendUint32(b, uint32(len(w.Word))) //nolint:gosec
		b = append(b, w.Word...)
		b = binary.LittleEndian.AppendUint64(b, uint64(w.Frequency)) //nolint:gosec
		b = binary.LittleEndian.AppendUint32(b, uint32(len(w.Code))) //nolint:gosec
		b = append(b, EncodeCode(w.Code)...)
		b = append(b, EncodePoints(w.Points)...)
	}
	b = append(b, EncodeVector(store.InputVectors())...)
	b = append(b, EncodeVector(store.NodeVectors())...)

	return b, nil
}

// UnmarshalStore reconstructs a store from MarshalStore output
func UnmarshalStore(data []byte) (*VocabularyStore, error) {
	d := &decoder{data: data}

	dim := int(d.u32())
	n := int(d.u32())
	if d.err != nil || dim <= 0 || n <= 0 {
		return nil, fmt.Errorf("%w: bad store header", ErrInvalidModelFormat)
	}

	words := make([]*VocabWord, 0, min(n, len(data)/16))
	for i := range n {
		word := string(d.bytes(int(d.u32())))
		freq := int64(d.u64()) //nolint:gosec
		pathLen := int(d.u32())
		code := DecodeCode(d.bytes(pathLen))
		points, err := DecodePoints(d.bytes(pathLen * 4))
		if d.err != nil {
			return nil, d.err
		}
		if err != nil {
			return nil, err
		}

		w := &VocabWord{Word: word, Index: i, Frequency: freq}
		if pathLen > 0 {
			w.Code, w.Points = code, points
		}
		words = append(words, w)
	}

	syn0, err := DecodeVector(d.bytes(n * dim * 4))
	if err != nil {
		return nil, err
	}
	syn1, err := DecodeVector(d.bytes((n - 1) * dim * 4))
	if err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidModelFormat, len(data)-d.off)
	}

	return RestoreVocabularyStore(dim, words, syn0, syn1)
}

// decoder is a bounds-checked little-endian cursor; the first short read sticks in err
type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = fmt.Errorf("%w: unexpected end of data at offset %d", ErrInvalidModelFormat, d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u32() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) u64() uint64 {
	b := d.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// WriteTo writes the model as: magic, version(uint32), config length(uint32), YAML
// config, store length(uint64), MarshalStore bytes
func (w2v *Word2Vec) WriteTo(w io.Writer) (int64, error) {
	store := w2v.Store()
	if store == nil {
		return 0, ErrModelNotInitialized
	}

	cfg, err := yaml.Marshal(w2v.config)
	if err != nil {
		return 0, err
	}
	body, err := MarshalStore(store)
	if err != nil {
		return 0, err
	}

	header := make([]byte, 0, len(modelMagic)+8+len(cfg)+8)
	header = append(header, modelMagic...)
	header = binary.LittleEndian.AppendUint32(header, modelVersion)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(cfg))) //nolint:gosec
	header = append(header, cfg...)
	header = binary.LittleEndian.AppendUint64(header, uint64(len(body)))

	var written int64
	for _, chunk := range [][]byte{header, body} {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// ReadModel reads a model written by WriteTo. The returned model answers queries
// immediately and continues training from the stored weights if Fit is called with a corpus.
func ReadModel(r io.Reader, corpus Corpus, logger Logger) (*Word2Vec, error) {
	var head [len(modelMagic) + 8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelFormat, err)
	}
	if string(head[:len(modelMagic)]) != modelMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidModelFormat)
	}
	if v := binary.LittleEndian.Uint32(head[len(modelMagic):]); v != modelVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidModelFormat, v)
	}

	cfgLen := binary.LittleEndian.Uint32(head[len(modelMagic)+4:])
	if cfgLen > maxConfigSize {
		return nil, fmt.Errorf("%w: config block of %d bytes exceeds %d", ErrInvalidModelFormat, cfgLen, maxConfigSize)
	}
	cfgBytes := make([]byte, cfgLen)
	if _, err := io.ReadFull(r, cfgBytes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelFormat, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(cfgBytes, config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelFormat, err)
	}
	// The stop word file belongs to the machine that trained the model
	config.StopWordsPath = ""

	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelFormat, err)
	}
	body, err := io.ReadAll(io.LimitReader(r, int64(binary.LittleEndian.Uint64(lenBuf[:])))) //nolint:gosec
	if err != nil {
		return nil, err
	}

	store, err := UnmarshalStore(body)
	if err != nil {
		return nil, err
	}

	if corpus == nil {
		corpus = NewInMemoryCorpus(nil)
	}
	return NewWord2VecFromConfig(config, corpus, NewMemoryStorage(store), logger)
}
