package flacenc

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
)

// bitsPerSample is fixed: pkg/transcode only ever hands this encoder the
// 16-bit samples pkg/codec operates on, so there is no bit-depth dispatch
// to carry around.
const bitsPerSample = 16

// Encoder encodes interleaved 16-bit PCM to FLAC. It is scoped to exactly
// what the sample-cache codec's export path needs: fixed-block framing,
// FIXED-predictor subframes, and Rice-coded residuals.
type Encoder struct {
	SampleRate int
	Channels   int
	BlockSize  int // samples per block (typically 4096)

	totalSamples uint64
	minBlockSize uint16
	maxBlockSize uint16
	minFrameSize uint32
	maxFrameSize uint32
	md5sum       [16]byte
}

// NewEncoder creates a new FLAC encoder for 16-bit PCM at the given rate
// and channel count.
func NewEncoder(sampleRate, channels int) *Encoder {
	return &Encoder{
		SampleRate:   sampleRate,
		Channels:     channels,
		BlockSize:    4096,
		minBlockSize: 4096,
		maxBlockSize: 4096,
		minFrameSize: 0xFFFFFF,
		maxFrameSize: 0,
	}
}

// Checksum returns the MD5 of the interleaved samples from the most recent
// Encode call, the same digest written into the STREAMINFO block. A decoder
// that recomputes it and finds a mismatch has caught a lossy export.
func (e *Encoder) Checksum() [16]byte { return e.md5sum }

// Encode encodes interleaved 16-bit PCM samples to FLAC.
func (e *Encoder) Encode(w io.Writer, samples []int16) error {
	// We need to write to a buffer first to calculate MD5 and frame sizes.
	var buf bytes.Buffer

	e.totalSamples = uint64(len(samples) / e.Channels)

	md5h := md5.New()
	sampleBytes := make([]byte, 2)
	for _, s := range samples {
		binary.LittleEndian.PutUint16(sampleBytes, uint16(s))
		md5h.Write(sampleBytes)
	}
	copy(e.md5sum[:], md5h.Sum(nil))

	// Widen to int32 so FIXED-predictor differencing (up to 4th order)
	// can't overflow the sample range.
	wide := make([]int32, len(samples))
	for i, s := range samples {
		wide[i] = int32(s)
	}

	samplesPerChannel := len(wide) / e.Channels
	frameNum := uint64(0)

	for offset := 0; offset < samplesPerChannel; offset += e.BlockSize {
		blockSize := e.BlockSize
		if offset+blockSize > samplesPerChannel {
			blockSize = samplesPerChannel - offset
		}

		// Deinterleave this block's channels.
		block := make([][]int32, e.Channels)
		for ch := 0; ch < e.Channels; ch++ {
			block[ch] = make([]int32, blockSize)
			for i := 0; i < blockSize; i++ {
				block[ch][i] = wide[(offset+i)*e.Channels+ch]
			}
		}

		frameSize, err := e.encodeFrame(&buf, block, frameNum)
		if err != nil {
			return fmt.Errorf("encode frame %d: %w", frameNum, err)
		}

		if uint32(frameSize) < e.minFrameSize {
			e.minFrameSize = uint32(frameSize)
		}
		if uint32(frameSize) > e.maxFrameSize {
			e.maxFrameSize = uint32(frameSize)
		}
		if uint16(blockSize) < e.minBlockSize {
			e.minBlockSize = uint16(blockSize)
		}
		if uint16(blockSize) > e.maxBlockSize {
			e.maxBlockSize = uint16(blockSize)
		}

		frameNum++
	}

	if _, err := w.Write([]byte("fLaC")); err != nil {
		return err
	}
	if err := e.writeStreamInfo(w); err != nil {
		return err
	}
	_, err := io.Copy(w, &buf)
	return err
}

// writeStreamInfo writes the STREAMINFO metadata block.
func (e *Encoder) writeStreamInfo(w io.Writer) error {
	// Block header: 1 bit last-metadata-block flag + 7 bits type + 24 bits
	// length. Type 0 = STREAMINFO, length = 34 bytes.
	header := []byte{0x80, 0x00, 0x00, 0x22}
	if _, err := w.Write(header); err != nil {
		return err
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, e.minBlockSize)
	binary.Write(&buf, binary.BigEndian, e.maxBlockSize)
	buf.Write([]byte{byte(e.minFrameSize >> 16), byte(e.minFrameSize >> 8), byte(e.minFrameSize)})
	buf.Write([]byte{byte(e.maxFrameSize >> 16), byte(e.maxFrameSize >> 8), byte(e.maxFrameSize)})

	// Sample rate (20 bits) + channels-1 (3 bits) + bits-per-sample-1 (5
	// bits) + total samples (36 bits) = 64 bits.
	sr := uint64(e.SampleRate)
	ch := uint64(e.Channels - 1)
	bps := uint64(bitsPerSample - 1)
	ts := e.totalSamples
	packed := (sr << 44) | (ch << 41) | (bps << 36) | ts
	for i := 7; i >= 0; i-- {
		buf.WriteByte(byte(packed >> (i * 8)))
	}

	buf.Write(e.md5sum[:])

	_, err := w.Write(buf.Bytes())
	return err
}

// encodeFrame encodes a single frame.
func (e *Encoder) encodeFrame(w io.Writer, block [][]int32, frameNum uint64) (int, error) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)

	blockSize := len(block[0])

	bw.ResetCRC8()
	bw.ResetCRC16()

	bw.WriteBits(0x3FFE, 14) // sync code
	bw.WriteBits(0, 1)       // reserved
	bw.WriteBits(0, 1)       // fixed block size

	blockSizeCode := getBlockSizeCode(blockSize)
	bw.WriteBits(uint64(blockSizeCode), 4)

	sampleRateCode := getSampleRateCode(e.SampleRate)
	bw.WriteBits(uint64(sampleRateCode), 4)

	channelCode := uint64(e.Channels - 1)
	bw.WriteBits(channelCode, 4)

	bw.WriteBits(uint64(getSampleSizeCode()), 3)
	bw.WriteBits(0, 1) // reserved

	bw.WriteUTF8(frameNum)

	if blockSizeCode == 6 {
		bw.WriteBits(uint64(blockSize-1), 8)
	} else if blockSizeCode == 7 {
		bw.WriteBits(uint64(blockSize-1), 16)
	}

	if sampleRateCode == 12 {
		bw.WriteBits(uint64(e.SampleRate/1000), 8)
	} else if sampleRateCode == 13 {
		bw.WriteBits(uint64(e.SampleRate), 16)
	} else if sampleRateCode == 14 {
		bw.WriteBits(uint64(e.SampleRate/10), 16)
	}

	bw.Flush()
	crc8 := bw.GetCRC8()
	bw.WriteByte(crc8)

	for ch := 0; ch < e.Channels; ch++ {
		if err := e.encodeSubframe(bw, block[ch]); err != nil {
			return 0, err
		}
	}

	bw.Flush()
	crc16 := bw.GetCRC16()
	bw.WriteUint16BE(crc16)

	n, err := w.Write(buf.Bytes())
	return n, err
}

// encodeSubframe picks the cheapest FIXED-prediction order (or verbatim)
// for samples and writes it.
func (e *Encoder) encodeSubframe(bw *BitWriter, samples []int32) error {
	bestOrder := 0
	bestSize := int64(1<<63 - 1)

	for order := 0; order <= 4 && order < len(samples); order++ {
		residuals := computeFixedResiduals(samples, order)
		size := estimateRiceSize(residuals)
		if size < bestSize {
			bestSize = size
			bestOrder = order
		}
	}

	verbatimSize := int64(len(samples) * bitsPerSample)
	if verbatimSize < bestSize {
		return e.encodeVerbatimSubframe(bw, samples)
	}
	return e.encodeFixedSubframe(bw, samples, bestOrder)
}

func (e *Encoder) encodeVerbatimSubframe(bw *BitWriter, samples []int32) error {
	bw.WriteBits(0, 1) // zero padding
	bw.WriteBits(1, 6) // subframe type: VERBATIM
	bw.WriteBits(0, 1) // wasted-bits flag

	for _, s := range samples {
		bw.WriteBits(uint64(uint32(s)), bitsPerSample)
	}
	return nil
}

func (e *Encoder) encodeFixedSubframe(bw *BitWriter, samples []int32, order int) error {
	bw.WriteBits(0, 1)                  // zero padding
	bw.WriteBits(uint64(0x08|order), 6) // subframe type: FIXED, this order
	bw.WriteBits(0, 1)                  // wasted-bits flag

	for i := 0; i < order; i++ {
		bw.WriteBits(uint64(uint32(samples[i])), bitsPerSample)
	}

	residuals := computeFixedResiduals(samples, order)
	return encodeRicePartition(bw, residuals)
}

// computeFixedResiduals computes residuals for FIXED prediction.
func computeFixedResiduals(samples []int32, order int) []int32 {
	n := len(samples)
	residuals := make([]int32, n-order)

	switch order {
	case 0:
		for i := order; i < n; i++ {
			residuals[i-order] = samples[i]
		}
	case 1:
		for i := order; i < n; i++ {
			residuals[i-order] = samples[i] - samples[i-1]
		}
	case 2:
		for i := order; i < n; i++ {
			residuals[i-order] = samples[i] - 2*samples[i-1] + samples[i-2]
		}
	case 3:
		for i := order; i < n; i++ {
			residuals[i-order] = samples[i] - 3*samples[i-1] + 3*samples[i-2] - samples[i-3]
		}
	case 4:
		for i := order; i < n; i++ {
			residuals[i-order] = samples[i] - 4*samples[i-1] + 6*samples[i-2] - 4*samples[i-3] + samples[i-4]
		}
	}

	return residuals
}

// estimateRiceSize estimates the bits needed to Rice-code residuals at
// their optimal parameter.
func estimateRiceSize(residuals []int32) int64 {
	if len(residuals) == 0 {
		return 0
	}

	var sum int64
	for _, r := range residuals {
		if r >= 0 {
			sum += int64(r)
		} else {
			sum += int64(-r - 1)
		}
	}

	avg := float64(sum) / float64(len(residuals))
	k := 0
	for (1 << k) < int(avg) {
		k++
	}
	if k > 14 {
		k = 14
	}

	var bits int64
	for _, r := range residuals {
		var uval uint32
		if r >= 0 {
			uval = uint32(r) << 1
		} else {
			uval = (uint32(-r-1) << 1) | 1
		}
		q := uval >> k
		bits += int64(q) + 1 + int64(k)
	}

	return bits
}

// encodeRicePartition Rice-codes residuals as a single partition at the
// optimal parameter.
func encodeRicePartition(bw *BitWriter, residuals []int32) error {
	if len(residuals) == 0 {
		bw.WriteBits(0, 2) // encoding method
		bw.WriteBits(0, 4) // partition order
		return nil
	}

	var sum int64
	for _, r := range residuals {
		if r >= 0 {
			sum += int64(r)
		} else {
			sum += int64(-r - 1)
		}
	}

	avg := float64(sum) / float64(len(residuals))
	k := 0
	for (1 << k) < int(avg) {
		k++
	}
	if k > 14 {
		k = 14
	}

	bw.WriteBits(0, 2) // residual coding method: Rice with 4-bit parameter
	bw.WriteBits(0, 4) // partition order: single partition
	bw.WriteBits(uint64(k), 4)

	for _, r := range residuals {
		if err := bw.WriteSignedRice(r, k); err != nil {
			return err
		}
	}
	return nil
}

func getBlockSizeCode(blockSize int) int {
	switch blockSize {
	case 192:
		return 1
	case 576:
		return 2
	case 1152:
		return 3
	case 2304:
		return 4
	case 4608:
		return 5
	case 256:
		return 8
	case 512:
		return 9
	case 1024:
		return 10
	case 2048:
		return 11
	case 4096:
		return 12
	case 8192:
		return 13
	case 16384:
		return 14
	case 32768:
		return 15
	default:
		if blockSize <= 256 {
			return 6 // 8-bit block size - 1
		}
		return 7 // 16-bit block size - 1
	}
}

func getSampleRateCode(sampleRate int) int {
	switch sampleRate {
	case 88200:
		return 1
	case 176400:
		return 2
	case 192000:
		return 3
	case 8000:
		return 4
	case 16000:
		return 5
	case 22050:
		return 6
	case 24000:
		return 7
	case 32000:
		return 8
	case 44100:
		return 9
	case 48000:
		return 10
	case 96000:
		return 11
	default:
		if sampleRate%1000 == 0 && sampleRate/1000 <= 255 {
			return 12 // 8-bit kHz
		} else if sampleRate <= 65535 {
			return 13 // 16-bit Hz
		}
		return 14 // 16-bit tens of Hz
	}
}

// getSampleSizeCode returns the FLAC frame-header sample-size code for a
// fixed 16-bit stream.
func getSampleSizeCode() int { return 4 }
