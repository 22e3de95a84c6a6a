package transcode

import (
	"encoding/binary"
	"fmt"
	"io"

	shinemp3 "github.com/braheezy/shine-mp3/pkg/mp3"

	"github.com/nikolaydubina/neuralink-compression-challenge/pkg/flacenc"
)

func encodeWAV(w io.Writer, samples []int16, info WAVInfo) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to encode")
	}

	if _, err := w.Write(BuildWAVHeader(info, len(samples)*2)); err != nil {
		return err
	}

	for _, s := range samples {
		if err := binary.Write(w, binary.LittleEndian, s); err != nil {
			return err
		}
	}
	return nil
}

func encodeMP3(w io.Writer, samples []int16, info WAVInfo) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to encode")
	}

	encoder := shinemp3.NewEncoder(info.SampleRate, info.Channels)
	return encoder.Write(w, samples)
}

func encodeFLAC(w io.Writer, samples []int16, info WAVInfo) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to encode")
	}

	return flacenc.EncodeFromInt16(w, samples, info.SampleRate, info.Channels)
}
