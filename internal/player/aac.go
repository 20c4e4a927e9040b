package player

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-faad2"
)

// aacDecoder wraps go-faad2's M4AReader to implement beep.StreamSeekCloser.
type aacDecoder struct {
	reader   *faad2.M4AReader
	closer   io.Closer
	format   beep.Format
	err      error
	readBuf  []int16
	totalLen int
}

// decodeAAC decodes an M4A/MP4 source using the go-faad2 library.
func decodeAAC(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	reader, err := faad2.OpenM4A(context.Background(), rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	sampleRate := reader.SampleRate()

	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2, // mono input is duplicated to stereo
		Precision:   2, // 16-bit
	}

	duration := reader.Duration()
	totalLen := int(duration.Seconds() * float64(sampleRate))

	d := &aacDecoder{
		reader:   reader,
		closer:   rc,
		format:   format,
		readBuf:  make([]int16, 8192),
		totalLen: totalLen,
	}

	return d, format, nil
}

func (d *aacDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}

	channels := int(d.reader.Channels())

	samplesNeeded := len(samples) * channels
	if len(d.readBuf) < samplesNeeded {
		d.readBuf = make([]int16, samplesNeeded)
	}

	samplesRead, err := d.reader.Read(context.Background(), d.readBuf[:samplesNeeded])
	if err != nil && !errors.Is(err, io.EOF) {
		d.err = err
		return 0, false
	}

	if samplesRead == 0 {
		return 0, false
	}

	if channels == 2 {
		framesRead := samplesRead / 2
		for i := 0; i < framesRead && i < len(samples); i++ {
			left := d.readBuf[i*2]
			right := d.readBuf[i*2+1]
			samples[i][0] = float64(left) / 32768.0
			samples[i][1] = float64(right) / 32768.0
			n++
		}
	} else {
		for i := 0; i < samplesRead && i < len(samples); i++ {
			sample := float64(d.readBuf[i]) / 32768.0
			samples[i][0] = sample
			samples[i][1] = sample
			n++
		}
	}

	return n, true
}

func (d *aacDecoder) Err() error {
	return d.err
}

func (d *aacDecoder) Len() int {
	return d.totalLen
}

func (d *aacDecoder) Position() int {
	pos := d.reader.Position()
	return int(pos.Seconds() * float64(d.reader.SampleRate()))
}

func (d *aacDecoder) Seek(p int) error {
	if p < 0 {
		p = 0
	}
	if length := d.Len(); p > length {
		p = length
	}

	pos := time.Duration(float64(p) / float64(d.reader.SampleRate()) * float64(time.Second))
	if err := d.reader.Seek(pos); err != nil {
		return err
	}
	d.err = nil
	return nil
}

func (d *aacDecoder) Close() error {
	if err := d.reader.Close(context.Background()); err != nil {
		return err
	}
	return d.closer.Close()
}
