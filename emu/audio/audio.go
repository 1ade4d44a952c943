// Package audio plays the sound timer's beep through the beep speaker.
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const (
	SampleRate = beep.SampleRate(44100)
	toneHz     = 440
	toneLength = time.Second / 10
	volume     = 0.3
)

// Sounder is anything that can beep.
type Sounder interface {
	Beep()
}

// Beeper plays a buffered sound on every Beep.
type Beeper struct {
	sound *beep.Buffer
}

// New initialises the speaker and prepares the beep: the mp3 at beepFile,
// or a square tone when beepFile is empty.
func New(beepFile string) (*Beeper, error) {
	var (
		sound *beep.Buffer
		err   error
	)
	if beepFile != "" {
		sound, err = LoadMP3(beepFile, SampleRate)
		if err != nil {
			return nil, err
		}
	} else {
		sound = SquareWave(SampleRate, toneHz, toneLength)
	}

	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}
	return &Beeper{sound: sound}, nil
}

// Beep starts the sound and returns at once.
func (b *Beeper) Beep() {
	speaker.Play(b.sound.Streamer(0, b.sound.Len()))
}

// Mute swallows beeps, logging them at debug level.
type Mute struct{}

func (Mute) Beep() {
	slog.Debug("beep")
}

// SquareWave renders d of a stereo square wave at freq.
func SquareWave(sr beep.SampleRate, freq float64, d time.Duration) *beep.Buffer {
	total := sr.N(d)
	period := float64(sr) / freq

	i := 0
	wave := beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if i >= total {
			return 0, false
		}
		for n = 0; n < len(samples) && i < total; n, i = n+1, i+1 {
			v := volume
			if math.Mod(float64(i), period) >= period/2 {
				v = -volume
			}
			samples[n][0], samples[n][1] = v, v
		}
		return n, true
	})

	buf := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2})
	buf.Append(wave)
	return buf
}

// LoadMP3 decodes the whole file into memory, resampled to sr.
func LoadMP3(path string, sr beep.SampleRate) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening beep sound: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != sr {
		s = beep.Resample(4, format.SampleRate, sr, streamer)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: format.NumChannels, Precision: format.Precision})
	buf.Append(s)
	return buf, nil
}
