package audio_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/intentiq/internal/adapters/audio"
	. "github.com/smartystreets/goconvey/convey"
)

func ramp(n int) []byte {
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	return pcm
}

func drain(ch <-chan []byte, limit int) []byte {
	var out []byte
	for chunk := range ch {
		out = append(out, chunk...)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func TestReplay(t *testing.T) {
	ctx := context.Background()

	Convey("Given a replay of 10 frames in blocks of 4", t, func() {
		pcm := ramp(20)
		r := audio.NewReplay(pcm, audio.WithBlockSize(4))

		Convey("When it is read to the end", func() {
			ch, err := r.Start(ctx)
			So(err, ShouldBeNil)
			var sizes []int
			var all []byte
			for chunk := range ch {
				sizes = append(sizes, len(chunk))
				all = append(all, chunk...)
			}

			Convey("Then chunks are block sized with a short tail and the stream closes", func() {
				So(sizes, ShouldResemble, []int{8, 8, 4})
				So(all, ShouldResemble, pcm)
				So(r.Remaining(), ShouldEqual, 0)
				So(r.Stop(), ShouldBeNil)
			})

			Convey("Then a new capture is immediately exhausted", func() {
				So(r.Stop(), ShouldBeNil)
				ch, err := r.Start(ctx)
				So(err, ShouldBeNil)
				So(drain(ch, 0), ShouldBeEmpty)
			})
		})

		Convey("When capture stops after the first chunk", func() {
			ch, err := r.Start(ctx)
			So(err, ShouldBeNil)
			first := <-ch
			So(r.Stop(), ShouldBeNil)

			Convey("Then the next capture resumes right after what was read", func() {
				So(r.Remaining(), ShouldEqual, 12)
				ch, err := r.Start(ctx)
				So(err, ShouldBeNil)
				rest := drain(ch, 0)
				So(append(first, rest...), ShouldResemble, pcm)
			})
		})

		Convey("Then Stop is safe before Start and repeatable", func() {
			So(r.Stop(), ShouldBeNil)
			So(r.Stop(), ShouldBeNil)
		})
	})

	Convey("Given a paced replay", t, func() {
		r := audio.NewReplay(ramp(64), audio.WithBlockSize(16), audio.WithSampleRate(1000), audio.WithPacing(true))

		Convey("Then chunks arrive no faster than real time", func() {
			start := time.Now()
			ch, err := r.Start(ctx)
			So(err, ShouldBeNil)
			So(len(drain(ch, 0)), ShouldEqual, 64)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 30*time.Millisecond)
		})
	})
}

func TestWAV(t *testing.T) {
	Convey("Given PCM samples", t, func() {
		pcm := audio.Float32ToPCM16([]float32{0, 0.5, -0.5, 2, -2})

		Convey("Then conversion clips and round trips within one step", func() {
			back := audio.PCM16ToFloat32(pcm)
			So(len(back), ShouldEqual, 5)
			So(back[1], ShouldAlmostEqual, 0.5, 1e-3)
			So(back[2], ShouldAlmostEqual, -0.5, 1e-3)
			So(back[3], ShouldAlmostEqual, 1.0, 1e-3)
			So(back[4], ShouldAlmostEqual, -1.0, 1e-3)
		})

		Convey("When wrapped in a WAV header", func() {
			wav := audio.EncodeWAV(pcm, 16000)
			So(len(wav), ShouldEqual, 44+len(pcm))

			data, rate, err := audio.DecodeWAV(wav)
			So(err, ShouldBeNil)
			So(rate, ShouldEqual, 16000)
			So(data, ShouldResemble, pcm)

			r, err := audio.NewReplayReader(bytes.NewReader(wav))
			So(err, ShouldBeNil)
			So(r.SampleRate(), ShouldEqual, 16000)
			So(r.Remaining(), ShouldEqual, len(pcm))
		})

		Convey("When the input has no RIFF header it is taken as raw PCM", func() {
			data, rate, err := audio.DecodeWAV(pcm)
			So(err, ShouldBeNil)
			So(rate, ShouldEqual, 0)
			So(data, ShouldResemble, pcm)
		})

		Convey("When the WAV is stereo it is rejected", func() {
			wav := audio.EncodeWAV(pcm, 16000)
			wav[22] = 2
			_, _, err := audio.DecodeWAV(wav)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Durations follow the sample rate", t, func() {
		So(audio.Duration(32000, 16000), ShouldEqual, time.Second)
		So(audio.ChunkBytes(4000), ShouldEqual, 8000)
		So(audio.Duration(10, 0), ShouldEqual, time.Duration(0))
	})
}

func TestSourceErrors(t *testing.T) {
	Convey("Sentinels are distinct", t, func() {
		So(errors.Is(audio.ErrStopped, audio.ErrDeviceUnavailable), ShouldBeFalse)
	})
}
