package speech_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"

	"github.com/okian/intentiq/internal/adapters/speech"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWhisper(t *testing.T) {
	ctx := context.Background()

	Convey("Given an OpenAI-compatible transcription endpoint", t, func() {
		var gotPath, gotModel, gotFilename string
		var fileSize int64
		status := http.StatusOK
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				gotModel = r.FormValue("model")
				if f, h, err := r.FormFile("file"); err == nil {
					gotFilename = h.Filename
					fileSize = h.Size
					_ = f.Close()
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if status == http.StatusOK {
				_, _ = w.Write([]byte(`{"text":"  what is the weather tomorrow "}`))
			} else {
				_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			}
		}))
		defer srv.Close()

		w, err := speech.NewWhisper(speech.WhisperConfig{APIKey: "test", BaseURL: srv.URL}, option.WithMaxRetries(0))
		So(err, ShouldBeNil)

		Convey("When transcribing a buffer", func() {
			text, err := w.Transcribe(ctx, make([]float32, 1600))

			Convey("Then a WAV upload is sent and the text trimmed", func() {
				So(err, ShouldBeNil)
				So(text, ShouldEqual, "what is the weather tomorrow")
				So(gotPath, ShouldEndWith, "/audio/transcriptions")
				So(gotModel, ShouldEqual, speech.DefaultWhisperModel)
				So(gotFilename, ShouldEqual, "utterance.wav")
				So(fileSize, ShouldEqual, 44+1600*2)
			})
		})

		Convey("When the endpoint fails", func() {
			status = http.StatusInternalServerError
			_, err := w.Transcribe(ctx, make([]float32, 16))
			So(errors.Is(err, speech.ErrRecognition), ShouldBeTrue)
		})

		Convey("When the buffer is empty", func() {
			_, err := w.Transcribe(ctx, nil)
			So(errors.Is(err, speech.ErrRecognition), ShouldBeTrue)
		})
	})

	Convey("Whisper needs an api key", t, func() {
		_, err := speech.NewWhisper(speech.WhisperConfig{})
		So(errors.Is(err, speech.ErrNotConfigured), ShouldBeTrue)
	})
}
