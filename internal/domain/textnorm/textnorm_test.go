package textnorm_test

import (
	"testing"

	"github.com/okian/intentiq/internal/domain/textnorm"
	"github.com/smartystreets/goconvey/convey"
)

func TestProcess(t *testing.T) {
	convey.Convey("Given the default preprocessor", t, func() {
		p := textnorm.New()

		convey.Convey("When the wake word leads a request", func() {
			wake, text := p.Process("Hey Lappy, can you please open YouTube")

			convey.Convey("Then it is detected and removed with punctuation and fillers", func() {
				convey.So(wake, convey.ShouldBeTrue)
				convey.So(text, convey.ShouldEqual, "hey can you open youtube")
			})
		})

		convey.Convey("When only fillers surround the text", func() {
			wake, text := p.Process("umm hi there")
			convey.So(wake, convey.ShouldBeFalse)
			convey.So(text, convey.ShouldEqual, "hi there")
		})

		convey.Convey("When apostrophes are present", func() {
			_, text := p.Process("What's the TIME?!")
			convey.So(text, convey.ShouldEqual, "what's time")
		})

		convey.Convey("When the wake word repeats", func() {
			wake, text := p.Process("lappy tell lappy a joke")
			convey.So(wake, convey.ShouldBeTrue)
			convey.So(text, convey.ShouldEqual, "tell lappy joke")
		})

		convey.Convey("When input is blank", func() {
			wake, text := p.Process("   ")
			convey.So(wake, convey.ShouldBeFalse)
			convey.So(text, convey.ShouldEqual, "")
		})
	})

	convey.Convey("Given custom options", t, func() {
		p := textnorm.New(textnorm.WithWakeWord("Jarvis"), textnorm.WithFillerWords([]string{"ok"}))
		wake, text := p.Process("OK Jarvis, the lights")
		convey.So(wake, convey.ShouldBeTrue)
		convey.So(text, convey.ShouldEqual, "the lights")
	})
}

func TestNormalize(t *testing.T) {
	convey.Convey("Given full-width and accented input", t, func() {
		out := textnorm.Normalize("  ＨＥＬＬＯ  Café—now ")
		convey.So(out, convey.ShouldEqual, "hello café now")
	})
}
