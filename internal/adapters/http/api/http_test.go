package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/intentiq/internal/adapters/http/api"
	"github.com/okian/intentiq/internal/adapters/repository"
	"github.com/okian/intentiq/internal/app"
	"github.com/okian/intentiq/internal/domain/intent"
	"github.com/okian/intentiq/internal/domain/model"
	"github.com/okian/intentiq/internal/domain/skill"
	. "github.com/smartystreets/goconvey/convey"
)

var labels = []string{"exit", "greet", "lights_on"}

// keywordClassifier picks the first label contained in the text.
type keywordClassifier struct{}

func (keywordClassifier) Predict(_ context.Context, text string) (intent.Prediction, error) {
	for i, l := range labels {
		if strings.Contains(text, l) {
			dist := make([]float64, len(labels))
			dist[i] = 1
			return intent.Prediction{Label: l, Index: i, Labels: labels, Distribution: dist}, nil
		}
	}
	return intent.Prediction{}, intent.ErrPredict
}

type fixture struct {
	mux   *http.ServeMux
	store *repository.FileStore
}

func newFixture(t *testing.T) fixture {
	ctx := context.Background()
	store, err := repository.NewFileStore(t.TempDir(), map[string]string{"LR": "lr", "SVC": "svc"})
	if err != nil {
		t.Fatal(err)
	}
	skills := skill.New(ctx, skill.WithHandler("greet", skill.HandlerFunc(func(_ context.Context, text string) (skill.Result, error) {
		return skill.Result{Message: "hello, " + text}, nil
	})))
	engine, err := app.New(keywordClassifier{}, skills, nil, app.WithOutput(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	api.NewServer(api.Dependencies{Engine: engine, Skills: skills, Versions: store}).Register(ctx, mux)
	return fixture{mux: mux, store: store}
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given the API server", t, func() {
		f := newFixture(t)

		Convey("When probing health", func() {
			w := f.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
			So(decode[map[string]string](w)["status"], ShouldEqual, "ok")
		})

		Convey("When scraping metrics after a request", func() {
			f.do(http.MethodGet, "/healthz", "")
			w := f.do(http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "intentiq_core_http_requests_total")
		})

		Convey("When using the wrong method", func() {
			w := f.do(http.MethodPost, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(w.Header().Get("Allow"), ShouldEqual, http.MethodGet)
		})
	})
}

func TestPredict(t *testing.T) {
	Convey("Given the API server", t, func() {
		f := newFixture(t)

		Convey("When classifying text", func() {
			w := f.do(http.MethodPost, "/predict", `{"text":"greet the team"}`)
			out := decode[app.Outcome](w)

			Convey("Then the label and scores come back without a skill result", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(out.Label, ShouldEqual, "greet")
				So(out.Scores, ShouldHaveLength, len(labels))
				So(out.Scores[1], ShouldResemble, intent.Score{Label: "greet", Probability: 1})
				So(out.Result, ShouldBeNil)
			})
		})

		Convey("When the body is invalid", func() {
			So(f.do(http.MethodPost, "/predict", `{"text":`).Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodPost, "/predict", `{"txt":"x"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(f.do(http.MethodPost, "/predict", `{"text":"   "}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When classification fails", func() {
			w := f.do(http.MethodPost, "/predict", `{"text":"gibberish"}`)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode[map[string]string](w)["code"], ShouldEqual, "internal")
		})
	})
}

func TestDispatch(t *testing.T) {
	Convey("Given the API server", t, func() {
		f := newFixture(t)

		Convey("When dispatching a named intent", func() {
			w := f.do(http.MethodPost, "/dispatch", `{"intent":"greet","text":"bob"}`)
			res := decode[skill.Result](w)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(res.Message, ShouldEqual, "hello, bob")
			So(res.Intent, ShouldEqual, "greet")
		})

		Convey("When dispatching a named intent without a skill", func() {
			w := f.do(http.MethodPost, "/dispatch", `{"intent":"lights_on","text":"kitchen"}`)

			Convey("Then it is rejected and no placeholder is registered", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode[map[string]string](w)["code"], ShouldEqual, "not_found")
				skills := decode[map[string][]string](f.do(http.MethodGet, "/skills", ""))
				So(skills["intents"], ShouldNotContain, "lights_on")
			})
		})

		Convey("When text classifies to an intent without a skill", func() {
			w := f.do(http.MethodPost, "/dispatch", `{"text":"lights_on in the kitchen"}`)
			out := decode[app.Outcome](w)

			Convey("Then a placeholder answers and becomes discoverable", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(out.Result, ShouldNotBeNil)
				So(out.Result.Placeholder, ShouldBeTrue)
				skills := decode[map[string][]string](f.do(http.MethodGet, "/skills", ""))
				So(skills["intents"], ShouldContain, "lights_on")
			})
		})

		Convey("When dispatching text only", func() {
			w := f.do(http.MethodPost, "/dispatch", `{"text":"please greet"}`)
			out := decode[app.Outcome](w)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(out.Label, ShouldEqual, "greet")
			So(out.Result, ShouldNotBeNil)
			So(out.Result.Message, ShouldEqual, "hello, please greet")
		})

		Convey("When the text classifies as exit", func() {
			out := decode[app.Outcome](f.do(http.MethodPost, "/dispatch", `{"text":"exit now"}`))
			So(out.Exit, ShouldBeTrue)
			So(out.Result, ShouldBeNil)
		})

		Convey("When the named intent is blank and there is no text", func() {
			w := f.do(http.MethodPost, "/dispatch", `{"intent":"  "}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestVersions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with two LR versions", t, func() {
		f := newFixture(t)
		set := model.ArtifactSet{Classifier: []byte("c"), LabelEncoder: []byte("e")}
		for i := 0; i < 2; i++ {
			_, err := f.store.Save(ctx, model.FamilyLR, set)
			So(err, ShouldBeNil)
		}

		type row struct {
			Family   string `json:"family"`
			Versions []int  `json:"versions"`
			Latest   int    `json:"latest"`
		}

		Convey("When listing one family", func() {
			w := f.do(http.MethodGet, "/versions?family=LR", "")
			rows := decode[[]row](w)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(rows, ShouldResemble, []row{{Family: "LR", Versions: []int{1, 2}, Latest: 2}})
		})

		Convey("When listing every family", func() {
			rows := decode[[]row](f.do(http.MethodGet, "/versions", ""))
			So(rows, ShouldHaveLength, 2)
			So(rows[1], ShouldResemble, row{Family: "SVC", Versions: []int{}})
		})

		Convey("When the family is unknown", func() {
			w := f.do(http.MethodGet, "/versions?family=Forest", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[map[string]string](w)["code"], ShouldEqual, "not_found")
		})
	})
}
