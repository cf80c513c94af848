package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/repository"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
)

// flakyStore fails every operation once broken is set.
type flakyStore struct {
	repository.Store
	broken bool
}

func (f *flakyStore) Insert(ctx context.Context, category string, e model.ScoreEntry) (model.ScoreEntry, error) {
	if f.broken {
		return model.ScoreEntry{}, repository.WrapStorage("insert", errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	}
	return f.Store.Insert(ctx, category, e)
}

func (f *flakyStore) TopN(ctx context.Context, category string, n int) ([]model.ScoreEntry, error) {
	if f.broken {
		return nil, repository.WrapStorage("top_n", errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	}
	return f.Store.TopN(ctx, category, n)
}

func (f *flakyStore) Categories(ctx context.Context) ([]string, error) {
	if f.broken {
		return nil, repository.WrapStorage("categories", errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	}
	return f.Store.Categories(ctx)
}

type fixture struct {
	mux   *http.ServeMux
	store *flakyStore
}

func newFixture(opts ...service.Option) fixture {
	store := &flakyStore{Store: repository.NewTreapStore()}
	opts = append([]service.Option{service.WithLogger(logger.Nop())}, opts...)
	svc, err := service.New(store, opts...)
	So(err, ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, logger.Nop()).Register(context.Background(), mux)
	return fixture{mux: mux, store: store}
}

func (f fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body["error"]
}

func decodeBoard(w *httptest.ResponseRecorder) []map[string]any {
	var board []map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &board), ShouldBeNil)
	return board
}

func TestLeaderboard_Post(t *testing.T) {
	Convey("Given the leaderboard API", t, func() {
		f := newFixture()

		Convey("When a valid score is posted", func() {
			w := f.do(http.MethodPost, "/leaderboard", `{"name":"Ana","score":90,"difficulty":"easy"}`)

			Convey("Then it should be created and echoed back", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")

				var resp struct {
					Success bool           `json:"success"`
					Data    map[string]any `json:"data"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Success, ShouldBeTrue)
				So(resp.Data["name"], ShouldEqual, "Ana")
				So(resp.Data["score"], ShouldEqual, float64(90))
				So(resp.Data["difficulty"], ShouldEqual, "easy")
				So(resp.Data["createdAt"], ShouldNotBeEmpty)
				So(resp.Data, ShouldNotContainKey, "id")
				So(resp.Data, ShouldNotContainKey, "seq")
			})

			Convey("Then the category board should include it", func() {
				board := decodeBoard(f.do(http.MethodGet, "/leaderboard?difficulty=easy", ""))
				So(board, ShouldHaveLength, 1)
				So(board[0]["name"], ShouldEqual, "Ana")
			})
		})

		Convey("When the body is rejected", func() {
			cases := []struct {
				body    string
				message string
			}{
				{`{"name":"Ana","score":"90","difficulty":"easy"}`, "score has the wrong type"},
				{`{"name":"Ana","difficulty":"easy"}`, "score is required"},
				{`{"name":"","score":1,"difficulty":"easy"}`, "name is required"},
				{`{"name":"Ana","score":1}`, "difficulty is required"},
				{`{"name":"Ana","score":1,"difficulty":"a/b"}`, "difficulty must not contain"},
				{`{"name":`, "invalid JSON body"},
				{`not json`, "invalid JSON body"},
				{`{"name":"Ana","score":1,"difficulty":"easy"} junk`, "invalid JSON body"},
				{`{"name":"Ana","score":1,"difficulty":"easy"}{}`, "invalid JSON body"},
			}

			Convey("Then each should answer 400 with a message", func() {
				for _, tc := range cases {
					w := f.do(http.MethodPost, "/leaderboard", tc.body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decodeError(w), ShouldContainSubstring, tc.message)
				}
			})

			Convey("Then nothing should be stored", func() {
				for _, tc := range cases {
					f.do(http.MethodPost, "/leaderboard", tc.body)
				}
				board := decodeBoard(f.do(http.MethodGet, "/leaderboard?difficulty=easy", ""))
				So(board, ShouldBeEmpty)
			})
		})

		Convey("When the body ends with whitespace", func() {
			w := f.do(http.MethodPost, "/leaderboard", "{\"name\":\"Ana\",\"score\":1,\"difficulty\":\"easy\"}\n\t ")

			Convey("Then it should still be created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When the body is too large", func() {
			big := `{"name":"` + strings.Repeat("a", 70000) + `","score":1,"difficulty":"easy"}`
			w := f.do(http.MethodPost, "/leaderboard", big)

			Convey("Then it should answer 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w), ShouldEqual, "request body too large")
			})
		})

		Convey("When storage fails", func() {
			f.store.broken = true
			w := f.do(http.MethodPost, "/leaderboard", `{"name":"Ana","score":90,"difficulty":"easy"}`)

			Convey("Then it should answer 500 without internal details", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w), ShouldEqual, "failed to save score")
				So(w.Body.String(), ShouldNotContainSubstring, "10.0.0.5")
			})
		})
	})
}

func TestLeaderboard_Get(t *testing.T) {
	Convey("Given the leaderboard API", t, func() {
		f := newFixture()

		Convey("When a category has no scores", func() {
			w := f.do(http.MethodGet, "/leaderboard?difficulty=hard", "")

			Convey("Then it should answer 200 with an empty array", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When the category cannot hold scores", func() {
			for _, q := range []string{"a%2Fb", "%20", "%20%09"} {
				w := f.do(http.MethodGet, "/leaderboard?difficulty="+q, "")

				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			}
		})

		Convey("When Ana, Bo and Cy have played", func() {
			f.do(http.MethodPost, "/leaderboard", `{"name":"Ana","score":50,"difficulty":"easy"}`)
			f.do(http.MethodPost, "/leaderboard", `{"name":"Bo","score":90,"difficulty":"hard"}`)
			f.do(http.MethodPost, "/leaderboard", `{"name":"Cy","score":70,"difficulty":"medium"}`)

			Convey("Then the unified board should merge them by score", func() {
				w := f.do(http.MethodGet, "/leaderboard", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				board := decodeBoard(w)
				So(board, ShouldHaveLength, 3)
				So(board[0]["name"], ShouldEqual, "Bo")
				So(board[1]["name"], ShouldEqual, "Cy")
				So(board[2]["name"], ShouldEqual, "Ana")
				So(board[0]["difficulty"], ShouldEqual, "hard")
			})
		})

		Convey("When a category holds more than ten scores", func() {
			for i := range 15 {
				body := `{"name":"p","score":` + strings.Repeat("1", i+1) + `,"difficulty":"easy"}`
				So(f.do(http.MethodPost, "/leaderboard", body).Code, ShouldEqual, http.StatusCreated)
			}

			Convey("Then only the top ten should be returned in descending order", func() {
				board := decodeBoard(f.do(http.MethodGet, "/leaderboard?difficulty=easy", ""))
				So(board, ShouldHaveLength, 10)
				for i := 1; i < len(board); i++ {
					So(board[i-1]["score"].(float64), ShouldBeGreaterThanOrEqualTo, board[i]["score"].(float64))
				}
			})
		})

		Convey("When storage fails", func() {
			f.store.broken = true

			Convey("Then category and unified reads should answer 500", func() {
				w := f.do(http.MethodGet, "/leaderboard?difficulty=easy", "")
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w), ShouldEqual, "failed to load leaderboard")

				w = f.do(http.MethodGet, "/leaderboard", "")
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w), ShouldEqual, "failed to load leaderboard")
			})
		})
	})

	Convey("Given the unified board is disabled", t, func() {
		f := newFixture(service.WithUnified(false))
		w := f.do(http.MethodGet, "/leaderboard", "")

		Convey("Then a read without difficulty should answer 400", func() {
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w), ShouldEqual, "difficulty is required")
		})
	})
}

func TestLeaderboard_Methods(t *testing.T) {
	Convey("Given the leaderboard API", t, func() {
		f := newFixture()

		Convey("When an unsupported method is used", func() {
			for _, m := range []string{http.MethodPut, http.MethodDelete, http.MethodPatch} {
				w := f.do(m, "/leaderboard", "")

				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, "GET, POST")
				So(decodeError(w), ShouldEqual, "method not allowed")
			}
		})
	})
}

func TestServer_Probes(t *testing.T) {
	Convey("Given a registered server", t, func() {
		f := newFixture()
		f.do(http.MethodPost, "/leaderboard", `{"name":"Ana","score":50,"difficulty":"easy"}`)

		Convey("Then /healthz should expose service metrics", func() {
			w := f.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "podium_leaderboard_submissions_accepted_total")
		})

		Convey("Then /stats should report the service state", func() {
			w := f.do(http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["topN"], ShouldEqual, float64(10))
			So(stats["storedEntries"], ShouldEqual, float64(1))
		})

		Convey("Then /readyz should follow the store", func() {
			So(f.do(http.MethodGet, "/readyz", "").Code, ShouldEqual, http.StatusOK)

			f.store.broken = true
			w := f.do(http.MethodGet, "/readyz", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decodeError(w), ShouldEqual, "store unavailable")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API error helpers", t, func() {
		cause := errors.New("boom")

		Convey("Wrap should keep the cause and name the operation", func() {
			err := api.Wrap("api.op", cause)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: boom")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})

		Convey("WrapKind should match both the kind and the cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("NewKind should match the kind only", func() {
			err := api.NewKind("api.op", api.ErrMethodNotAllowed)
			So(errors.Is(err, api.ErrMethodNotAllowed), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: method not allowed")
		})
	})
}
