package loadgen_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/podium/internal/adapters/http/api"
	"github.com/okian/podium/internal/adapters/repository"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/loadgen"
	"github.com/okian/podium/pkg/logger"
)

func newServer(t *testing.T, opts ...service.Option) *httptest.Server {
	t.Helper()
	svc, err := service.New(repository.NewTreapStore(), append([]service.Option{service.WithLogger(logger.Nop())}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, logger.Nop()).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) loadgen.Config {
	cfg := loadgen.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Submissions = 300
	cfg.Workers = 4
	cfg.Seed = 42
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := loadgen.NewGenerator(7).Generate(50, []string{"easy", "hard"})
		b := loadgen.NewGenerator(7).Generate(50, []string{"easy", "hard"})

		Convey("Then they should produce the same submissions", func() {
			So(a, ShouldResemble, b)
		})

		Convey("Then every submission should be valid input", func() {
			for _, s := range a {
				So(s.Name, ShouldNotBeBlank)
				So(s.Score, ShouldBeBetweenOrEqual, 0.0, 1000.0)
				So(s.Difficulty, ShouldBeIn, []string{"easy", "hard"})
			}
		})
	})

	Convey("Given a zero seed", t, func() {
		g := loadgen.NewGenerator(0)

		Convey("Then a seed should be chosen", func() {
			So(g.Seed(), ShouldNotEqual, 0)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running leaderboard", t, func() {
		srv := newServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When a load run completes", func() {
			var out bytes.Buffer
			report, err := loadgen.Run(ctx, testConfig(srv.URL), &out)

			Convey("Then every submission should be created and verified", func() {
				So(err, ShouldBeNil)
				So(report.Violations, ShouldBeEmpty)
				So(report.Stats.Successful, ShouldEqual, 300)
				So(report.Stats.Failed, ShouldEqual, 0)
				So(report.Stats.Boards, ShouldEqual, 4)
				So(report.Unified, ShouldHaveLength, 10)
				for _, b := range report.Boards {
					So(len(b), ShouldBeLessThanOrEqualTo, 10)
				}
			})

			Convey("Then the tables should be rendered", func() {
				So(out.String(), ShouldContainSubstring, "Submitted")
				So(out.String(), ShouldContainSubstring, "DIFFICULTY")
			})
		})
	})

	Convey("Given no service listening", t, func() {
		srv := newServer(t)
		url := srv.URL
		srv.Close()

		_, err := loadgen.Run(context.Background(), testConfig(url), nil)

		Convey("Then the run should fail the readiness check", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "readiness")
		})
	})

	Convey("Given a service without the unified board", t, func() {
		srv := newServer(t, service.WithUnified(false))

		_, err := loadgen.Run(context.Background(), testConfig(srv.URL), nil)

		Convey("Then the run should fail reading it", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, loadgen.ErrVerification), ShouldBeFalse)
		})
	})

	Convey("Given an invalid configuration", t, func() {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.Workers = 0

		_, err := loadgen.Run(context.Background(), cfg, nil)
		So(err, ShouldNotBeNil)
	})
}
