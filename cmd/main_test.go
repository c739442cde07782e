package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/rentscore/internal/adapters/airtable"
	"github.com/okian/rentscore/internal/config"
	"github.com/okian/rentscore/internal/domain/types"
	"github.com/okian/rentscore/pkg/logger"
)

// isolateEnv clears every variable that would point the CLI at real
// infrastructure.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("RENTSCORE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, key := range []string{
		"RENTSCORE_CONFIG",
		"RENTSCORE_DATABASE_URL",
		"RENTSCORE_REDIS_ADDR",
		"RENTSCORE_AIRTABLE__BASE_ID",
		"RENTSCORE_AIRTABLE__API_KEY",
		"DATABASE_URL",
		"AIRTABLE_BASE_ID",
		"AIRTABLE_API_KEY",
		"AIRTABLE_TABLE_NAME",
		"PORT",
	} {
		t.Setenv(key, "")
	}
}

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func feedServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[
			{"id":"rec1","fields":{"Name":"Studio","Rent Price":1000,"Sonnet 4 Guess":1100,"GPT 5 Guess":0}},
			{"id":"rec2","fields":{"Name":"Loft","Rent Price":"$2,000","Sonnet 4 Guess":1800,"GPT 5 Guess":0}}
		]}`))
	}))
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the rentscore command", t, func() {
		isolateEnv(t)

		convey.Convey("When testing configuration loading", func() {
			t.Setenv("RENTSCORE_ADDR", ":9090")
			t.Setenv("RENTSCORE_LEADERBOARD__HUMAN_LIMIT", "5")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Leaderboard.HumanLimit, convey.ShouldEqual, 5)
				convey.So(cfg.AirtableConfigured(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When building the service with defaults", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)

			svc, err := buildService(context.Background(), cfg, logger.New(&bytes.Buffer{}, "text"))
			convey.So(err, convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then it runs on the in-memory store without a feed", func() {
				board, err := svc.WeeklyLeaderboard(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(board, convey.ShouldBeEmpty)

				_, err = svc.RunScoring(context.Background())
				convey.So(errors.Is(err, airtable.ErrNotConfigured), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When printing an empty leaderboard", func() {
			out, _, err := execute("leaderboard", "daily")

			convey.Convey("Then it reports no scores", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "No scores yet.")
			})
		})

		convey.Convey("When asking for an unknown board", func() {
			_, _, err := execute("leaderboard", "monthly")

			convey.Convey("Then the arguments are rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When scoring without feed credentials", func() {
			_, _, err := execute("score")

			convey.Convey("Then the command fails", func() {
				convey.So(errors.Is(err, airtable.ErrNotConfigured), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a feed is configured", func() {
			srv := feedServer()
			defer srv.Close()
			t.Setenv("RENTSCORE_AIRTABLE__BASE_URL", srv.URL)
			t.Setenv("RENTSCORE_AIRTABLE__BASE_ID", "app123")
			t.Setenv("RENTSCORE_AIRTABLE__API_KEY", "key")

			convey.Convey("Then score prints the run and the weekly board", func() {
				out, _, err := execute("score")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Scored 1 of 2 participants over 2 listings")
				convey.So(out, convey.ShouldContainSubstring, "No valid predictions: GPT 5")
				convey.So(out, convey.ShouldContainSubstring, "Weekly leaderboard")
				convey.So(out, convey.ShouldContainSubstring, "Sonnet 4")
			})

			convey.Convey("Then score emits JSON on request", func() {
				out, _, err := execute("score", "--json")
				convey.So(err, convey.ShouldBeNil)

				var payload struct {
					Weekly []types.Entry `json:"weekly"`
				}
				convey.So(json.Unmarshal([]byte(out), &payload), convey.ShouldBeNil)
				convey.So(payload.Weekly, convey.ShouldHaveLength, 1)
				convey.So(payload.Weekly[0].Username, convey.ShouldEqual, "Sonnet 4")
				convey.So(payload.Weekly[0].ScoreValue, convey.ShouldEqual, 90)
				convey.So(payload.Weekly[0].Rank, convey.ShouldEqual, 1)
			})

			convey.Convey("Then explain shows the per-listing breakdown", func() {
				out, _, err := execute("explain", "Sonnet 4")
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Calculations for Sonnet 4")
				convey.So(out, convey.ShouldContainSubstring, "Studio")
				convey.So(out, convey.ShouldContainSubstring, "10.00%")
				convey.So(out, convey.ShouldContainSubstring, "Accuracy score: 90.0%")
			})

			convey.Convey("Then explain rejects names without a guess column", func() {
				_, _, err := execute("explain", "alice")
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
