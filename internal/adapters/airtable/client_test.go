package airtable_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/okian/rentscore/internal/adapters/airtable"
	. "github.com/smartystreets/goconvey/convey"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Records(t *testing.T) {
	Convey("Given a table spread over two pages", t, func() {
		var calls atomic.Int32
		var authHeader, path string
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			authHeader = r.Header.Get("Authorization")
			path = r.URL.Path
			if r.URL.Query().Get("offset") == "" {
				writeJSON(w, map[string]any{
					"records": []map[string]any{{"id": "rec1", "fields": map[string]any{"Rent Price": 1000}}},
					"offset":  "next",
				})
				return
			}
			writeJSON(w, map[string]any{
				"records": []map[string]any{{"id": "rec2", "fields": map[string]any{"Rent Price": 2000}}},
			})
		})
		c := airtable.New("app123", "Listings", "secret",
			airtable.WithBaseURL(srv.URL), airtable.WithRateLimit(1000))

		Convey("When fetching all records", func() {
			recs, err := c.Records(context.Background())

			Convey("Then every page is followed", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(recs[0].ID, ShouldEqual, "rec1")
				So(recs[1].ID, ShouldEqual, "rec2")
				So(int(calls.Load()), ShouldEqual, 2)
			})

			Convey("Then the request is authenticated against the table path", func() {
				So(authHeader, ShouldEqual, "Bearer secret")
				So(path, ShouldEqual, "/v0/app123/Listings")
			})
		})
	})

	Convey("Given an upstream failure", t, func() {
		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"AUTHENTICATION_REQUIRED"}`, http.StatusUnauthorized)
		})
		c := airtable.New("app123", "Listings", "bad", airtable.WithBaseURL(srv.URL))

		Convey("Then ErrUpstream is returned", func() {
			_, err := c.Records(context.Background())
			So(errors.Is(err, airtable.ErrUpstream), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "status=401")
		})
	})

	Convey("Given a malformed body", t, func() {
		srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		})
		c := airtable.New("app123", "Listings", "secret", airtable.WithBaseURL(srv.URL))

		Convey("Then a decode error is returned", func() {
			_, err := c.Records(context.Background())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "decoding response")
		})
	})

	Convey("Given missing credentials", t, func() {
		c := airtable.New("", "Listings", "")

		Convey("Then no request is made", func() {
			So(c.Configured(), ShouldBeFalse)
			_, err := c.Records(context.Background())
			So(err, ShouldEqual, airtable.ErrNotConfigured)
			_, err = c.FirstN(context.Background(), 3)
			So(err, ShouldEqual, airtable.ErrNotConfigured)
		})
	})
}

func TestClient_FirstN(t *testing.T) {
	Convey("Given a listing table", t, func() {
		var maxRecords string
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			maxRecords = r.URL.Query().Get("maxRecords")
			writeJSON(w, map[string]any{
				"records": []map[string]any{
					{"id": "a", "fields": map[string]any{"Name": "Studio"}, "createdTime": "2025-08-01T00:00:00.000Z"},
				},
				"offset": "ignored",
			})
		})
		c := airtable.New("app123", "Listings", "secret", airtable.WithBaseURL(srv.URL))

		Convey("Then maxRecords is sent and pagination is not followed", func() {
			recs, err := c.FirstN(context.Background(), 3)
			So(err, ShouldBeNil)
			So(maxRecords, ShouldEqual, "3")
			So(recs, ShouldHaveLength, 1)
			So(recs[0].CreatedTime, ShouldEqual, "2025-08-01T00:00:00.000Z")
		})
	})
}
