package airtable_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/rentscore/internal/adapters/airtable"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMapper(t *testing.T) {
	Convey("Given records with guess columns", t, func() {
		records := []airtable.Record{
			{ID: "r1", Fields: map[string]any{
				"Name":        "Studio",
				"Rent Price":  json.Number("2400"),
				"GPT 5 Guess": json.Number("2500"),
				"Notes":       "sunny",
			}},
			{ID: "r2", Fields: map[string]any{
				"Rent Price":     "$1,800",
				"Sonnet 4 Guess": 0.0,
				"GPT 5 Guess":    "n/a",
			}},
		}
		m := airtable.NewMapper()

		Convey("When listing participants", func() {
			Convey("Then guess columns from every record are discovered, sorted", func() {
				So(m.Participants(records), ShouldResemble, []string{"GPT 5", "Sonnet 4"})
			})
		})

		Convey("When mapping", func() {
			out := m.Map(records)

			Convey("Then values are parsed and names kept", func() {
				So(out, ShouldHaveLength, 2)
				So(out[0].ListingID, ShouldEqual, "r1")
				So(out[0].Name, ShouldEqual, "Studio")
				So(*out[0].ActualRent, ShouldEqual, 2400.0)
				So(*out[0].Guesses["GPT 5"], ShouldEqual, 2500.0)
				So(out[0].Guesses, ShouldNotContainKey, "Sonnet 4")
			})

			Convey("Then currency strings are parsed and junk is missing", func() {
				So(*out[1].ActualRent, ShouldEqual, 1800.0)
				So(*out[1].Guesses["Sonnet 4"], ShouldEqual, 0.0)
				So(out[1].Guesses["GPT 5"], ShouldBeNil)
			})
		})
	})

	Convey("Given a mapper with custom fields", t, func() {
		m := airtable.Mapper{RentField: "Rent", GuessSuffix: " Prediction"}
		records := []airtable.Record{{ID: "x", Fields: map[string]any{
			"Rent":             1200.0,
			"alice Prediction": 1300.0,
			"bob Guess":        1.0,
			" Prediction":      5.0,
		}}}

		Convey("Then only matching columns with a name are participants", func() {
			So(m.Participants(records), ShouldResemble, []string{"alice"})
			out := m.Map(records)
			So(out[0].Name, ShouldBeEmpty)
			So(*out[0].For("alice").Guess, ShouldEqual, 1300.0)
		})
	})
}
