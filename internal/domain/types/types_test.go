package types_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/rentscore/internal/domain/model"
	types "github.com/okian/rentscore/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRanked(t *testing.T) {
	Convey("Given ordered leaderboard entries", t, func() {
		ts := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
		first := model.LeaderboardEntry{
			ScoreEvent:      model.ScoreEvent{ID: uuid.New(), ParticipantID: uuid.New(), Value: 97, CreatedAt: ts},
			ParticipantName: "alice",
		}
		second := model.LeaderboardEntry{
			ScoreEvent:      model.ScoreEvent{ID: uuid.New(), ParticipantID: uuid.New(), Value: 91, CreatedAt: ts},
			ParticipantName: "GPT 5",
		}

		Convey("When ranking them", func() {
			rows := types.Ranked([]model.LeaderboardEntry{first, second})

			Convey("Then ranks follow the input order", func() {
				So(rows, ShouldHaveLength, 2)
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[0].Username, ShouldEqual, "alice")
				So(rows[0].ScoreValue, ShouldEqual, 97)
				So(rows[0].ID, ShouldEqual, first.ID.String())
				So(rows[0].UserID, ShouldEqual, first.ParticipantID.String())
				So(rows[1].Rank, ShouldEqual, 2)
				So(rows[1].Username, ShouldEqual, "GPT 5")
			})
		})

		Convey("When ranking nothing", func() {
			rows := types.Ranked(nil)

			Convey("Then an empty, non-nil slice is returned", func() {
				So(rows, ShouldNotBeNil)
				So(rows, ShouldBeEmpty)
			})
		})
	})
}
