// Package analyticsqueries provides read-only aggregations for the
// creator and editor dashboards.
package analyticsqueries

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Bucket is a labeled count.
type Bucket struct {
	Key   string `bson:"_id" json:"key"`
	Count int64  `bson:"count" json:"count"`
}

// DayValue is one point of a daily series; Day is YYYY-MM-DD (UTC).
type DayValue struct {
	Day   string  `bson:"_id" json:"day"`
	Value float64 `bson:"value" json:"value"`
}

// EditorPerformance summarizes one editor's work on a creator's videos.
type EditorPerformance struct {
	Editor          string   `bson:"_id" json:"editor"`
	VideosCompleted int64    `bson:"videos" json:"videos_completed"`
	AvgRating       *float64 `bson:"avg_rating" json:"avg_rating"`
	AvgHours        float64  `bson:"avg_hours" json:"avg_hours"`
}

// RoleDuration is the mean time from assignment to completion for one role.
type RoleDuration struct {
	Role     string  `bson:"_id" json:"role"`
	AvgHours float64 `bson:"avg_hours" json:"avg_hours"`
}

// CreatorReport is the creator dashboard.
type CreatorReport struct {
	StatusDistribution []Bucket            `json:"status_distribution"`
	VideosOverTime     []DayValue          `json:"videos_over_time"`
	EditorPerformance  []EditorPerformance `json:"editor_performance"`
	AvgDaysToPublish   float64             `json:"avg_days_to_publish"`
	TaskStats          []Bucket            `json:"task_stats"`
}

// EditorReport is the editor dashboard.
type EditorReport struct {
	TasksOverTime       []DayValue     `json:"tasks_over_time"`
	TaskStatusBreakdown []Bucket       `json:"task_status_breakdown"`
	AvgCompletionTime   []RoleDuration `json:"avg_completion_time"`
	RatingTrend         []DayValue     `json:"rating_trend"`
	TopCreators         []Bucket       `json:"top_creators"`
}

const msPerHour = 3600 * 1000

func dayOf(field string) bson.M {
	return bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$" + field}}
}

func aggregate[T any](ctx context.Context, c *mongo.Collection, pipeline []bson.M) ([]T, error) {
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func countBy(ctx context.Context, c *mongo.Collection, match bson.M, field string) ([]Bucket, error) {
	return aggregate[Bucket](ctx, c, []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	})
}

// Creator builds the creator report over the last periodDays days.
func Creator(ctx context.Context, db *mongo.Database, creator string, periodDays int) (CreatorReport, error) {
	videos := db.Collection("videos")
	since := time.Now().UTC().AddDate(0, 0, -periodDays)
	var rep CreatorReport
	var err error

	if rep.StatusDistribution, err = countBy(ctx, videos, bson.M{"creator_email": creator}, "status"); err != nil {
		return rep, err
	}

	rep.VideosOverTime, err = aggregate[DayValue](ctx, videos, []bson.M{
		{"$match": bson.M{"creator_email": creator, "created_at": bson.M{"$gte": since}}},
		{"$group": bson.M{"_id": dayOf("created_at"), "value": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	})
	if err != nil {
		return rep, err
	}

	rep.EditorPerformance, err = aggregate[EditorPerformance](ctx, videos, []bson.M{
		{"$match": bson.M{"creator_email": creator, "edited_by": bson.M{"$nin": bson.A{nil, ""}}}},
		{"$group": bson.M{
			"_id":    "$edited_by",
			"videos": bson.M{"$sum": 1},
			// $avg skips nulls, so unrated videos do not drag the mean to zero.
			"avg_rating": bson.M{"$avg": bson.M{"$cond": bson.A{bson.M{"$gt": bson.A{"$rating", 0}}, "$rating", nil}}},
			"avg_hours":  bson.M{"$avg": bson.M{"$divide": bson.A{bson.M{"$subtract": bson.A{"$updated_at", "$created_at"}}, msPerHour}}},
		}},
		{"$sort": bson.M{"videos": -1}},
	})
	if err != nil {
		return rep, err
	}

	type avgRow struct {
		Days float64 `bson:"days"`
	}
	rows, err := aggregate[avgRow](ctx, videos, []bson.M{
		{"$match": bson.M{"creator_email": creator, "status": "published", "published_at": bson.M{"$ne": nil}}},
		{"$group": bson.M{"_id": nil, "days": bson.M{"$avg": bson.M{"$divide": bson.A{
			bson.M{"$subtract": bson.A{"$published_at", "$created_at"}}, 24 * msPerHour,
		}}}}},
	})
	if err != nil {
		return rep, err
	}
	if len(rows) > 0 {
		rep.AvgDaysToPublish = rows[0].Days
	}

	rep.TaskStats, err = countBy(ctx, db.Collection("video_assignments"), bson.M{"creator_email": creator}, "task_status")
	return rep, err
}

// Editor builds the editor report over the last periodDays days.
func Editor(ctx context.Context, db *mongo.Database, editor string, periodDays int) (EditorReport, error) {
	assignments := db.Collection("video_assignments")
	since := time.Now().UTC().AddDate(0, 0, -periodDays)
	var rep EditorReport
	var err error

	rep.TasksOverTime, err = aggregate[DayValue](ctx, assignments, []bson.M{
		{"$match": bson.M{"editor_email": editor, "assigned_at": bson.M{"$gte": since}}},
		{"$group": bson.M{"_id": dayOf("assigned_at"), "value": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	})
	if err != nil {
		return rep, err
	}

	if rep.TaskStatusBreakdown, err = countBy(ctx, assignments, bson.M{"editor_email": editor}, "task_status"); err != nil {
		return rep, err
	}

	rep.AvgCompletionTime, err = aggregate[RoleDuration](ctx, assignments, []bson.M{
		{"$match": bson.M{"editor_email": editor, "task_status": "completed"}},
		{"$group": bson.M{
			"_id":       "$role",
			"avg_hours": bson.M{"$avg": bson.M{"$divide": bson.A{bson.M{"$subtract": bson.A{"$updated_at", "$assigned_at"}}, msPerHour}}},
		}},
		{"$sort": bson.M{"_id": 1}},
	})
	if err != nil {
		return rep, err
	}

	rep.RatingTrend, err = aggregate[DayValue](ctx, db.Collection("videos"), []bson.M{
		{"$match": bson.M{"edited_by": editor, "rating": bson.M{"$gt": 0}, "updated_at": bson.M{"$gte": since}}},
		{"$group": bson.M{"_id": dayOf("updated_at"), "value": bson.M{"$avg": "$rating"}}},
		{"$sort": bson.M{"_id": 1}},
	})
	if err != nil {
		return rep, err
	}

	rep.TopCreators, err = aggregate[Bucket](ctx, assignments, []bson.M{
		{"$match": bson.M{"editor_email": editor, "task_status": "completed"}},
		{"$group": bson.M{"_id": "$creator_email", "count": bson.M{"$sum": 1}}},
		{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
		{"$limit": 5},
	})
	return rep, err
}
