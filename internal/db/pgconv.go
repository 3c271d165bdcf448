package db

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/hackgods/hospital-scheduling/internal/civil"
)

const microsPerMinute = int64(time.Minute / time.Microsecond)

func DateParam(d civil.Date) pgtype.Date {
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func DateValue(d pgtype.Date) (civil.Date, error) {
	if !d.Valid {
		return civil.Date{}, fmt.Errorf("unexpected NULL date")
	}
	return civil.DateOf(d.Time), nil
}

func TimeParam(t civil.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * microsPerMinute, Valid: true}
}

func TimeValue(t pgtype.Time) (civil.TimeOfDay, error) {
	if !t.Valid {
		return 0, fmt.Errorf("unexpected NULL time")
	}
	return civil.TimeOfDay(t.Microseconds / microsPerMinute), nil
}
