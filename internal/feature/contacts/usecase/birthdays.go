package usecase

import (
	"sort"
	"time"

	"contacts_backend/internal/feature/contacts/domain/entity"
)

// DaysUntilBirthday returns the number of calendar days from today to the
// next anniversary of birthday, 0 when it is today. A Feb 29 birthday is
// celebrated on Feb 28 in non-leap years.
func DaysUntilBirthday(birthday, today time.Time) int {
	t := dateOf(today)
	next := anniversary(birthday, t.Year())
	if next.Before(t) {
		next = anniversary(birthday, t.Year()+1)
	}
	return int(next.Sub(t).Hours() / 24)
}

func anniversary(birthday time.Time, year int) time.Time {
	b := birthday.UTC()
	month, day := b.Month(), b.Day()
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// upcoming keeps the contacts whose next birthday is within [0, days] of
// today, ordered by distance and then id.
func upcoming(contacts []entity.Contact, today time.Time, days int) []entity.Contact {
	type ranked struct {
		c    entity.Contact
		dist int
	}
	var hits []ranked
	for _, c := range contacts {
		if d := DaysUntilBirthday(c.Birthday, today); d <= days {
			hits = append(hits, ranked{c: c, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].c.ID < hits[j].c.ID
	})

	out := make([]entity.Contact, len(hits))
	for i, h := range hits {
		out[i] = h.c
	}
	return out
}
