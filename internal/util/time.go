package util

import "time"

var londonLocation *time.Location

func init() {
	var err error
	londonLocation, err = time.LoadLocation("Europe/London")
	if err != nil {
		londonLocation = time.UTC
	}
}

// London is the UK civil time zone, or UTC when tzdata is unavailable.
func London() *time.Location {
	return londonLocation
}

// FormatUKDate renders t as dd/mm/yyyy in UK local time.
func FormatUKDate(t time.Time) string {
	return t.In(londonLocation).Format("02/01/2006")
}
