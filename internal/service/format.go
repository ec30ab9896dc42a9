package service

import "time"

const sessionTimeLayout = "Monday, 2 January 2006 at 3:04 PM MST"

func formatSessionTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(sessionTimeLayout)
}

func therapistName(name string) string {
	if name == "" {
		return "your therapist"
	}
	return name
}

func clientName(name string) string {
	if name == "" {
		return "Your client"
	}
	return name
}
