// Package calendar exports an event to external calendars: prefilled
// Google Calendar and Outlook links, and a downloadable .ics file.
package calendar

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"teamup/internal/model"
)

const (
	googleBase  = "https://calendar.google.com/calendar/render"
	outlookBase = "https://outlook.live.com/calendar/0/deeplink/compose"

	googleDateLayout = "20060102T150405Z"
	productID        = "-//TeamUp//Events//EN"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	unsafeName = regexp.MustCompile(`[/\\"]`)
)

// Details is the long text attached to the calendar entry.
func Details(ev *model.Event) string {
	var organizer string
	if ev.Organizer != nil {
		organizer = strings.TrimSpace(ev.Organizer.FirstName + " " + ev.Organizer.LastName)
	}
	return ev.Description + "\n\nOrganized by: " + organizer
}

// Location is "address, city".
func Location(ev *model.Event) string {
	return ev.Address + ", " + ev.City
}

func times(ev *model.Event) (start, end time.Time, err error) {
	start, err = ev.Start()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}
	end, err = ev.End()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}
	return start.UTC(), end.UTC(), nil
}

// encode escapes s the way encodeURIComponent does for the characters
// that matter here: spaces become %20, not +.
func encode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// GoogleURL builds a Google Calendar "add event" link.
func GoogleURL(ev *model.Event) (string, error) {
	start, end, err := times(ev)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(googleBase)
	b.WriteString("?action=TEMPLATE")
	b.WriteString("&text=" + encode(ev.Title))
	b.WriteString("&dates=" + start.Format(googleDateLayout) + "/" + end.Format(googleDateLayout))
	b.WriteString("&details=" + encode(Details(ev)))
	b.WriteString("&location=" + encode(Location(ev)))
	return b.String(), nil
}

// OutlookURL builds an Outlook.com compose link.
func OutlookURL(ev *model.Event) (string, error) {
	start, end, err := times(ev)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(outlookBase)
	b.WriteString("?subject=" + encode(ev.Title))
	b.WriteString("&body=" + encode(Details(ev)))
	b.WriteString("&startdt=" + model.FormatTimestamp(start))
	b.WriteString("&enddt=" + model.FormatTimestamp(end))
	b.WriteString("&location=" + encode(Location(ev)))
	return b.String(), nil
}

// ICS renders ev as a single-event iCalendar document. stamp is written as
// DTSTAMP.
func ICS(ev *model.Event, stamp time.Time) ([]byte, error) {
	start, end, err := times(ev)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	uid := ev.ID
	if uid == "" {
		uid = start.Format(googleDateLayout)
	}
	vev := cal.AddEvent(uid + "@teamup")
	vev.SetDtStampTime(stamp.UTC())
	vev.SetStartAt(start)
	vev.SetEndAt(end)
	vev.SetSummary(ev.Title)
	vev.SetDescription(Details(ev))
	vev.SetLocation(Location(ev))
	if ev.Latitude != 0 || ev.Longitude != 0 {
		vev.SetGeo(ev.Latitude, ev.Longitude)
	}
	if ev.IsCancelled() {
		vev.SetStatus(ical.ObjectStatusCancelled)
	}

	return []byte(cal.Serialize()), nil
}

// Filename is the download name for the .ics file: the title with runs of
// whitespace replaced by underscores.
func Filename(ev *model.Event) string {
	name := spaceRun.ReplaceAllString(ev.Title, "_")
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}
