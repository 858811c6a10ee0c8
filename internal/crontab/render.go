package crontab

import (
	"strings"
	"time"
)

const markerPrefix = "# Puppet Name: "

// headerTimeFormat matches what the original agent wrote; the exact value is
// not load-bearing (parse strips the header by shape, not by timestamp).
const headerTimeFormat = "2006-01-02 15:04:05 -0700"

func header(now time.Time, agent string) []string {
	return []string{
		"#This file was autogenerated at " + now.Format(headerTimeFormat) + " by " + agent + ". While it",
		headerLine2,
		headerLine3,
		headerLine4,
	}
}

// RenderPayload renders the table body: every foreign line verbatim and
// every entry as its marker comment plus data line, in layout order.
// Registered entries missing from the layout are rendered last.
func RenderPayload(t *Table) ([]string, error) {
	lines := make([]string, 0, len(t.rows)*2)
	emit := func(e *Entry) error {
		data, err := e.DataLine()
		if err != nil {
			return err
		}
		lines = append(lines, markerPrefix+e.Name, data)
		return nil
	}

	emitted := make(map[*Entry]bool, len(t.byName))
	for _, r := range t.rows {
		if r.entry == nil {
			lines = append(lines, r.text)
			continue
		}
		if err := emit(r.entry); err != nil {
			return nil, err
		}
		emitted[r.entry] = true
	}
	for _, e := range t.Entries() {
		if !emitted[e] {
			if err := emit(e); err != nil {
				return nil, err
			}
		}
	}
	return lines, nil
}

// RenderTable renders the literal crontab text: the generated warning
// header, then the payload, joined by single line breaks and terminated
// with exactly one trailing newline.
func RenderTable(t *Table, now time.Time, agent string) (string, error) {
	payload, err := RenderPayload(t)
	if err != nil {
		return "", err
	}
	lines := append(header(now, agent), payload...)
	return strings.Join(lines, "\n") + "\n", nil
}
