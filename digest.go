package main

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StartDigestScheduler starts a cron-based loop that periodically logs a
// summary of pending feedback per department and mirrors it to Slack when
// configured. The schedule is a standard 5-field cron expression.
// Examples: "0 8 * * *" (daily 8am), "0 8 * * 1-5" (weekdays 8am).
func StartDigestScheduler(cfg Config, store *Store, notifier *Notifier) {
	schedule := strings.TrimSpace(cfg.DigestSchedule)
	if schedule == "" {
		log.Println("Pending digest disabled (digest_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid digest_schedule '%s': %v, digest disabled", schedule, err)
		return
	}

	log.Printf("Pending digest scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next pending digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			summary := BuildPendingDigest(store.List())
			log.Printf("Pending digest: %s", summary)
			notifier.PostDigest("Pending feedback digest: " + summary)
		}
	}()
}

// BuildPendingDigest summarizes pending feedback counts per department,
// department names sorted for stable output.
func BuildPendingDigest(items []Feedback) string {
	counts := make(map[string]int)
	total := 0
	for _, fb := range items {
		if fb.Status != "pending" {
			continue
		}
		counts[fb.Department]++
		total++
	}
	if total == 0 {
		return "no pending feedback"
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s %d", name, counts[name]))
	}
	return fmt.Sprintf("%d pending (%s)", total, strings.Join(parts, ", "))
}
